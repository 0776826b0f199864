package room

import (
	"encoding/json"

	"github.com/wingnight/gameserver/logger"
)

// scoringMemento is one restorable scoring position: team totals, the
// per-round pending maps and the minigame runtime snapshot.
type scoringMemento struct {
	teamScores      map[string]int
	pendingWing     map[string]int
	pendingMinigame map[string]int
	runtimeSnapshot json.RawMessage
}

// scoringCheckpoint is the one-level undo window around the last scoring
// mutation. Redo toggles between its two positions, so re-applying moves
// state forward exactly once.
type scoringCheckpoint struct {
	before scoringMemento
	after  scoringMemento
	undone bool
}

// SetWingParticipation marks whether a player ate their wing this round.
// The owning team's pending wing points recompute immediately.
func (r *Room) SetWingParticipation(playerID string, ate bool) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.CurrentRound < 1 {
		return false
	}
	team := r.teamOfPlayer(playerID)
	if team == nil {
		return false
	}
	if r.state.WingParticipation[playerID] == ate {
		return false
	}
	r.state.WingParticipation[playerID] = ate
	r.recomputeWingPoints(team.ID)
	return true
}

// recomputeWingPoints rebuilds one team's pending wing points from member
// participation: eaters * the round's per-player points.
func (r *Room) recomputeWingPoints(teamID string) {
	rc := r.currentRoundConfig()
	team := r.teamByID(teamID)
	if rc == nil || team == nil {
		return
	}
	eaters := 0
	for _, member := range team.MemberPlayerIDs {
		if r.state.WingParticipation[member] {
			eaters++
		}
	}
	r.state.PendingWingPoints[teamID] = eaters * rc.PointsPerPlayer
}

// AdjustTeamScore applies a host override delta to a team's pending
// minigame points, clamped to [0, pointsMax], and reconciles the change
// into the active minigame runtime. Checkpointed for undo.
func (r *Room) AdjustTeamScore(teamID string, delta int) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.CurrentRound < 1 {
		return false
	}
	max := r.minigamePointsMax()
	if delta == 0 || delta > max || delta < -max {
		return false
	}
	if r.teamByID(teamID) == nil {
		return false
	}

	adjusted := r.state.PendingMinigamePoints[teamID] + delta
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > max {
		adjusted = max
	}
	if adjusted == r.state.PendingMinigamePoints[teamID] {
		return false
	}

	before := r.captureScoring()
	r.state.PendingMinigamePoints[teamID] = adjusted
	r.orchestrator.SyncPendingPoints(r.runtime, clonePoints(r.state.PendingMinigamePoints))
	r.reprojectMinigame()
	r.checkpoint = &scoringCheckpoint{before: before, after: r.captureScoring()}
	return true
}

// applyRoundScores is the only operation that touches totalScore: at the
// ROUND_RESULTS edge each team's pending wing and minigame points fold into
// its total, then the pending maps clear. Teams with a zero sum are skipped
// so the score log stays quiet.
func (r *Room) applyRoundScores() {
	before := r.captureScoring()
	applied := false
	for _, team := range r.state.Teams {
		sum := r.state.PendingWingPoints[team.ID] + r.state.PendingMinigamePoints[team.ID]
		if sum == 0 {
			continue
		}
		applied = true
		team.TotalScore += sum
		logger.Log.Infow("round scores applied",
			"team", team.ID,
			"wing", r.state.PendingWingPoints[team.ID],
			"minigame", r.state.PendingMinigamePoints[team.ID],
			"total", team.TotalScore,
		)
	}
	r.state.PendingWingPoints = make(map[string]int)
	r.state.PendingMinigamePoints = make(map[string]int)

	// A scoreless round boundary leaves nothing to redo.
	if !applied {
		r.checkpoint = nil
		return
	}
	r.checkpoint = &scoringCheckpoint{before: before, after: r.captureScoring()}
}

// RedoScoringMutation toggles the last scoring mutation: first call undoes
// it, the next re-applies it. At most one level is kept.
func (r *Room) RedoScoringMutation() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.checkpoint == nil {
		return false
	}
	if r.checkpoint.undone {
		r.restoreScoring(r.checkpoint.after)
		r.checkpoint.undone = false
	} else {
		r.restoreScoring(r.checkpoint.before)
		r.checkpoint.undone = true
	}
	return true
}

// canRedoScoringMutation is surfaced to clients as a capability flag.
func (r *Room) canRedoScoringMutation() bool {
	return r.checkpoint != nil
}

func (r *Room) captureScoring() scoringMemento {
	scores := make(map[string]int, len(r.state.Teams))
	for _, team := range r.state.Teams {
		scores[team.ID] = team.TotalScore
	}
	return scoringMemento{
		teamScores:      scores,
		pendingWing:     clonePoints(r.state.PendingWingPoints),
		pendingMinigame: clonePoints(r.state.PendingMinigamePoints),
		runtimeSnapshot: r.orchestrator.Capture(r.runtime),
	}
}

func (r *Room) restoreScoring(m scoringMemento) {
	for _, team := range r.state.Teams {
		if score, ok := m.teamScores[team.ID]; ok {
			team.TotalScore = score
		}
	}
	r.state.PendingWingPoints = clonePoints(m.pendingWing)
	r.state.PendingMinigamePoints = clonePoints(m.pendingMinigame)
	if r.runtime != nil && m.runtimeSnapshot != nil {
		r.orchestrator.Restore(r.runtime, m.runtimeSnapshot)
		r.reprojectMinigame()
	}
}

func (r *Room) teamOfPlayer(playerID string) *Team {
	for _, team := range r.state.Teams {
		if contains(team.MemberPlayerIDs, playerID) {
			return team
		}
	}
	return nil
}
