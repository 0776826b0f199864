package room

import (
	"time"

	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/timer"
)

// Phase is one discrete stage of the room lifecycle.
type Phase string

const (
	PhaseSetup         Phase = "SETUP"
	PhaseIntro         Phase = "INTRO"
	PhaseRoundIntro    Phase = "ROUND_INTRO"
	PhaseMinigameIntro Phase = "MINIGAME_INTRO"
	PhaseEating        Phase = "EATING"
	PhaseMinigamePlay  Phase = "MINIGAME_PLAY"
	PhaseRoundResults  Phase = "ROUND_RESULTS"
	PhaseFinalResults  Phase = "FINAL_RESULTS"
)

func (p Phase) String() string {
	return string(p)
}

// NextPhase is the total, unconditional successor map. It is a pure function
// of (phase, currentRound, totalRounds); FINAL_RESULTS maps to itself.
func NextPhase(p Phase, currentRound, totalRounds int) Phase {
	switch p {
	case PhaseSetup:
		return PhaseIntro
	case PhaseIntro:
		return PhaseRoundIntro
	case PhaseRoundIntro:
		return PhaseMinigameIntro
	case PhaseMinigameIntro:
		return PhaseEating
	case PhaseEating:
		return PhaseMinigamePlay
	case PhaseMinigamePlay:
		return PhaseRoundResults
	case PhaseRoundResults:
		if currentRound < totalRounds {
			return PhaseRoundIntro
		}
		return PhaseFinalResults
	default:
		return PhaseFinalResults
	}
}

// AdvancePhase moves the room to the next phase, running the side effects
// keyed to the specific transition. Returns false only at FINAL_RESULTS
// (the self-loop) or when the room is in the fatal state.
func (r *Room) AdvancePhase() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" {
		return false
	}

	prev := r.state.Phase
	next := NextPhase(prev, r.state.CurrentRound, r.state.TotalRounds)
	if next == prev {
		return false
	}

	if prev == PhaseMinigamePlay {
		r.clearMinigame()
	}

	// Timers are tied to a phase; the entered phase decides whether a new
	// one starts.
	r.state.Timer = nil
	r.state.Phase = next

	switch next {
	case PhaseRoundIntro:
		switch {
		case prev == PhaseIntro && r.state.CurrentRound == 0:
			r.state.CurrentRound = 1
		case prev == PhaseRoundResults:
			r.state.CurrentRound++
		}
		r.startRound()
	case PhaseEating:
		r.startEating()
	case PhaseMinigamePlay:
		r.startMinigame()
	case PhaseRoundResults:
		r.applyRoundScores()
	}

	logger.Log.Infow("phase advanced",
		"previous", prev,
		"next", next,
		"round", r.state.CurrentRound,
	)
	return true
}

// startRound runs the round-start edge: fresh turn rotation and per-round
// scoring scratch.
func (r *Room) startRound() {
	r.initRoundTurns()
	r.state.WingParticipation = make(map[string]bool)
	r.state.PendingWingPoints = make(map[string]int)
	r.state.PendingMinigamePoints = make(map[string]int)
	r.checkpoint = nil
}

// startEating arms the pausable eating countdown and resets participation.
func (r *Room) startEating() {
	rc := r.currentRoundConfig()
	if rc == nil {
		return
	}
	r.state.Timer = timer.NewCountdown(string(PhaseEating), time.Duration(rc.EatingSeconds)*time.Second, true)
	r.state.WingParticipation = make(map[string]bool)
	for _, team := range r.state.Teams {
		r.recomputeWingPoints(team.ID)
	}
}

// startMinigame resolves and initializes the round's minigame runtime.
func (r *Room) startMinigame() {
	rc := r.currentRoundConfig()
	if rc == nil {
		return
	}
	rules := r.pack.RulesFor(rc.Minigame)
	r.runtime = r.orchestrator.Start(rc.Minigame, minigame.InitContext{
		TeamIDs:           r.teamIDs(),
		ActiveRoundTeamID: r.activeRoundTeamID(),
		PointsMax:         r.minigamePointsMax(),
		PendingPoints:     clonePoints(r.state.PendingMinigamePoints),
		Rules:             rules,
		Content:           r.pack,
	})
	r.reprojectMinigame()

	if secs := r.pack.Game.MinigameSeconds[rc.Minigame]; secs > 0 {
		r.state.Timer = timer.NewCountdown(string(PhaseMinigamePlay), time.Duration(secs)*time.Second, false)
	}
}

// clearMinigame tears down the runtime when leaving MINIGAME_PLAY. Pending
// minigame points survive; they are applied at ROUND_RESULTS.
func (r *Room) clearMinigame() {
	r.runtime = nil
	r.state.MinigameHostView = nil
	r.state.MinigameDisplayView = nil
	r.state.ActiveTurnTeamID = ""
}

// reprojectMinigame refreshes the room-visible minigame projection from the
// runtime. A failed or missing runtime projects the safe shell.
func (r *Room) reprojectMinigame() {
	rc := r.currentRoundConfig()
	if rc == nil || r.runtime == nil {
		r.clearMinigame()
		return
	}
	proj := r.orchestrator.Project(r.runtime, r.pack.RulesFor(rc.Minigame), r.pack)
	r.state.MinigameHostView = proj.HostView
	r.state.MinigameDisplayView = proj.DisplayView
	r.state.ActiveTurnTeamID = proj.ActiveTurnTeamID
	if proj.PendingPoints != nil {
		r.state.PendingMinigamePoints = proj.PendingPoints
	}
}
