// Package room implements the authoritative room-state orchestration engine:
// the phase state machine, turn rotation and scoring bookkeeping, host
// authority and the role-scoped state projection. A single Room instance is
// the only writer of its state; all mutating operations are serialized
// behind one mutex and either apply fully or reject as a boolean no-op.
package room

import (
	"sync"

	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/timer"
)

// Team is one scoring unit. Member ids have set semantics: a player belongs
// to at most one team.
type Team struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MemberPlayerIDs []string `json:"memberPlayerIds"`
	TotalScore      int      `json:"totalScore"`
}

// RoomState is the single mutable room state, owned exclusively by Room.
type RoomState struct {
	Phase        Phase
	CurrentRound int
	TotalRounds  int

	Teams []*Team

	TurnOrderTeamIDs          []string
	RoundTurnCursor           int
	CompletedRoundTurnTeamIDs []string
	ActiveTurnTeamID          string

	MinigameHostView    any
	MinigameDisplayView any

	Timer *timer.Countdown

	WingParticipation     map[string]bool
	PendingWingPoints     map[string]int
	PendingMinigamePoints map[string]int
}

// Room owns the state and exposes its mutation surface. Mutations are
// atomic with respect to each other; concurrent readers go through Project.
type Room struct {
	mutex sync.Mutex

	pack         *content.Pack
	orchestrator *minigame.Orchestrator
	authority    *HostAuthority

	maxExtendSeconds int

	state      *RoomState
	runtime    *minigame.Runtime
	checkpoint *scoringCheckpoint

	fatalError string
}

// New creates the room in SETUP with the validated content pack.
func New(pack *content.Pack, orchestrator *minigame.Orchestrator, maxExtendSeconds int) *Room {
	return &Room{
		pack:             pack,
		orchestrator:     orchestrator,
		authority:        NewHostAuthority(),
		maxExtendSeconds: maxExtendSeconds,
		state:            initialState(pack),
	}
}

// NewFatal creates a room in the terminal fatal-error state: startup content
// failed validation and every mutation is refused. The error is surfaced to
// every client through the snapshot.
func NewFatal(message string, orchestrator *minigame.Orchestrator) *Room {
	return &Room{
		pack:         &content.Pack{},
		orchestrator: orchestrator,
		authority:    NewHostAuthority(),
		state:        initialState(&content.Pack{}),
		fatalError:   message,
	}
}

func initialState(pack *content.Pack) *RoomState {
	return &RoomState{
		Phase:                 PhaseSetup,
		TotalRounds:           len(pack.Game.Rounds),
		RoundTurnCursor:       -1,
		WingParticipation:     make(map[string]bool),
		PendingWingPoints:     make(map[string]int),
		PendingMinigamePoints: make(map[string]int),
	}
}

// Authority exposes the host-secret bearer for the connection layer.
func (r *Room) Authority() *HostAuthority {
	return r.authority
}

// FatalError reports the terminal startup error, or "".
func (r *Room) FatalError() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.fatalError
}

// Reset re-creates the state in place: back to SETUP, zero teams, the
// loaded roster and config untouched. The host secret survives.
func (r *Room) Reset() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" {
		return false
	}
	r.state = initialState(r.pack)
	r.runtime = nil
	r.checkpoint = nil
	return true
}

// CreateTeam adds a team with a fresh id. Rejected on empty name.
func (r *Room) CreateTeam(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || name == "" {
		return false
	}
	r.state.Teams = append(r.state.Teams, &Team{
		ID:   newTeamID(),
		Name: name,
	})
	return true
}

// AssignPlayer moves a player onto a team, or off every team when teamID is
// empty. A player is never a member of two teams.
func (r *Room) AssignPlayer(playerID, teamID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || !r.playerExists(playerID) {
		return false
	}
	target := r.teamByID(teamID)
	if teamID != "" && target == nil {
		return false
	}
	if target != nil && contains(target.MemberPlayerIDs, playerID) {
		return false
	}

	for _, team := range r.state.Teams {
		if removed := remove(&team.MemberPlayerIDs, playerID); removed {
			r.recomputeWingPoints(team.ID)
		}
	}
	if target != nil {
		target.MemberPlayerIDs = append(target.MemberPlayerIDs, playerID)
		r.recomputeWingPoints(target.ID)
	}
	return true
}

// DispatchMinigameAction routes a host action envelope into the active
// minigame runtime. Rejected outside MINIGAME_PLAY or when the envelope
// does not match the active minigame.
func (r *Room) DispatchMinigameAction(env minigame.ActionEnvelope) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.Phase != PhaseMinigamePlay || r.runtime == nil {
		return false
	}
	if env.MinigameID != r.runtime.Type() || env.APIVersion != MinigameAPIVersion {
		return false
	}

	rc := r.currentRoundConfig()
	if rc == nil {
		return false
	}
	changed := r.orchestrator.Reduce(r.runtime, env, r.minigamePointsMax(), r.pack.RulesFor(rc.Minigame), r.pack)
	if !changed {
		return false
	}
	r.reprojectMinigame()
	return true
}

// MinigameAPIVersion is the action-envelope version this engine accepts.
const MinigameAPIVersion = 1

// PauseTimer freezes the active countdown, when it allows pausing.
func (r *Room) PauseTimer() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.Timer == nil {
		return false
	}
	return r.state.Timer.Pause()
}

// ResumeTimer re-anchors a paused countdown.
func (r *Room) ResumeTimer() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.Timer == nil {
		return false
	}
	return r.state.Timer.Resume()
}

// ExtendTimer grants extra seconds, clamped per call.
func (r *Room) ExtendTimer(seconds int) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" || r.state.Timer == nil {
		return false
	}
	return r.state.Timer.Extend(seconds, r.maxExtendSeconds)
}

// --- internal helpers, caller holds the mutex ---

func (r *Room) currentRoundConfig() *content.RoundConfig {
	round := r.state.CurrentRound
	if round < 1 || round > len(r.pack.Game.Rounds) {
		return nil
	}
	rc := r.pack.Game.Rounds[round-1]
	return &rc
}

// minigamePointsMax resolves the round's scoring cap: the final round uses
// its own, usually higher, cap.
func (r *Room) minigamePointsMax() int {
	if r.state.TotalRounds > 0 && r.state.CurrentRound == r.state.TotalRounds {
		return r.pack.Game.Scoring.FinalRoundPointsMax
	}
	return r.pack.Game.Scoring.DefaultPointsMax
}

func (r *Room) teamIDs() []string {
	ids := make([]string, 0, len(r.state.Teams))
	for _, team := range r.state.Teams {
		ids = append(ids, team.ID)
	}
	return ids
}

func (r *Room) teamByID(id string) *Team {
	for _, team := range r.state.Teams {
		if team.ID == id {
			return team
		}
	}
	return nil
}

func (r *Room) playerExists(id string) bool {
	for _, p := range r.pack.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func clonePoints(points map[string]int) map[string]int {
	out := make(map[string]int, len(points))
	for id, pts := range points {
		out[id] = pts
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids *[]string, id string) bool {
	for i, candidate := range *ids {
		if candidate == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return true
		}
	}
	return false
}
