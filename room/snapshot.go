package room

import (
	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/timer"
)

// Role is a client's resolved privilege level. Displays are the
// least-privileged default.
type Role string

const (
	RoleHost    Role = "host"
	RoleDisplay Role = "display"
)

// ResolveRole maps a connection's role token to a role. Missing or
// unrecognized tokens resolve to display.
func ResolveRole(token, hostToken string) Role {
	if hostToken != "" && token == hostToken {
		return RoleHost
	}
	return RoleDisplay
}

// Snapshot is the role-scoped projection of RoomState delivered to clients.
// The host projection is the state unmodified; the display projection
// strips the host-only minigame view (which is where answer-bearing fields
// live), leaving the display-safe view for audience rendering.
type Snapshot struct {
	Phase        Phase `json:"phase"`
	CurrentRound int   `json:"currentRound"`
	TotalRounds  int   `json:"totalRounds"`

	Players []content.Player `json:"players"`
	Teams   []Team           `json:"teams"`

	GameConfig         *content.GameConfig  `json:"gameConfig,omitempty"`
	CurrentRoundConfig *content.RoundConfig `json:"currentRoundConfig,omitempty"`

	TurnOrderTeamIDs          []string `json:"turnOrderTeamIds"`
	RoundTurnCursor           int      `json:"roundTurnCursor"`
	CompletedRoundTurnTeamIDs []string `json:"completedRoundTurnTeamIds"`
	ActiveRoundTeamID         string   `json:"activeRoundTeamId,omitempty"`
	ActiveTurnTeamID          string   `json:"activeTurnTeamId,omitempty"`

	MinigameDescriptor  *minigame.Descriptor `json:"minigameDescriptor,omitempty"`
	MinigameHostView    any                  `json:"minigameHostView,omitempty"`
	MinigameDisplayView any                  `json:"minigameDisplayView,omitempty"`

	Timer *timer.Countdown `json:"timer,omitempty"`

	WingParticipationByPlayerID   map[string]bool `json:"wingParticipationByPlayerId"`
	PendingWingPointsByTeamID     map[string]int  `json:"pendingWingPointsByTeamId"`
	PendingMinigamePointsByTeamID map[string]int  `json:"pendingMinigamePointsByTeamId"`

	FatalError string `json:"fatalError,omitempty"`

	CanRedoScoringMutation bool `json:"canRedoScoringMutation"`
	CanAdvancePhase        bool `json:"canAdvancePhase"`
}

// Project derives a fresh role-scoped snapshot. Redaction happens on every
// call, never cached, so a reconnecting or re-resolved client always gets
// the correctly redacted shape. The returned value shares nothing mutable
// with the live state.
func (r *Room) Project(role Role) *Snapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	teams := make([]Team, 0, len(r.state.Teams))
	for _, team := range r.state.Teams {
		copied := *team
		copied.MemberPlayerIDs = append([]string(nil), team.MemberPlayerIDs...)
		teams = append(teams, copied)
	}

	var countdown *timer.Countdown
	if r.state.Timer != nil {
		r.state.Timer.Refresh()
		copied := *r.state.Timer
		countdown = &copied
	}

	snap := &Snapshot{
		Phase:        r.state.Phase,
		CurrentRound: r.state.CurrentRound,
		TotalRounds:  r.state.TotalRounds,

		Players: r.pack.Players,
		Teams:   teams,

		GameConfig:         &r.pack.Game,
		CurrentRoundConfig: r.currentRoundConfig(),

		TurnOrderTeamIDs:          append([]string(nil), r.state.TurnOrderTeamIDs...),
		RoundTurnCursor:           r.state.RoundTurnCursor,
		CompletedRoundTurnTeamIDs: append([]string(nil), r.state.CompletedRoundTurnTeamIDs...),
		ActiveRoundTeamID:         r.activeRoundTeamID(),
		ActiveTurnTeamID:          r.state.ActiveTurnTeamID,

		MinigameDisplayView: r.state.MinigameDisplayView,

		Timer: countdown,

		WingParticipationByPlayerID:   cloneFlags(r.state.WingParticipation),
		PendingWingPointsByTeamID:     clonePoints(r.state.PendingWingPoints),
		PendingMinigamePointsByTeamID: clonePoints(r.state.PendingMinigamePoints),

		FatalError: r.fatalError,

		CanRedoScoringMutation: r.canRedoScoringMutation(),
		CanAdvancePhase:        r.fatalError == "" && r.state.Phase != PhaseFinalResults,
	}

	if rc := r.currentRoundConfig(); rc != nil {
		desc := r.orchestrator.Describe(rc.Minigame)
		snap.MinigameDescriptor = &desc
	}

	if role == RoleHost {
		snap.MinigameHostView = r.state.MinigameHostView
	}
	return snap
}

// Stats is the operational summary exposed over the rpc surface.
type Stats struct {
	Phase        Phase  `json:"phase"`
	CurrentRound int    `json:"currentRound"`
	TotalRounds  int    `json:"totalRounds"`
	Teams        int    `json:"teams"`
	Players      int    `json:"players"`
	FatalError   string `json:"fatalError,omitempty"`
}

func (r *Room) Stats() Stats {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return Stats{
		Phase:        r.state.Phase,
		CurrentRound: r.state.CurrentRound,
		TotalRounds:  r.state.TotalRounds,
		Teams:        len(r.state.Teams),
		Players:      len(r.pack.Players),
		FatalError:   r.fatalError,
	}
}

func cloneFlags(flags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(flags))
	for id, v := range flags {
		out[id] = v
	}
	return out
}
