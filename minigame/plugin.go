// Package minigame defines the pluggable minigame runtime protocol: a plugin
// is a reducer over an opaque serializable state that it alone defines, plus
// per-role view selectors and snapshot capture/restore. The orchestrator
// isolates the room from plugin misbehavior.
package minigame

import (
	"encoding/json"

	"github.com/wingnight/gameserver/content"
)

// State is the opaque runtime state owned by a plugin. The room never looks
// inside it; it only carries it between plugin calls and snapshots.
type State any

// ActionEnvelope is a host-dispatched minigame action.
type ActionEnvelope struct {
	MinigameID string          `json:"minigameId"`
	APIVersion int             `json:"minigameApiVersion"`
	ActionType string          `json:"actionType"`
	Payload    json.RawMessage `json:"actionPayload,omitempty"`
}

// InitContext is everything a plugin receives when a minigame starts.
type InitContext struct {
	TeamIDs           []string
	ActiveRoundTeamID string
	PointsMax         int
	PendingPoints     map[string]int
	Rules             content.Rules
	Content           *content.Pack
}

// Plugin is the contract every minigame runtime implements. didMutate=false
// from ReduceAction signals a rejected or no-op action and must leave the
// room-visible projection untouched. Any returned error (or panic) is
// treated by the orchestrator as a runtime failure, never propagated.
type Plugin interface {
	Type() string

	Initialize(ctx InitContext) (State, error)
	ReduceAction(s State, env ActionEnvelope, pointsMax int, rules content.Rules, pack *content.Pack) (State, bool, error)

	// SyncPendingPoints reconciles externally adjusted scores back into
	// plugin state without moving turn or prompt position.
	SyncPendingPoints(s State, pending map[string]int) (State, error)
	// SyncContent re-normalizes plugin state (cursor wraparound) after the
	// backing content changed size.
	SyncContent(s State, pack *content.Pack) (State, error)

	SelectHostView(s State, rules content.Rules, pack *content.Pack) (any, error)
	SelectDisplayView(s State, rules content.Rules, pack *content.Pack) (any, error)

	// ActiveTurnTeam reports the team currently acting inside the minigame,
	// or "" when none.
	ActiveTurnTeam(s State) string
	// PendingPoints projects the plugin's provisional per-team points.
	PendingPoints(s State) map[string]int

	CaptureSnapshot(s State) (json.RawMessage, error)
	RestoreSnapshot(raw json.RawMessage) (State, error)
}

// Projection is what the room keeps of a minigame between mutations:
// per-role views plus the turn/points bookkeeping the room mirrors.
type Projection struct {
	HostView         any
	DisplayView      any
	ActiveTurnTeamID string
	PendingPoints    map[string]int
}

// ShellProjection is the safe degraded projection: no active turn, no views.
// Applied when a plugin fails or has no implementation.
func ShellProjection() Projection {
	return Projection{}
}
