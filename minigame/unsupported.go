package minigame

import (
	"encoding/json"
	"fmt"

	"github.com/wingnight/gameserver/content"
)

// StatusUnsupported is the fixed status reported by the fallback plugin.
const StatusUnsupported = "UNSUPPORTED"

// UnsupportedView is the view both roles receive for an unimplemented
// minigame type. It carries no gameplay state.
type UnsupportedView struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type unsupportedState struct{}

// unsupportedPlugin is the permanent safe-shell behavior for any minigame
// type without a real implementation. It never mutates and never fails.
type unsupportedPlugin struct {
	minigameType string
}

func newUnsupported(minigameType string) *unsupportedPlugin {
	return &unsupportedPlugin{minigameType: minigameType}
}

func (p *unsupportedPlugin) Type() string { return p.minigameType }

func (p *unsupportedPlugin) Initialize(InitContext) (State, error) {
	return unsupportedState{}, nil
}

func (p *unsupportedPlugin) ReduceAction(s State, _ ActionEnvelope, _ int, _ content.Rules, _ *content.Pack) (State, bool, error) {
	return s, false, nil
}

func (p *unsupportedPlugin) SyncPendingPoints(s State, _ map[string]int) (State, error) {
	return s, nil
}

func (p *unsupportedPlugin) SyncContent(s State, _ *content.Pack) (State, error) {
	return s, nil
}

func (p *unsupportedPlugin) SelectHostView(State, content.Rules, *content.Pack) (any, error) {
	return p.view(), nil
}

func (p *unsupportedPlugin) SelectDisplayView(State, content.Rules, *content.Pack) (any, error) {
	return p.view(), nil
}

func (p *unsupportedPlugin) ActiveTurnTeam(State) string { return "" }

func (p *unsupportedPlugin) PendingPoints(State) map[string]int { return nil }

func (p *unsupportedPlugin) CaptureSnapshot(State) (json.RawMessage, error) {
	return json.Marshal(unsupportedState{})
}

func (p *unsupportedPlugin) RestoreSnapshot(json.RawMessage) (State, error) {
	return unsupportedState{}, nil
}

func (p *unsupportedPlugin) view() UnsupportedView {
	return UnsupportedView{
		Status:  StatusUnsupported,
		Message: fmt.Sprintf("minigame %q is not implemented on this server", p.minigameType),
	}
}
