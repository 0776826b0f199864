// Package trivia implements the trivia minigame runtime. Each correct
// attempt awards one point to the acting team up to the round's cap, the
// prompt cursor advances on every attempt regardless of correctness, and a
// per-turn attempts budget gates how many attempts a turn may take.
// Rotation is host-driven: the turn passes to the next team only on an
// explicit nextTurn action, never as a side effect of an attempt.
package trivia

import (
	"encoding/json"
	"fmt"

	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/minigame"
)

// Type is the registry tag for this plugin.
const Type = "trivia"

// StatusActive marks a live trivia runtime in both views.
const StatusActive = "ACTIVE"

// state is the opaque trivia runtime state. Value semantics: every reducer
// returns a fresh copy so captured snapshots never alias live state.
type state struct {
	Rotation          []string       `json:"rotation"`
	TurnIndex         int            `json:"turnIndex"`
	PromptCursor      int            `json:"promptCursor"`
	AttemptsRemaining int            `json:"attemptsRemaining"`
	QuestionsPerTurn  int            `json:"questionsPerTurn"`
	Pending           map[string]int `json:"pendingPointsByTeamId"`
}

// HostView includes the prompt bank and answers; host-only.
type HostView struct {
	Status              string                 `json:"status"`
	ActingTeamID        string                 `json:"actingTeamId,omitempty"`
	TriviaPrompts       []content.TriviaPrompt `json:"triviaPrompts"`
	CurrentTriviaPrompt *content.TriviaPrompt  `json:"currentTriviaPrompt,omitempty"`
	PromptCursor        int                    `json:"promptCursor"`
	AttemptsRemaining   int                    `json:"attemptsRemaining"`
	PendingPoints       map[string]int         `json:"pendingPointsByTeamId"`
	QuestionsPerTurn    int                    `json:"questionsPerTurn"`
}

// DisplayView is audience-safe: the current question, never the answer or
// the bank.
type DisplayView struct {
	Status            string         `json:"status"`
	ActingTeamID      string         `json:"actingTeamId,omitempty"`
	Question          string         `json:"question,omitempty"`
	PromptNumber      int            `json:"promptNumber"`
	PromptCount       int            `json:"promptCount"`
	AttemptsRemaining int            `json:"attemptsRemaining"`
	PendingPoints     map[string]int `json:"pendingPointsByTeamId"`
}

// answerPayload is the host's judgment of the acting team's attempt.
type answerPayload struct {
	Correct bool `json:"correct"`
}

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Type() string { return Type }

func (p *Plugin) Initialize(ctx minigame.InitContext) (minigame.State, error) {
	rotation := append([]string(nil), ctx.TeamIDs...)
	if ctx.Rules.ScopeToActiveTeam && ctx.ActiveRoundTeamID != "" {
		rotation = []string{ctx.ActiveRoundTeamID}
	}

	questionsPerTurn := ctx.Rules.QuestionsPerTurn
	if questionsPerTurn <= 0 {
		questionsPerTurn = 1
	}

	pending := make(map[string]int, len(ctx.TeamIDs))
	for _, id := range ctx.TeamIDs {
		pending[id] = ctx.PendingPoints[id]
	}

	return state{
		Rotation:          rotation,
		AttemptsRemaining: questionsPerTurn,
		QuestionsPerTurn:  questionsPerTurn,
		Pending:           pending,
	}, nil
}

func (p *Plugin) ReduceAction(raw minigame.State, env minigame.ActionEnvelope, pointsMax int, _ content.Rules, pack *content.Pack) (minigame.State, bool, error) {
	s, err := cast(raw)
	if err != nil {
		return raw, false, err
	}

	switch env.ActionType {
	case "answer":
		return p.reduceAnswer(s, env, pointsMax, pack)
	case "nextTurn":
		return p.reduceNextTurn(s)
	default:
		return s, false, nil
	}
}

// reduceAnswer scores one attempt. The cursor advances and the budget drops
// on every attempt, correct or not; only a correct attempt below the cap
// earns a point.
func (p *Plugin) reduceAnswer(s state, env minigame.ActionEnvelope, pointsMax int, pack *content.Pack) (minigame.State, bool, error) {
	if len(s.Rotation) == 0 || len(pack.Trivia) == 0 {
		return s, false, nil
	}
	if s.AttemptsRemaining <= 0 {
		return s, false, nil
	}
	var payload answerPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return s, false, nil
	}

	next := s.clone()
	acting := next.Rotation[next.TurnIndex]
	if payload.Correct && next.Pending[acting] < pointsMax {
		next.Pending[acting]++
	}
	next.PromptCursor = (next.PromptCursor + 1) % len(pack.Trivia)
	next.AttemptsRemaining--
	return next, true, nil
}

// reduceNextTurn rotates to the next team and refills the attempts budget.
func (p *Plugin) reduceNextTurn(s state) (minigame.State, bool, error) {
	if len(s.Rotation) == 0 {
		return s, false, nil
	}
	next := s.clone()
	next.TurnIndex = (next.TurnIndex + 1) % len(next.Rotation)
	next.AttemptsRemaining = next.QuestionsPerTurn
	return next, true, nil
}

func (p *Plugin) SyncPendingPoints(raw minigame.State, pending map[string]int) (minigame.State, error) {
	s, err := cast(raw)
	if err != nil {
		return raw, err
	}
	next := s.clone()
	for id, pts := range pending {
		next.Pending[id] = pts
	}
	return next, nil
}

func (p *Plugin) SyncContent(raw minigame.State, pack *content.Pack) (minigame.State, error) {
	s, err := cast(raw)
	if err != nil {
		return raw, err
	}
	next := s.clone()
	if len(pack.Trivia) == 0 {
		next.PromptCursor = 0
	} else {
		next.PromptCursor %= len(pack.Trivia)
	}
	return next, nil
}

func (p *Plugin) SelectHostView(raw minigame.State, _ content.Rules, pack *content.Pack) (any, error) {
	s, err := cast(raw)
	if err != nil {
		return nil, err
	}
	view := HostView{
		Status:            StatusActive,
		ActingTeamID:      p.ActiveTurnTeam(s),
		TriviaPrompts:     pack.Trivia,
		PromptCursor:      s.PromptCursor,
		AttemptsRemaining: s.AttemptsRemaining,
		PendingPoints:     s.Pending,
		QuestionsPerTurn:  s.QuestionsPerTurn,
	}
	if s.PromptCursor < len(pack.Trivia) {
		prompt := pack.Trivia[s.PromptCursor]
		view.CurrentTriviaPrompt = &prompt
	}
	return view, nil
}

func (p *Plugin) SelectDisplayView(raw minigame.State, _ content.Rules, pack *content.Pack) (any, error) {
	s, err := cast(raw)
	if err != nil {
		return nil, err
	}
	view := DisplayView{
		Status:            StatusActive,
		ActingTeamID:      p.ActiveTurnTeam(s),
		PromptNumber:      s.PromptCursor + 1,
		PromptCount:       len(pack.Trivia),
		AttemptsRemaining: s.AttemptsRemaining,
		PendingPoints:     s.Pending,
	}
	if s.PromptCursor < len(pack.Trivia) {
		view.Question = pack.Trivia[s.PromptCursor].Question
	}
	return view, nil
}

func (p *Plugin) ActiveTurnTeam(raw minigame.State) string {
	s, err := cast(raw)
	if err != nil || len(s.Rotation) == 0 {
		return ""
	}
	return s.Rotation[s.TurnIndex]
}

func (p *Plugin) PendingPoints(raw minigame.State) map[string]int {
	s, err := cast(raw)
	if err != nil {
		return nil
	}
	out := make(map[string]int, len(s.Pending))
	for id, pts := range s.Pending {
		out[id] = pts
	}
	return out
}

func (p *Plugin) CaptureSnapshot(raw minigame.State) (json.RawMessage, error) {
	s, err := cast(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func (p *Plugin) RestoreSnapshot(raw json.RawMessage) (minigame.State, error) {
	var s state
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Pending == nil {
		s.Pending = make(map[string]int)
	}
	return s, nil
}

func (s state) clone() state {
	next := s
	next.Rotation = append([]string(nil), s.Rotation...)
	next.Pending = make(map[string]int, len(s.Pending))
	for id, pts := range s.Pending {
		next.Pending[id] = pts
	}
	return next
}

func cast(raw minigame.State) (state, error) {
	s, ok := raw.(state)
	if !ok {
		return state{}, fmt.Errorf("trivia: unexpected runtime state %T", raw)
	}
	return s, nil
}
