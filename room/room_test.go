package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/minigame/trivia"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop().Sugar()
	m.Run()
}

// testPack builds the standard fixture: four players, two rounds (trivia,
// then an unimplemented minigame), a three-prompt trivia bank.
func testPack() *content.Pack {
	return &content.Pack{
		Players: []content.Player{
			{ID: "p1", Name: "Ana"},
			{ID: "p2", Name: "Ben"},
			{ID: "p3", Name: "Cal"},
			{ID: "p4", Name: "Dee"},
		},
		Game: content.GameConfig{
			Rounds: []content.RoundConfig{
				{Label: "Round 1", Sauce: "Mild", PointsPerPlayer: 2, Minigame: "trivia", EatingSeconds: 120},
				{Label: "Round 2", Sauce: "Inferno", PointsPerPlayer: 3, Minigame: "karaoke", EatingSeconds: 90},
			},
			Scoring: content.ScoringConfig{DefaultPointsMax: 15, FinalRoundPointsMax: 30},
			MinigameSeconds: map[string]int{
				"trivia": 90,
			},
			Rules: map[string]content.Rules{
				"trivia": {QuestionsPerTurn: 1},
			},
		},
		Trivia: []content.TriviaPrompt{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
			{Question: "q3", Answer: "a3"},
		},
	}
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	registry := minigame.NewRegistry()
	registry.Register(trivia.New(), "Trivia")
	return New(testPack(), minigame.NewOrchestrator(registry), 60)
}

// newTestRoomWithTeams sets up two teams of two and returns their ids in
// creation order.
func newTestRoomWithTeams(t *testing.T) (*Room, []string) {
	t.Helper()
	r := newTestRoom(t)
	require.True(t, r.CreateTeam("Spice Girls"))
	require.True(t, r.CreateTeam("Cluck Norris"))
	ids := r.teamIDsForTest()
	require.True(t, r.AssignPlayer("p1", ids[0]))
	require.True(t, r.AssignPlayer("p2", ids[0]))
	require.True(t, r.AssignPlayer("p3", ids[1]))
	require.True(t, r.AssignPlayer("p4", ids[1]))
	return r, ids
}

func (r *Room) teamIDsForTest() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.teamIDs()
}

// advanceTo drives the phase machine forward until the target phase.
func advanceTo(t *testing.T, r *Room, target Phase) {
	t.Helper()
	for i := 0; i < 16; i++ {
		if r.Project(RoleHost).Phase == target {
			return
		}
		require.True(t, r.AdvancePhase(), "stuck before reaching %s", target)
	}
	t.Fatalf("never reached phase %s", target)
}

func answerAction(correct bool) minigame.ActionEnvelope {
	payload, _ := json.Marshal(map[string]bool{"correct": correct})
	return minigame.ActionEnvelope{
		MinigameID: trivia.Type,
		APIVersion: MinigameAPIVersion,
		ActionType: "answer",
		Payload:    payload,
	}
}

func TestNewRoom_StartsInSetup(t *testing.T) {
	r := newTestRoom(t)
	snap := r.Project(RoleHost)
	require.Equal(t, PhaseSetup, snap.Phase)
	require.Equal(t, 0, snap.CurrentRound)
	require.Equal(t, 2, snap.TotalRounds)
	require.Equal(t, -1, snap.RoundTurnCursor)
	require.Empty(t, snap.Teams)
	require.True(t, snap.CanAdvancePhase)
}

func TestFatalRoom_RefusesAllMutation(t *testing.T) {
	registry := minigame.NewRegistry()
	r := NewFatal("content validation failed: empty player roster", minigame.NewOrchestrator(registry))

	require.False(t, r.AdvancePhase())
	require.False(t, r.CreateTeam("Team"))
	require.False(t, r.Reset())
	require.False(t, r.FinalizeActiveRoundTurn())
	require.False(t, r.RedoScoringMutation())

	snap := r.Project(RoleDisplay)
	require.Equal(t, "content validation failed: empty player roster", snap.FatalError)
	require.False(t, snap.CanAdvancePhase)
}

func TestReset_RecreatesInitialShape(t *testing.T) {
	r, _ := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseMinigamePlay)

	require.True(t, r.Reset())
	snap := r.Project(RoleHost)
	require.Equal(t, PhaseSetup, snap.Phase)
	require.Equal(t, 0, snap.CurrentRound)
	require.Empty(t, snap.Teams)
	require.Len(t, snap.Players, 4) // roster is immutable and survives
	require.Nil(t, snap.Timer)
	require.Nil(t, snap.MinigameHostView)
}

func TestAssignPlayer_SetSemantics(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)

	// Re-assigning moves the player; they never appear on two teams.
	require.True(t, r.AssignPlayer("p1", ids[1]))
	snap := r.Project(RoleHost)
	require.NotContains(t, snap.Teams[0].MemberPlayerIDs, "p1")
	require.Contains(t, snap.Teams[1].MemberPlayerIDs, "p1")

	// Unassign via empty team id.
	require.True(t, r.AssignPlayer("p1", ""))
	snap = r.Project(RoleHost)
	for _, team := range snap.Teams {
		require.NotContains(t, team.MemberPlayerIDs, "p1")
	}

	// Unknown player and unknown team are no-ops.
	require.False(t, r.AssignPlayer("ghost", ids[0]))
	require.False(t, r.AssignPlayer("p2", "no-such-team"))
	// Assigning to the current team changes nothing.
	require.False(t, r.AssignPlayer("p2", ids[0]))
}

func TestCreateTeam_RejectsEmptyName(t *testing.T) {
	r := newTestRoom(t)
	require.False(t, r.CreateTeam(""))
	require.True(t, r.CreateTeam("The Scovilles"))
	require.Len(t, r.Project(RoleHost).Teams, 1)
}
