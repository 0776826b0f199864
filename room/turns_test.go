package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundStart_TurnOrderDefaultsToCreationOrder(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	snap := r.Project(RoleHost)
	assert.Equal(t, ids, snap.TurnOrderTeamIDs)
	assert.Equal(t, 0, snap.RoundTurnCursor)
	assert.Equal(t, ids[0], snap.ActiveRoundTeamID)
	assert.Empty(t, snap.CompletedRoundTurnTeamIDs)
}

func TestRoundStart_NoTeamsMeansNoCursor(t *testing.T) {
	r := newTestRoom(t)
	advanceTo(t, r, PhaseRoundIntro)

	snap := r.Project(RoleHost)
	assert.Equal(t, -1, snap.RoundTurnCursor)
	assert.Empty(t, snap.ActiveRoundTeamID)
	assert.False(t, r.FinalizeActiveRoundTurn())
}

func TestFinalizeActiveRoundTurn_AppendOnlyNoWraparound(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	require.True(t, r.FinalizeActiveRoundTurn())
	snap := r.Project(RoleHost)
	assert.Equal(t, []string{ids[0]}, snap.CompletedRoundTurnTeamIDs)
	assert.Equal(t, ids[1], snap.ActiveRoundTeamID)

	require.True(t, r.FinalizeActiveRoundTurn())
	snap = r.Project(RoleHost)
	assert.Equal(t, []string{ids[0], ids[1]}, snap.CompletedRoundTurnTeamIDs)
	assert.Empty(t, snap.ActiveRoundTeamID)

	// Past the last team the operation is a no-op; completed never exceeds
	// team count.
	assert.False(t, r.FinalizeActiveRoundTurn())
	assert.Len(t, r.Project(RoleHost).CompletedRoundTurnTeamIDs, 2)
}

func TestReorderTurnOrder_AcceptsExactPermutationOnly(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	reversed := []string{ids[1], ids[0]}
	require.True(t, r.ReorderTurnOrder(reversed))
	snap := r.Project(RoleHost)
	assert.Equal(t, reversed, snap.TurnOrderTeamIDs)
	assert.Equal(t, ids[1], snap.ActiveRoundTeamID)

	rejected := [][]string{
		{ids[0]},                     // omission
		{ids[0], ids[0]},             // duplicate
		{ids[0], ids[1], "intruder"}, // extra
		{ids[0], "intruder"},         // substitution
		nil,                          // empty
	}
	for _, bad := range rejected {
		assert.False(t, r.ReorderTurnOrder(bad))
		assert.Equal(t, reversed, r.Project(RoleHost).TurnOrderTeamIDs, "order must be untouched after rejected reorder")
	}
}

func TestReorderTurnOrder_CustomOrderSurvivesNextRound(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	reversed := []string{ids[1], ids[0]}
	require.True(t, r.ReorderTurnOrder(reversed))

	advanceTo(t, r, PhaseRoundResults)
	advanceTo(t, r, PhaseRoundIntro)
	snap := r.Project(RoleHost)
	assert.Equal(t, reversed, snap.TurnOrderTeamIDs)
	assert.Equal(t, 0, snap.RoundTurnCursor)
	assert.Empty(t, snap.CompletedRoundTurnTeamIDs)
}

func TestRoundStart_RebuildsOrderWhenTeamSetChanged(t *testing.T) {
	r, _ := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	// A team created mid-round invalidates the old rotation at next round
	// start.
	require.True(t, r.CreateTeam("Late Arrivals"))
	advanceTo(t, r, PhaseRoundResults)
	advanceTo(t, r, PhaseRoundIntro)

	snap := r.Project(RoleHost)
	assert.Equal(t, r.teamIDsForTest(), snap.TurnOrderTeamIDs)
	assert.Len(t, snap.TurnOrderTeamIDs, 3)
}
