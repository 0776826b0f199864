package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forbiddenDisplayKeys are the secret-bearing keys that must never reach a
// display client, at any depth of the projected document.
var forbiddenDisplayKeys = []string{"triviaPrompts", "currentTriviaPrompt", "minigameHostView"}

func collectKeys(t *testing.T, doc any, into map[string]bool) {
	t.Helper()
	switch v := doc.(type) {
	case map[string]any:
		for key, val := range v {
			into[key] = true
			collectKeys(t, val, into)
		}
	case []any:
		for _, val := range v {
			collectKeys(t, val, into)
		}
	}
}

func projectedKeys(t *testing.T, r *Room, role Role) map[string]bool {
	t.Helper()
	encoded, err := json.Marshal(r.Project(role))
	require.NoError(t, err)
	var doc any
	require.NoError(t, json.Unmarshal(encoded, &doc))
	keys := make(map[string]bool)
	collectKeys(t, doc, keys)
	return keys
}

func TestProject_DisplayNeverSeesSecrets(t *testing.T) {
	r, _ := newTestRoomWithTeams(t)

	// Walk the entire game; at every step the display projection must be
	// free of secret-bearing keys while the host sees the full state.
	for step := 0; step < 16; step++ {
		keys := projectedKeys(t, r, RoleDisplay)
		for _, forbidden := range forbiddenDisplayKeys {
			assert.NotContains(t, keys, forbidden, "phase %s leaked %q to a display", r.Project(RoleHost).Phase, forbidden)
		}
		if !r.AdvancePhase() {
			break
		}
	}
}

func TestProject_HostSeesMinigameSecrets(t *testing.T) {
	r, _ := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseMinigamePlay)

	keys := projectedKeys(t, r, RoleHost)
	assert.Contains(t, keys, "minigameHostView")
	assert.Contains(t, keys, "triviaPrompts")
	assert.Contains(t, keys, "currentTriviaPrompt")

	// The display still gets the audience-safe view of the same minigame.
	display := r.Project(RoleDisplay)
	assert.Nil(t, display.MinigameHostView)
	assert.NotNil(t, display.MinigameDisplayView)
}

func TestProject_RedactionIsRecomputedPerEmission(t *testing.T) {
	r, _ := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseMinigamePlay)

	// Alternating roles on consecutive projections must never bleed host
	// fields into the display shape.
	host := r.Project(RoleHost)
	require.NotNil(t, host.MinigameHostView)
	display := r.Project(RoleDisplay)
	assert.Nil(t, display.MinigameHostView)
	hostAgain := r.Project(RoleHost)
	assert.NotNil(t, hostAgain.MinigameHostView)
}

func TestProject_SharesNothingMutableWithLiveState(t *testing.T) {
	r, ids := newTestRoomWithTeams(t)
	advanceTo(t, r, PhaseRoundIntro)

	snap := r.Project(RoleHost)
	snap.Teams[0].TotalScore = 999
	snap.TurnOrderTeamIDs[0] = "tampered"
	snap.PendingWingPointsByTeamID["tampered"] = 1

	fresh := r.Project(RoleHost)
	assert.Equal(t, 0, fresh.Teams[0].TotalScore)
	assert.Equal(t, ids[0], fresh.TurnOrderTeamIDs[0])
	assert.NotContains(t, fresh.PendingWingPointsByTeamID, "tampered")
}

func TestResolveRole(t *testing.T) {
	assert.Equal(t, RoleHost, ResolveRole("sekrit", "sekrit"))
	assert.Equal(t, RoleDisplay, ResolveRole("wrong", "sekrit"))
	assert.Equal(t, RoleDisplay, ResolveRole("", "sekrit"))
	// No configured host token means nobody resolves to host.
	assert.Equal(t, RoleDisplay, ResolveRole("", ""))
}

func TestHostAuthority_SingleValidity(t *testing.T) {
	a := NewHostAuthority()

	// Nothing validates before the first issue, not even the empty string.
	assert.False(t, a.Validate(""))
	assert.False(t, a.Validate("anything"))

	first := a.Issue()
	assert.True(t, a.Validate(first))

	// Issuing again immediately invalidates the previous secret.
	second := a.Issue()
	assert.False(t, a.Validate(first))
	assert.True(t, a.Validate(second))
	assert.NotEqual(t, first, second)
}
