package room

// initRoundTurns resets the round-turn rotation at round start. A customized
// turn order survives between rounds as long as it still matches the team
// set exactly; otherwise the order rebuilds from team creation order.
func (r *Room) initRoundTurns() {
	if !isPermutationOf(r.state.TurnOrderTeamIDs, r.teamIDs()) {
		r.state.TurnOrderTeamIDs = r.teamIDs()
	}
	if len(r.state.TurnOrderTeamIDs) == 0 {
		r.state.RoundTurnCursor = -1
	} else {
		r.state.RoundTurnCursor = 0
	}
	r.state.CompletedRoundTurnTeamIDs = nil
}

// activeRoundTeamID derives the team whose round turn it is, or "".
func (r *Room) activeRoundTeamID() string {
	cursor := r.state.RoundTurnCursor
	if cursor < 0 || cursor >= len(r.state.TurnOrderTeamIDs) {
		return ""
	}
	return r.state.TurnOrderTeamIDs[cursor]
}

// FinalizeActiveRoundTurn records the active team's turn as completed and
// advances the cursor. Past the last team the cursor stays put (no
// wraparound); the round is then expected to conclude via phase advance.
func (r *Room) FinalizeActiveRoundTurn() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" {
		return false
	}
	active := r.activeRoundTeamID()
	if active == "" {
		return false
	}
	r.state.CompletedRoundTurnTeamIDs = append(r.state.CompletedRoundTurnTeamIDs, active)
	r.state.RoundTurnCursor++
	return true
}

// ReorderTurnOrder replaces the rotation. Valid only when the supplied ids
// are exactly the current team-id set; anything else is a no-op.
func (r *Room) ReorderTurnOrder(teamIDs []string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.fatalError != "" {
		return false
	}
	if !isPermutationOf(teamIDs, r.teamIDs()) {
		return false
	}
	r.state.TurnOrderTeamIDs = append([]string(nil), teamIDs...)
	return true
}

// isPermutationOf reports whether candidate is exactly the id set of want:
// no duplicates, no omissions, no extras.
func isPermutationOf(candidate, want []string) bool {
	if len(want) == 0 || len(candidate) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(want))
	for _, id := range want {
		seen[id] = true
	}
	used := make(map[string]bool, len(candidate))
	for _, id := range candidate {
		if !seen[id] || used[id] {
			return false
		}
		used[id] = true
	}
	return true
}
