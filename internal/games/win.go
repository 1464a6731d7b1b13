package games

// winNobody is credited when everyone is dead.
const winNobody = "Nobody"

// checkWin evaluates every goal class against the living players and ends
// the game when one is satisfied. It reports whether the game ended.
func (g *Game) checkWin() bool {
	factions, winners, ok := g.evaluateWin()
	if !ok {
		return false
	}
	g.endGame(factions, winners)
	return true
}

func (g *Game) evaluateWin() ([]string, []string, bool) {
	living := g.State.LivingPlayers()
	if len(living) == 0 {
		f, w := g.creditWinners(winNobody, nil)
		return f, w, true
	}

	roles := make(map[*Player]*Role, len(living))
	for _, p := range living {
		r, ok := GetRole(p.Role)
		if !ok {
			return nil, nil, false
		}
		roles[p] = r
	}

	// Factions and solo killers that win by elimination, in the order they
	// have living members.
	checked := make(map[string]bool)
	for _, p := range living {
		r := roles[p]
		if r.Goal != GoalEliminateOtherFactions && r.Goal != GoalSurviveEliminateOtherFactions {
			continue
		}
		wf := r.WinFaction()
		if checked[wf] {
			continue
		}
		checked[wf] = true
		if g.onlyAllowed(living, roles, wf) {
			f, w := g.creditWinners(wf, roles)
			return f, w, true
		}
	}

	// Nobody left who blocks anyone else: survivors and witches take it.
	for _, p := range living {
		if !roles[p].IsPassiveNeutral() {
			return nil, nil, false
		}
	}
	f, w := g.creditWinners("", roles)
	if len(f) == 0 {
		f = []string{winNobody}
	}
	return f, w, true
}

// onlyAllowed reports whether every living player either belongs to wf or
// never stands in anyone's way.
func (g *Game) onlyAllowed(living []*Player, roles map[*Player]*Role, wf string) bool {
	for _, p := range living {
		r := roles[p]
		if r.WinFaction() != wf && !r.IsPassiveNeutral() {
			return false
		}
	}
	return true
}

// creditWinners lists the winning factions and players. winner is the
// elimination winner, if any.
func (g *Game) creditWinners(winner string, living map[*Player]*Role) ([]string, []string) {
	var factions, players []string
	addFaction := func(f string) {
		for _, have := range factions {
			if have == f {
				return
			}
		}
		factions = append(factions, f)
	}
	if winner != "" {
		addFaction(winner)
	}
	for _, p := range g.State.Players {
		r, ok := GetRole(p.Role)
		if !ok {
			continue
		}
		_, alive := living[p]
		won := false
		switch {
		case winner != "" && winner != winNobody && r.WinFaction() == winner:
			won = r.Goal == GoalEliminateOtherFactions || alive
		case alive && r.Goal == GoalSurvive:
			won = true
		case alive && r.Goal == GoalSurviveTownLose:
			won = winner != string(FactionTown)
		}
		if p.HasWon {
			won = true
		}
		if won {
			players = append(players, p.Name)
			addFaction(r.WinFaction())
		}
	}
	return factions, players
}
