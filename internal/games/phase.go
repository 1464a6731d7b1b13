package games

import "log"

func (s *GameState) toSignUp() {
	s.Status, s.Phase, s.Subphase, s.DaysPassed = StatusSignUp, PhaseNone, SubphaseNone, 0
}

func (s *GameState) toReadyToBegin() {
	s.Status, s.Phase, s.Subphase, s.DaysPassed = StatusReadyToBegin, PhaseNone, SubphaseNone, 0
}

func (s *GameState) toInProgress() {
	s.Status = StatusInProgress
}

func (s *GameState) toEnded() {
	s.Status, s.Phase, s.Subphase = StatusEnded, PhaseNone, SubphaseNone
}

// toFirstDay starts day 1, which has no announcements, votes or trial.
func (s *GameState) toFirstDay() {
	s.Phase, s.Subphase = PhaseDay, SubphaseNone
	s.DaysPassed += 0.5
}

func (s *GameState) toDay() {
	s.Phase, s.Subphase = PhaseDay, SubphaseAnnouncements
	s.DaysPassed += 0.5
}

func (s *GameState) toVoting() {
	s.Subphase = SubphaseVoting
}

func (s *GameState) toTrial() {
	s.Subphase = SubphaseTrial
}

func (s *GameState) toTrialResults() {
	s.Subphase = SubphaseTrialResults
}

func (s *GameState) toNight() {
	s.Phase, s.Subphase = PhaseNight, SubphaseNone
	s.DaysPassed += 0.5
}

// AdvanceToNextSubphase moves one step through the day without side effects.
func (s *GameState) AdvanceToNextSubphase() {
	switch s.Subphase {
	case SubphaseAnnouncements:
		s.toVoting()
	case SubphaseVoting:
		s.toTrial()
	case SubphaseTrial:
		s.toTrialResults()
	case SubphaseTrialResults, SubphaseNone:
		if s.Phase == PhaseDay {
			s.toNight()
		} else if s.Phase == PhaseNight {
			s.toDay()
		}
	}
}

// guard reports whether the game is still at cp. Every timer-driven
// transition checks it so duplicate or late triggers do nothing.
func (g *Game) guard(cp Checkpoint, name string) bool {
	if g.State.Checkpoint() == cp {
		return true
	}
	log.Printf("stale phase trigger ignored: game_id=%s transition=%s expected_days=%.1f days_passed=%.1f",
		g.State.GameID, name, cp.DaysPassed, g.State.DaysPassed)
	return false
}

// Advance runs the transition that ends the phase at cp. It is the single
// entry point for both the phase timer and the early advance, and is a no-op
// when the game has already moved past cp.
func (g *Game) Advance(cp Checkpoint) error {
	if !g.guard(cp, "advance") {
		return nil
	}
	switch {
	case cp.Status == StatusSignUp:
		return g.CloseSignUps(cp)
	case cp.Status != StatusInProgress:
		return nil
	case cp.Phase == PhaseNight:
		return g.StartDay(cp)
	case cp.Phase == PhaseDay && cp.Subphase == SubphaseNone:
		return g.StartNight(cp)
	case cp.Subphase == SubphaseAnnouncements:
		return g.StartVoting(cp)
	case cp.Subphase == SubphaseVoting:
		return g.StartTrial(cp)
	case cp.Subphase == SubphaseTrial:
		return g.StartTrialResults(cp)
	case cp.Subphase == SubphaseTrialResults:
		return g.StartNight(cp)
	}
	return nil
}

// EarlyAdvanceDue reports whether every eligible player has acted in the
// current phase, returning the checkpoint to advance from.
func (g *Game) EarlyAdvanceDue() (Checkpoint, bool) {
	cp := g.State.Checkpoint()
	if cp.Status != StatusInProgress {
		return cp, false
	}
	switch {
	case cp.Phase == PhaseNight:
		acted := 0
		for _, p := range g.State.Players {
			if !p.CanAct() {
				continue
			}
			if p.Action == nil {
				return cp, false
			}
			acted++
		}
		return cp, acted > 0
	case cp.Subphase == SubphaseVoting:
		return cp, g.votingSettled()
	case cp.Subphase == SubphaseTrial:
		return cp, g.trialSettled()
	}
	return cp, false
}

func (g *Game) logPhase() {
	log.Printf("phase: game_id=%s status=%s phase=%s subphase=%s days_passed=%.1f",
		g.State.GameID, g.State.Status, g.State.Phase, g.State.Subphase, g.State.DaysPassed)
}
