package games

import (
	"fmt"
	"strings"
)

func (g *Game) commandPlayer(playerID string) (*Player, error) {
	p := g.State.PlayerByID(playerID)
	if p == nil {
		return nil, invalidf("You are not in this game.")
	}
	return p, nil
}

// ChooseAction validates and records the player's night action, returning
// the confirmation shown to them. The ability "nothing" skips the night.
func (g *Game) ChooseAction(playerID, abilityName string, args []string) (string, error) {
	if g.State.Status != StatusInProgress || g.State.Phase != PhaseNight {
		return "", invalidf("You can only use abilities at night.")
	}
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return "", err
	}
	if !p.CanAct() {
		return "", invalidf("You can't use abilities while dead.")
	}

	if strings.EqualFold(strings.TrimSpace(abilityName), string(AbilityNothing)) {
		p.Action = &Action{Ability: AbilityNothing}
		p.Visiting = ""
		p.Inactivity = 0
		g.emit(EventActionChosen, map[string]interface{}{"player_id": p.ID})
		return "You will do nothing tonight.", nil
	}

	ab, ok := FindAbilityByName(abilityName)
	if !ok {
		return "", invalidf("**%s** is not an ability.", abilityName)
	}
	if !p.HasAbility(ab.Name) {
		return "", invalidf("Your role doesn't have the ability **%s**.", ab.Name)
	}
	if ab.Uses == UsesNone {
		return "", invalidf("**%s** can't be used voluntarily.", ab.Name)
	}
	if !ab.UsableDuring(g.State.Phase) {
		return "", invalidf("You can't use **%s** right now.", ab.Name)
	}
	if !p.HasUsesLeft(ab) {
		return "", invalidf("You have no uses of **%s** left.", ab.Name)
	}
	if ab.LimboOnly && !p.InLimbo {
		return "", invalidf("You can only use **%s** after you have been lynched.", ab.Name)
	}
	if p.InLimbo && !ab.LimboOnly {
		return "", invalidf("You can only use your limbo ability tonight.")
	}
	if len(args) != len(ab.Args) {
		return "", invalidf("**%s** takes %d argument(s) but got %d.", ab.Name, len(ab.Args), len(args))
	}

	names := make([]string, len(args))
	visiting := ""
	for i, def := range ab.Args {
		target := g.State.Player(strings.TrimSpace(args[i]))
		if target == nil {
			return "", invalidf("There is no player named **%s**.", args[i])
		}
		if err := validateArgTarget(def, p, target); err != nil {
			return "", err
		}
		names[i] = target.Name
		if visiting == "" && def.HasSubtype(SubtypeVisiting) {
			visiting = target.Name
		}
	}

	p.Action = &Action{Ability: ab.Name, Args: names}
	p.Visiting = visiting
	p.Inactivity = 0
	g.emit(EventActionChosen, map[string]interface{}{"player_id": p.ID})
	return ab.RenderFeedback(p.Name, names, true), nil
}

// validateArgTarget checks a player argument's subtype constraints for actor.
func validateArgTarget(def Arg, actor, target *Player) error {
	if !target.Alive {
		return invalidf("**%s** is dead.", target.Name)
	}
	if def.HasSubtype(SubtypeNotSelf) && target == actor {
		return invalidf("You can't target yourself with this ability.")
	}
	if def.HasSubtype(SubtypeNonMafia) {
		if r, ok := GetRole(target.Role); ok && r.Faction == FactionMafia {
			return invalidf("You can't target **%s** because they're in the Mafia.", target.Name)
		}
	}
	if def.HasSubtype(SubtypeCertainPlayers) {
		allowed := false
		for _, name := range actor.CanUseOn {
			if name == target.Name {
				allowed = true
				break
			}
		}
		if !allowed {
			if len(actor.CanUseOn) == 0 {
				return invalidf("There is nobody you can target with this ability.")
			}
			return invalidf("You can only target %s.", listOfWords(bold(actor.CanUseOn)))
		}
	}
	return nil
}

// CastVote records a vote on who goes on trial.
func (g *Game) CastVote(playerID, target string) (string, error) {
	if g.State.Status != StatusInProgress || g.State.Subphase != SubphaseVoting {
		return "", invalidf("You can only vote for a player during the voting subphase.")
	}
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return "", err
	}
	if !p.Alive {
		return "", invalidf("You can't vote while dead.")
	}
	if p.VoteBlocked {
		return "", invalidf("You can't vote today.")
	}

	var ballot, text string
	switch t := strings.TrimSpace(target); {
	case strings.EqualFold(t, VoteAbstain):
		ballot, text = VoteAbstain, fmt.Sprintf("**%s** abstained.", p.Name)
	case strings.EqualFold(t, VoteNobody):
		ballot, text = VoteNobody, fmt.Sprintf("**%s** voted for **nobody**.", p.Name)
	default:
		v := g.State.Player(t)
		switch {
		case v == nil:
			return "", invalidf("There is no player named **%s**.", t)
		case !v.Alive:
			return "", invalidf("**%s** is dead.", v.Name)
		case v == p:
			return "", invalidf("You can't vote for yourself.")
		}
		ballot, text = v.Name, fmt.Sprintf("**%s** voted for **%s**.", p.Name, v.Name)
	}
	if g.State.Votes == nil {
		g.State.Votes = make(map[string]string)
	}
	reply := text
	if previous, ok := g.State.Votes[p.Name]; ok {
		text = msgChangedVote(p.Name, ballot)
		reply = msgReplacingVote(previous, ballot)
	}
	g.State.Votes[p.Name] = ballot
	p.Inactivity = 0
	g.announce(text)
	g.emit(EventVoteCast, map[string]interface{}{"player_id": p.ID, "vote": ballot})
	return reply, nil
}

// CastTrialVote records an anonymous guilty/innocent/abstain ballot.
func (g *Game) CastTrialVote(playerID, verdict string) (string, error) {
	if g.State.Status != StatusInProgress || g.State.Subphase != SubphaseTrial {
		return "", invalidf("You can only vote on a verdict during a trial.")
	}
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return "", err
	}
	if !p.Alive {
		return "", invalidf("You can't vote while dead.")
	}
	if p.Name == g.State.OnTrial {
		return "", invalidf("You can't vote in your own trial.")
	}
	if p.VoteBlocked {
		return "", invalidf("You can't vote today.")
	}
	ballot := strings.ToLower(strings.TrimSpace(verdict))
	switch ballot {
	case VerdictGuilty, VerdictInnocent, VoteAbstain:
	default:
		return "", invalidf("Your vote must be guilty, innocent or abstain.")
	}
	if g.State.TrialVotes == nil {
		g.State.TrialVotes = make(map[string]string)
	}
	text := fmt.Sprintf("**%s** has voted.", p.Name)
	reply := fmt.Sprintf("You voted **%s**.", titleCaser.String(ballot))
	if previous, ok := g.State.TrialVotes[p.Name]; ok {
		// Trial ballots stay anonymous, so only the change itself is announced.
		text = fmt.Sprintf("**%s** changed their vote.", p.Name)
		reply = msgReplacingVote(titleCaser.String(previous), titleCaser.String(ballot))
	}
	g.State.TrialVotes[p.Name] = ballot
	p.Inactivity = 0
	g.announce(text)
	g.emit(EventTrialVoteCast, map[string]interface{}{"player_id": p.ID})
	return reply, nil
}

// SetLastWill stores the text revealed when the player dies.
func (g *Game) SetLastWill(playerID, text string) error {
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.Alive {
		return invalidf("You can't edit your last will while dead.")
	}
	if len(text) > maxLastWillLength {
		return invalidf("Your last will must be %d characters or fewer.", maxLastWillLength)
	}
	p.LastWill = strings.TrimSpace(text)
	return nil
}

// SetDeathNote stores the note left on players this player kills.
func (g *Game) SetDeathNote(playerID, text string) error {
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.Alive {
		return invalidf("You can't edit your death note while dead.")
	}
	if len(text) > maxDeathNoteLength {
		return invalidf("Your death note must be %d characters or fewer.", maxDeathNoteLength)
	}
	p.DeathNote = strings.TrimSpace(text)
	return nil
}

// Leave removes a player during sign-ups. Mid-game it is a suicide resolved
// at the next death announcement.
func (g *Game) Leave(playerID string) error {
	p, err := g.commandPlayer(playerID)
	if err != nil {
		return err
	}
	switch g.State.Status {
	case StatusSignUp, StatusReadyToBegin:
		kept := g.State.Players[:0]
		for _, other := range g.State.Players {
			if other != p {
				kept = append(kept, other)
			}
		}
		g.State.Players = kept
		g.announce(fmt.Sprintf("**%s** left the game.", p.Name))
	case StatusInProgress:
		if !p.Alive {
			return invalidf("You are already dead.")
		}
		g.addDeath(p.Name, Kill{Killer: p.Name, KillerRole: p.Role, Flavor: msgPlayerSuicide})
		if g.State.Phase == PhaseNight && p.Action == nil {
			p.Action = &Action{Ability: AbilityNothing}
		}
	default:
		return invalidf("There is no game to leave.")
	}
	g.emit(EventPlayerLeft, map[string]interface{}{"player_id": p.ID, "name": p.Name})
	return nil
}
