package games

import "errors"

// apply runs a single effect of a dequeued action.
func (r *resolver) apply(effect EffectName, item *queuedAction) error {
	actor := item.actor
	switch effect {
	case EffectAttack:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		return r.attack(actor, target, item.ability)
	case EffectHeal, EffectSmith:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		r.protect(actor, target, item.ability)
		if effect == EffectSmith {
			actor.AddFeedback(fbSmithedVest(target.Name))
		}
		return nil
	case EffectSelfHeal, EffectSelfSmith:
		r.protect(actor, actor, item.ability)
		return nil
	case EffectRoleblock:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		return r.roleblock(actor, target, item.ability)
	case EffectCautious:
		return nil
	case EffectFrame:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		r.frame(actor, target, item.ability)
		return nil
	case EffectSelfFrame:
		r.frame(actor, actor, item.ability)
		return nil
	case EffectFrameTarget:
		if target := r.g.State.Player(actor.ExeTarget); target != nil {
			r.frame(actor, target, item.ability)
		}
		return nil
	case EffectEvaluate, EffectInvestigate, EffectTrack, EffectLookout, EffectObserve:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		return r.investigate(effect, actor, target, item.ability)
	case EffectControl:
		return r.control(item)
	case EffectKidnap:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		return r.kidnap(actor, target, item.ability)
	case EffectReplace:
		target, err := r.target(item, 0)
		if err != nil {
			return err
		}
		return r.replacePlayer(actor, target, item.ability)
	case EffectSuicide:
		r.g.commitSuicide(actor)
		return nil
	default:
		return integrityf("no handler for effect %q", effect)
	}
}

func (r *resolver) target(item *queuedAction, i int) (*Player, error) {
	if len(item.args) <= i {
		return nil, integrityf("%s used by %s is missing argument %d", item.ability.Name, item.actor.Name, i)
	}
	p := r.g.State.Player(item.args[i])
	if p == nil {
		return nil, integrityf("%s used by %s targets unknown player %q", item.ability.Name, item.actor.Name, item.args[i])
	}
	return p, nil
}

// strike resolves attacker's current attack level against target's defense.
// A kill is recorded as a pending death; a failed attack credits the
// target's protectors.
func (r *resolver) strike(attacker, target *Player, ability *Ability) bool {
	if target.Defense < attacker.Attack {
		r.g.addDeath(target.Name, Kill{Killer: attacker.Name, KillerRole: attacker.Role, Ability: ability.Name})
		return true
	}
	r.creditProtectors(target)
	return false
}

func (r *resolver) creditProtectors(target *Player) {
	for _, a := range target.AffectedBy {
		ab, ok := GetAbility(a.Ability)
		if !ok || ab.Type != AbilityTypeProtection || a.By == target.Name {
			continue
		}
		protector := r.g.State.Player(a.By)
		if protector == nil {
			continue
		}
		protector.AddFeedback(fbProtectedAttacked)
		if a.Ability == AbilitySmith {
			protector.AddFeedback(fbDidSuccessfulSmith)
			protector.HasWon = true
		}
	}
}

func (r *resolver) attack(actor, target *Player, ability *Ability) error {
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
	if !r.strike(actor, target, ability) {
		actor.AddFeedback(fbAttackFailed(target.Name))
		target.AddFeedback(fbAttackedButSurvived)
		return nil
	}
	actor.AddFeedback(fbKilledPlayer(target.Name))
	target.AddFeedback(fbKilledByAttack)

	targetRole, err := MustRole(target.Role)
	if err != nil {
		return err
	}
	if actor.Role == RoleVigilante && targetRole.Faction == FactionTown {
		actor.AddAffectedBy(AbilitySuicide, actor.Name, r.during)
		actor.AddFeedback(fbCommittingSuicide)
	}
	return nil
}

func (r *resolver) protect(actor, target *Player, ability *Ability) {
	target.GiveDefense(defenseFloor(ability.Name))
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
}

// defenseFloor is the defense level an ability guarantees while active.
func defenseFloor(name AbilityName) int {
	switch name {
	case AbilityHeal, AbilityHealSelf, AbilitySelfVest:
		return 2
	case AbilitySmith, AbilitySelfSmith:
		return 1
	case AbilityKidnap:
		return 4
	}
	return 0
}

func (r *resolver) roleblock(actor, target *Player, ability *Ability) error {
	role, err := MustRole(target.Role)
	if err != nil {
		return err
	}
	actor.AddFeedback(fbRoleblockedPlayer(target.Name))
	target.AddAffectedBy(ability.Name, actor.Name, r.during)

	if !role.HasImmunity(ImmunityRoleblock) {
		target.Roleblocked = true
		target.AddFeedback(fbWasRoleblocked)
		return nil
	}
	target.AddFeedback(fbWasRoleblockedImmune)
	if !target.HasAbility(AbilityKnife) {
		return nil
	}
	if target.Action != nil && target.Action.Ability == AbilityCautious {
		target.AddFeedback(fbDidCautious)
		return nil
	}
	knife, err := MustAbility(AbilityKnife)
	if err != nil {
		return err
	}
	if !r.replace(target, knife, []string{actor.Name}) {
		return nil
	}
	target.Visiting = actor.Name
	target.AddFeedback(fbAttackedRoleblocker)
	return nil
}

func (r *resolver) frame(actor, target *Player, ability *Ability) {
	target.Frame()
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
}

// clearManipulation removes every active manipulation on p.
func clearManipulation(p *Player) {
	kept := p.AffectedBy[:0]
	for _, a := range p.AffectedBy {
		if ab, ok := GetAbility(a.Ability); ok && ab.Type == AbilityTypeManipulation {
			continue
		}
		kept = append(kept, a)
	}
	p.AffectedBy = kept
	p.ResetPerceived()
}

func isSuspicious(r *Role) bool {
	return r.Faction == FactionMafia || (r.Faction == FactionNeutral && r.Alignment == AlignmentKilling)
}

func (r *resolver) investigate(effect EffectName, actor, target *Player, ability *Ability) error {
	apparent, err := MustRole(target.ApparentRole())
	if err != nil {
		return err
	}
	switch effect {
	case EffectEvaluate:
		if isSuspicious(apparent) {
			actor.AddFeedback(fbSuspicious(target.Name))
		} else {
			actor.AddFeedback(fbInnocent(target.Name))
		}
	case EffectInvestigate:
		actor.AddFeedback(fbInvestigatedRole(target.Name, apparent.Name))
	case EffectTrack:
		visit := target.ApparentVisit()
		if visit == target.Name {
			visit = ""
		}
		actor.AddFeedback(fbTrackerSaw(target.Name, visit))
	case EffectLookout:
		var visitors []string
		for _, p := range r.g.State.Players {
			if p == target || p == actor {
				continue
			}
			if p.ApparentVisit() == target.Name {
				visitors = append(visitors, p.Name)
			}
		}
		actor.AddFeedback(fbLookoutSaw(target.Name, visitors))
	case EffectObserve:
		if err := r.observe(actor, target, apparent); err != nil {
			return err
		}
	}
	clearManipulation(target)
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
	return nil
}

func (r *resolver) observe(actor, target *Player, apparent *Role) error {
	defer func() { actor.LastObserved = target.Name }()
	previous := r.g.State.Player(actor.LastObserved)
	switch {
	case previous == nil:
		actor.AddFeedback(fbObservedFirst(target.Name))
	case previous == target:
		actor.AddFeedback(fbObservedSame(target.Name))
	default:
		prevRole, err := MustRole(previous.ApparentRole())
		if err != nil {
			return err
		}
		actor.AddFeedback(fbObservedTogether(target.Name, previous.Name, prevRole.Faction == apparent.Faction))
		clearManipulation(previous)
		previous.AddAffectedBy(AbilityObserve, actor.Name, r.during)
	}
	return nil
}

// control forces the target to use their first ability on a second player.
// An uncontrollable target is a RuleViolation that only produces feedback.
func (r *resolver) control(item *queuedAction) error {
	actor := item.actor
	target, err := r.target(item, 0)
	if err != nil {
		return err
	}
	into, err := r.target(item, 1)
	if err != nil {
		return err
	}
	if r.acted[target.Name] {
		actor.AddFeedback(fbControlFailed(target.Name))
		return nil
	}
	forced, err := r.controllable(target, into)
	if err != nil {
		var rv *RuleViolation
		if errors.As(err, &rv) {
			actor.AddFeedback(fbControlFailed(target.Name))
			return nil
		}
		return err
	}

	var args []string
	if len(forced.Args) == 1 {
		args = []string{into.Name}
		if forced.Args[0].HasSubtype(SubtypeVisiting) {
			target.Visiting = into.Name
		}
	}
	r.replace(target, forced, args)
	target.AddAffectedBy(item.ability.Name, actor.Name, r.during)
	target.AddFeedback(fbControlled)
	actor.AddFeedback(fbControlSucceeded(target.Name, into.Name))
	actor.AddFeedback(fbInvestigatedRole(target.Name, target.ApparentRole()))
	return nil
}

func (r *resolver) controllable(target, into *Player) (*Ability, error) {
	role, err := MustRole(target.Role)
	if err != nil {
		return nil, err
	}
	if role.HasImmunity(ImmunityControl) {
		return nil, &RuleViolation{Message: target.Name + " is immune to control"}
	}
	if len(role.Abilities) == 0 {
		return nil, &RuleViolation{Message: target.Name + " has no ability to control"}
	}
	forced, err := MustAbility(role.Abilities[0])
	if err != nil {
		return nil, err
	}
	if !target.HasUsesLeft(forced) {
		return nil, &RuleViolation{Message: target.Name + " has no uses of " + string(forced.Name) + " left"}
	}
	if forced.LimboOnly && !target.InLimbo {
		return nil, &RuleViolation{Message: string(forced.Name) + " can only be used from limbo"}
	}
	playerArgs := 0
	for _, a := range forced.Args {
		if a.Type != ArgTypePlayer {
			return nil, &RuleViolation{Message: string(forced.Name) + " takes a non-player argument"}
		}
		playerArgs++
	}
	if playerArgs > 1 {
		return nil, &RuleViolation{Message: string(forced.Name) + " takes more than one player"}
	}
	if playerArgs == 1 {
		if err := validateArgTarget(forced.Args[0], target, into); err != nil {
			return nil, &RuleViolation{Message: err.Error()}
		}
	}
	return forced, nil
}

func (r *resolver) kidnap(actor, target *Player, ability *Ability) error {
	role, err := MustRole(target.Role)
	if err != nil {
		return err
	}
	target.GiveDefense(defenseFloor(ability.Name))
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
	if role.HasImmunity(ImmunityRoleblock) {
		target.AddFeedback(fbRoleblockedByKidnapperImmune)
	} else {
		target.Roleblocked = true
		target.AddFeedback(fbRoleblockedByKidnapper)
	}
	target.Muted = true
	target.VoteBlocked = true
	target.AddFeedback(fbKidnapped)

	retaliated := target.Attack > 0
	if retaliated {
		target.AddFeedback(fbAttackedKidnapper)
		if r.strike(target, actor, ability) {
			actor.AddFeedback(fbKilledByAttack)
		} else {
			actor.AddFeedback(fbAttackedButSurvived)
		}
	}
	actor.AddFeedback(fbKidnappedPlayer(target.Name, retaliated))
	return nil
}

func (r *resolver) replacePlayer(actor, target *Player, ability *Ability) error {
	target.AddAffectedBy(ability.Name, actor.Name, r.during)
	if !r.strike(actor, target, ability) {
		actor.AddFeedback(fbReplaceFailed(target.Name))
		target.AddFeedback(fbAttackedButSurvived)
		return nil
	}
	target.Unidentifiable = true
	target.AddFeedback(fbReplacedByReplacer)
	actor.AddFeedback(fbReplacedPlayer(target.Name, target.Role))
	return r.g.convertPlayer(actor, target.Role, target.ExeTarget)
}
