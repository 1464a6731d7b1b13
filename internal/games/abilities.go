package games

import (
	"fmt"
	"strings"
)

// AbilityName identifies an ability in the catalog.
type AbilityName string

const (
	AbilityHeal        AbilityName = "Heal"
	AbilityHealSelf    AbilityName = "Heal Self"
	AbilityEvaluate    AbilityName = "Evaluate"
	AbilityTrack       AbilityName = "Track"
	AbilityLookout     AbilityName = "Lookout"
	AbilityObserve     AbilityName = "Observe"
	AbilityInvestigate AbilityName = "Investigate"
	AbilityRoleblock   AbilityName = "Roleblock"
	AbilityConsort     AbilityName = "Consort"
	AbilityShoot       AbilityName = "Shoot"
	AbilityMurder      AbilityName = "Murder"
	AbilityFrame       AbilityName = "Frame"
	AbilitySelfFrame   AbilityName = "Self Frame"
	AbilityDeathCurse  AbilityName = "Death Curse"
	AbilityFrameTarget AbilityName = "Frame Target"
	AbilitySelfVest    AbilityName = "Self Vest"
	AbilityKnife       AbilityName = "Knife"
	AbilityCautious    AbilityName = "Cautious"
	AbilitySmith       AbilityName = "Smith"
	AbilitySelfSmith   AbilityName = "Self Smith"
	AbilitySuicide     AbilityName = "Suicide"
	AbilityControl     AbilityName = "Control"
	AbilityReplace     AbilityName = "Replace"
	AbilityKidnap      AbilityName = "Kidnap"
)

// AbilityNothing is the pseudo-ability a player picks to skip the night.
const AbilityNothing AbilityName = "Nothing"

// AbilityType groups abilities by how their effect is reversed on expiry.
type AbilityType string

const (
	AbilityTypeAttacking     AbilityType = "Attacking"
	AbilityTypeProtection    AbilityType = "Protection"
	AbilityTypeInvestigative AbilityType = "Investigative"
	AbilityTypeRoleblock     AbilityType = "Roleblock"
	AbilityTypeManipulation  AbilityType = "Manipulation"
	AbilityTypeControl       AbilityType = "Control"
	AbilityTypeModifier      AbilityType = "Modifier"
	AbilityTypeSuicide       AbilityType = "Suicide"
)

// Resolution priorities. Lower values resolve first.
const (
	PriorityModifier      = 1
	PriorityRoleblock     = 2
	PriorityControl       = 2
	PriorityProtection    = 3
	PriorityAttacking     = 4
	PrioritySuicide       = 4
	PriorityManipulation  = 5
	PriorityInvestigative = 6
)

// Effect durations in days_passed units.
const (
	DurationOneNight    = 0.5
	DurationDayAndNight = 1.0
	DurationIndefinite  = -1.0
)

// UseCount is the number of times an ability may be used in a game.
type UseCount int

const (
	UsesUnlimited UseCount = -1
	UsesNone      UseCount = 0
)

// EffectName identifies an effect handler.
type EffectName string

const (
	EffectAttack      EffectName = "Attack"
	EffectHeal        EffectName = "Heal"
	EffectSelfHeal    EffectName = "Self Heal"
	EffectSmith       EffectName = "Smith"
	EffectSelfSmith   EffectName = "Self Smith"
	EffectRoleblock   EffectName = "Roleblock"
	EffectCautious    EffectName = "Cautious"
	EffectFrame       EffectName = "Frame"
	EffectSelfFrame   EffectName = "Self Frame"
	EffectFrameTarget EffectName = "Frame Target"
	EffectEvaluate    EffectName = "Evaluate"
	EffectInvestigate EffectName = "Investigate"
	EffectTrack       EffectName = "Track"
	EffectLookout     EffectName = "Lookout"
	EffectObserve     EffectName = "Observe"
	EffectControl     EffectName = "Control"
	EffectKidnap      EffectName = "Kidnap"
	EffectReplace     EffectName = "Replace"
	EffectSuicide     EffectName = "Suicide"
)

// ArgType is the value type of an ability argument.
type ArgType string

const ArgTypePlayer ArgType = "player"

// ArgSubtype is a constraint on an argument value.
type ArgSubtype string

const (
	// SubtypeVisiting marks the argument whose value becomes the actor's visiting target.
	SubtypeVisiting ArgSubtype = "visiting"
	SubtypeNotSelf  ArgSubtype = "not_self"
	SubtypeNonMafia ArgSubtype = "non_mafia"
	// SubtypeCertainPlayers restricts values to the actor's CanUseOn set.
	SubtypeCertainPlayers ArgSubtype = "certain_players"
)

// Arg is a typed ability argument.
type Arg struct {
	Name        string
	Type        ArgType
	Subtypes    []ArgSubtype
	Description string
}

// HasSubtype reports whether the argument carries the given constraint.
func (a Arg) HasSubtype(s ArgSubtype) bool {
	for _, st := range a.Subtypes {
		if st == s {
			return true
		}
	}
	return false
}

// Ability is an immutable catalog entry.
type Ability struct {
	Name     AbilityName
	Type     AbilityType
	Priority int
	Uses     UseCount
	Duration float64
	Phases   []Phase
	// LimboOnly abilities may only be used by a player in limbo.
	LimboOnly   bool
	Args        []Arg
	Effects     []EffectName
	Description string
	// Feedback uses {actor}, {target}, {into} and {self} placeholders.
	Feedback string
}

// CommandName is the kebab-case name used in the /use command.
func (a *Ability) CommandName() string {
	return strings.ReplaceAll(strings.ToLower(string(a.Name)), " ", "-")
}

// UsesText renders the use-count policy.
func (a *Ability) UsesText() string {
	switch {
	case a.Uses == UsesUnlimited:
		return "Unlimited Uses"
	case a.Uses == UsesNone:
		return "Can't be used voluntarily"
	case a.Uses == 1:
		return "1 Use"
	default:
		return fmt.Sprintf("%d Uses", a.Uses)
	}
}

// DisplayText renders the ability entry shown on role cards.
func (a *Ability) DisplayText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n**%s** - `%s`\n", a.Name, a.UsesText())
	if a.Uses != UsesNone {
		fmt.Fprintf(&b, "Command: `/use %s`\n", a.CommandName())
	}
	fmt.Fprintf(&b, "> %s\n", a.Description)
	return b.String()
}

// UsableDuring reports whether the ability may be chosen in phase.
func (a *Ability) UsableDuring(phase Phase) bool {
	for _, p := range a.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// RenderFeedback fills the feedback template. With asActor the sentence is
// addressed to the actor; otherwise it names them in the third person.
func (a *Ability) RenderFeedback(actor string, args []string, asActor bool) string {
	actorText, selfText := "**You**", "yourself"
	if !asActor {
		actorText, selfText = "**"+actor+"**", "themself"
	}
	target, into := "", ""
	if len(args) > 0 {
		target = args[0]
	}
	if len(args) > 1 {
		into = args[1]
	}
	return strings.NewReplacer(
		"{actor}", actorText,
		"{self}", selfText,
		"{target}", "**"+target+"**",
		"{into}", "**"+into+"**",
	).Replace(a.Feedback)
}

var nightOnly = []Phase{PhaseNight}

func visitArg(name, desc string, extra ...ArgSubtype) []Arg {
	return []Arg{{
		Name:        name,
		Type:        ArgTypePlayer,
		Subtypes:    append([]ArgSubtype{SubtypeVisiting}, extra...),
		Description: desc,
	}}
}

var abilityCatalog = map[AbilityName]*Ability{
	AbilityHeal: {
		Name: AbilityHeal, Type: AbilityTypeProtection, Priority: PriorityProtection,
		Uses: UsesUnlimited, Duration: DurationDayAndNight, Phases: nightOnly,
		Args:        visitArg("player_healing", "The player you're healing", SubtypeNotSelf),
		Effects:     []EffectName{EffectHeal},
		Description: "Heal a player you choose, giving them a defense level of 2 for the night.",
		Feedback:    "{actor} will attempt to heal {target} tonight.",
	},
	AbilityHealSelf: {
		Name: AbilityHealSelf, Type: AbilityTypeProtection, Priority: PriorityProtection,
		Uses: 1, Duration: DurationDayAndNight, Phases: nightOnly,
		Effects:     []EffectName{EffectSelfHeal},
		Description: "Heal yourself, giving you a defense level of 2 for the night.",
		Feedback:    "{actor} will attempt to heal {self} tonight.",
	},
	AbilityEvaluate: {
		Name: AbilityEvaluate, Type: AbilityTypeInvestigative, Priority: PriorityInvestigative,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_evaluating", "The player you're evaluating", SubtypeNotSelf),
		Effects:     []EffectName{EffectEvaluate},
		Description: "Evaluate a player to learn whether they seem suspicious or innocent.",
		Feedback:    "{actor} will attempt to evaluate {target} tonight.",
	},
	AbilityTrack: {
		Name: AbilityTrack, Type: AbilityTypeInvestigative, Priority: PriorityInvestigative,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_tracking", "The player you're tracking", SubtypeNotSelf),
		Effects:     []EffectName{EffectTrack},
		Description: "Track a player to see who they visit tonight.",
		Feedback:    "{actor} will attempt to track {target} tonight.",
	},
	AbilityLookout: {
		Name: AbilityLookout, Type: AbilityTypeInvestigative, Priority: PriorityInvestigative,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_watching", "The player you're watching", SubtypeNotSelf),
		Effects:     []EffectName{EffectLookout},
		Description: "Watch a player's house to see who visits them tonight.",
		Feedback:    "{actor} will attempt to watch {target}'s house tonight.",
	},
	AbilityObserve: {
		Name: AbilityObserve, Type: AbilityTypeInvestigative, Priority: PriorityInvestigative,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_observing", "The player you're observing", SubtypeNotSelf),
		Effects:     []EffectName{EffectObserve},
		Description: "Observe a player to learn whether they share a faction with the last player you observed.",
		Feedback:    "{actor} will attempt to observe {target} tonight.",
	},
	AbilityInvestigate: {
		Name: AbilityInvestigate, Type: AbilityTypeInvestigative, Priority: PriorityInvestigative,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_investigating", "The player you're investigating", SubtypeNonMafia),
		Effects:     []EffectName{EffectInvestigate},
		Description: "Investigate a player to learn their exact role.",
		Feedback:    "{actor} will attempt to investigate {target} tonight.",
	},
	AbilityRoleblock: {
		Name: AbilityRoleblock, Type: AbilityTypeRoleblock, Priority: PriorityRoleblock,
		Uses: UsesUnlimited, Duration: DurationDayAndNight, Phases: nightOnly,
		Args:        visitArg("player_roleblocking", "The player you're roleblocking", SubtypeNotSelf),
		Effects:     []EffectName{EffectRoleblock},
		Description: "Roleblock a player so their ability does nothing tonight.",
		Feedback:    "{actor} will attempt to roleblock {target} tonight.",
	},
	AbilityConsort: {
		Name: AbilityConsort, Type: AbilityTypeRoleblock, Priority: PriorityRoleblock,
		Uses: UsesUnlimited, Duration: DurationDayAndNight, Phases: nightOnly,
		Args:        visitArg("player_consorting", "The player you're consorting", SubtypeNotSelf),
		Effects:     []EffectName{EffectRoleblock},
		Description: "Distract a player so their ability does nothing tonight.",
		Feedback:    "{actor} will attempt to consort {target} tonight.",
	},
	AbilityShoot: {
		Name: AbilityShoot, Type: AbilityTypeAttacking, Priority: PriorityAttacking,
		Uses: 3, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_shooting", "The player you're shooting", SubtypeNotSelf),
		Effects:     []EffectName{EffectAttack},
		Description: "Shoot a player, attacking them with an attack level of 1.",
		Feedback:    "{actor} will attempt to shoot {target} tonight.",
	},
	AbilityMurder: {
		Name: AbilityMurder, Type: AbilityTypeAttacking, Priority: PriorityAttacking,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_killing", "The player you're killing", SubtypeNonMafia),
		Effects:     []EffectName{EffectAttack},
		Description: "Murder a player who isn't in the Mafia.",
		Feedback:    "{actor} will attempt to murder {target} tonight.",
	},
	AbilityFrame: {
		Name: AbilityFrame, Type: AbilityTypeManipulation, Priority: PriorityManipulation,
		Uses: UsesUnlimited, Duration: DurationDayAndNight, Phases: nightOnly,
		Args:        visitArg("player_framing", "The player you're framing", SubtypeNonMafia),
		Effects:     []EffectName{EffectFrame},
		Description: "Frame a player so they appear to be the Mafioso until investigated.",
		Feedback:    "{actor} will attempt to frame {target} tonight.",
	},
	AbilitySelfFrame: {
		Name: AbilitySelfFrame, Type: AbilityTypeManipulation, Priority: PriorityManipulation,
		Uses: 1, Duration: DurationIndefinite, Phases: nightOnly,
		Effects:     []EffectName{EffectSelfFrame},
		Description: "Frame yourself so you appear to be the Mafioso until investigated.",
		Feedback:    "{actor} will attempt to frame {self} tonight.",
	},
	AbilityDeathCurse: {
		Name: AbilityDeathCurse, Type: AbilityTypeAttacking, Priority: PriorityAttacking,
		Uses: 1, Duration: DurationOneNight, Phases: nightOnly, LimboOnly: true,
		Args:        visitArg("player_cursing", "The player you're cursing", SubtypeCertainPlayers),
		Effects:     []EffectName{EffectAttack},
		Description: "After being lynched, curse one of the players who voted guilty with an attack level of 4.",
		Feedback:    "{actor} will attempt to curse {target} tonight.",
	},
	AbilityFrameTarget: {
		Name: AbilityFrameTarget, Type: AbilityTypeManipulation, Priority: PriorityManipulation,
		Uses: 1, Duration: DurationIndefinite, Phases: nightOnly,
		Effects:     []EffectName{EffectFrameTarget},
		Description: "Frame your target so they appear to be the Mafioso until investigated.",
		Feedback:    "{actor} will attempt to frame their target tonight.",
	},
	AbilitySelfVest: {
		Name: AbilitySelfVest, Type: AbilityTypeProtection, Priority: PriorityProtection,
		Uses: 4, Duration: DurationOneNight, Phases: nightOnly,
		Effects:     []EffectName{EffectSelfHeal},
		Description: "Put on a vest, giving you a defense level of 2 for the night.",
		Feedback:    "{actor} will attempt to put on a vest tonight.",
	},
	AbilityKnife: {
		Name: AbilityKnife, Type: AbilityTypeAttacking, Priority: PriorityAttacking,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_knifing", "The player you're knifing", SubtypeNotSelf),
		Effects:     []EffectName{EffectAttack},
		Description: "Knife a player, attacking them with an attack level of 1.",
		Feedback:    "{actor} will attempt to knife {target} tonight.",
	},
	AbilityCautious: {
		Name: AbilityCautious, Type: AbilityTypeModifier, Priority: PriorityModifier,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Effects:     []EffectName{EffectCautious},
		Description: "Stay cautious tonight so you don't attack anyone who roleblocks you.",
		Feedback:    "{actor} will be cautious tonight.",
	},
	AbilitySmith: {
		Name: AbilitySmith, Type: AbilityTypeProtection, Priority: PriorityProtection,
		Uses: 3, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_smithing_for", "The player you're smithing a vest for", SubtypeNotSelf),
		Effects:     []EffectName{EffectSmith},
		Description: "Smith a vest for a player, giving them a defense level of 1 for the night.",
		Feedback:    "{actor} will attempt to smith a vest for {target} tonight.",
	},
	AbilitySelfSmith: {
		Name: AbilitySelfSmith, Type: AbilityTypeProtection, Priority: PriorityProtection,
		Uses: 1, Duration: DurationOneNight, Phases: nightOnly,
		Effects:     []EffectName{EffectSelfSmith},
		Description: "Smith a vest for yourself, giving you a defense level of 1 for the night.",
		Feedback:    "{actor} will attempt to smith a vest for {self} tonight.",
	},
	AbilitySuicide: {
		Name: AbilitySuicide, Type: AbilityTypeSuicide, Priority: PrioritySuicide,
		Uses: UsesNone, Duration: DurationOneNight,
		Effects:     []EffectName{EffectSuicide},
		Description: "Commit suicide out of guilt.",
		Feedback:    "{actor} will commit suicide tonight.",
	},
	AbilityControl: {
		Name: AbilityControl, Type: AbilityTypeControl, Priority: PriorityControl,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args: []Arg{
			{Name: "player_controlling", Type: ArgTypePlayer, Subtypes: []ArgSubtype{SubtypeVisiting, SubtypeNotSelf}, Description: "The player you're controlling"},
			{Name: "player_controlled_into", Type: ArgTypePlayer, Description: "The player you're forcing them to use their ability on"},
		},
		Effects:     []EffectName{EffectControl},
		Description: "Force a player to use their first ability on a second player you choose. You also learn their role.",
		Feedback:    "{actor} will attempt to control {target} into using their ability on {into} tonight.",
	},
	AbilityReplace: {
		Name: AbilityReplace, Type: AbilityTypeAttacking, Priority: PriorityAttacking,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_replacing", "The player you're replacing", SubtypeNotSelf),
		Effects:     []EffectName{EffectReplace},
		Description: "Attack a player and, if you kill them, take over their role. Their role will be hidden when they die.",
		Feedback:    "{actor} will attempt to replace {target} tonight.",
	},
	AbilityKidnap: {
		Name: AbilityKidnap, Type: AbilityTypeRoleblock, Priority: PriorityRoleblock,
		Uses: UsesUnlimited, Duration: DurationOneNight, Phases: nightOnly,
		Args:        visitArg("player_kidnapping", "The player you're kidnapping", SubtypeNonMafia, SubtypeNotSelf),
		Effects:     []EffectName{EffectKidnap},
		Description: "Kidnap a player, roleblocking them and giving them a defense level of 4. They can't speak or vote the next day.",
		Feedback:    "{actor} will attempt to kidnap {target} tonight.",
	},
}

// GetAbility returns the catalog entry for name.
func GetAbility(name AbilityName) (*Ability, bool) {
	a, ok := abilityCatalog[name]
	return a, ok
}

// MustAbility returns the catalog entry for name or an IntegrityFailure.
func MustAbility(name AbilityName) (*Ability, error) {
	a, ok := abilityCatalog[name]
	if !ok {
		return nil, integrityf("unknown ability %q", name)
	}
	return a, nil
}

// FindAbilityByName matches an ability by display or command name.
func FindAbilityByName(name string) (*Ability, bool) {
	name = strings.TrimSpace(name)
	for _, a := range abilityCatalog {
		if strings.EqualFold(string(a.Name), name) || strings.EqualFold(a.CommandName(), name) {
			return a, true
		}
	}
	return nil, false
}
