package games

import (
	"fmt"
	"strings"
)

// Faction is the top-level team a role belongs to.
type Faction string

const (
	FactionTown    Faction = "Town"
	FactionMafia   Faction = "Mafia"
	FactionNeutral Faction = "Neutral"
)

// Factions lists every faction in display order.
var Factions = []Faction{FactionTown, FactionMafia, FactionNeutral}

// Alignment is the sub-category of a role within its faction.
type Alignment string

const (
	AlignmentCrowd         Alignment = "Crowd"
	AlignmentProtective    Alignment = "Protective"
	AlignmentInvestigative Alignment = "Investigative"
	AlignmentSupport       Alignment = "Support"
	AlignmentKilling       Alignment = "Killing"
	AlignmentDeception     Alignment = "Deception"
	AlignmentEvil          Alignment = "Evil"
	AlignmentBenign        Alignment = "Benign"
	AlignmentChaos         Alignment = "Chaos"
)

// Alignments lists every alignment.
var Alignments = []Alignment{
	AlignmentCrowd, AlignmentProtective, AlignmentInvestigative, AlignmentSupport,
	AlignmentKilling, AlignmentDeception, AlignmentEvil, AlignmentBenign, AlignmentChaos,
}

// Goal is the win-condition class of a role.
type Goal string

const (
	GoalEliminateOtherFactions        Goal = "eliminate_other_factions"
	GoalSurviveEliminateOtherFactions Goal = "survive_eliminate_other_factions"
	GoalSurvive                       Goal = "survive"
	GoalSurviveTownLose               Goal = "survive_until_town_loses"
	GoalBeLynched                     Goal = "be_lynched"
	GoalGetTargetLynched              Goal = "get_target_lynched"
	GoalSaveWithVest                  Goal = "save_player_with_vest"
	GoalReplacedPlayersGoal           Goal = "replaced_players_goal"
)

var goalDescriptions = map[Goal]string{
	GoalEliminateOtherFactions:        "Eliminate every other faction that can win alone.",
	GoalSurviveEliminateOtherFactions: "Survive until everyone who could stop you is dead.",
	GoalSurvive:                       "Survive until the end of the game.",
	GoalSurviveTownLose:               "Survive to see the Town lose the game.",
	GoalBeLynched:                     "Get yourself lynched by the town.",
	GoalGetTargetLynched:              "Get your target lynched by the town.",
	GoalSaveWithVest:                  "Save someone from death with a vest you smithed.",
	GoalReplacedPlayersGoal:           "Replace someone, then complete their goal as your own.",
}

// Immunity protects a role from a class of effect.
type Immunity string

const (
	ImmunityRoleblock Immunity = "roleblock"
	ImmunityControl   Immunity = "control"
)

// RoleName identifies a role in the catalog.
type RoleName string

const (
	RoleTownie       RoleName = "Townie"
	RoleDoctor       RoleName = "Doctor"
	RoleSheriff      RoleName = "Sheriff"
	RoleTracker      RoleName = "Tracker"
	RoleLookout      RoleName = "Lookout"
	RoleEscort       RoleName = "Escort"
	RoleVigilante    RoleName = "Vigilante"
	RoleOracle       RoleName = "Oracle"
	RoleMafioso      RoleName = "Mafioso"
	RoleFramer       RoleName = "Framer"
	RoleConsort      RoleName = "Consort"
	RoleConsigliere  RoleName = "Consigliere"
	RoleKidnapper    RoleName = "Kidnapper"
	RoleFool         RoleName = "Fool"
	RoleExecutioner  RoleName = "Executioner"
	RoleSurvivor     RoleName = "Survivor"
	RoleSerialKiller RoleName = "Serial Killer"
	RoleBlacksmith   RoleName = "Blacksmith"
	RoleWitch        RoleName = "Witch"
	RoleImpersonator RoleName = "Impersonator"
)

// Role is an immutable catalog entry.
type Role struct {
	Name        RoleName
	Faction     Faction
	Alignment   Alignment
	Attack      int
	Defense     int
	Goal        Goal
	Unique      bool
	Immunities  []Immunity
	Abilities   []AbilityName
	Description string
	Notes       string
}

// HasImmunity reports whether the role is immune to the given effect class.
func (r *Role) HasImmunity(i Immunity) bool {
	for _, im := range r.Immunities {
		if im == i {
			return true
		}
	}
	return false
}

// WinFaction is the name a role is credited under when it wins: the faction
// for Town and Mafia, the role's own name for everything else.
func (r *Role) WinFaction() string {
	if r.Faction == FactionTown || r.Faction == FactionMafia {
		return string(r.Faction)
	}
	return string(r.Name)
}

// IsPassiveNeutral reports whether the role never blocks another class from
// winning (evil, chaos and benign neutrals).
func (r *Role) IsPassiveNeutral() bool {
	if r.Faction != FactionNeutral {
		return false
	}
	switch r.Alignment {
	case AlignmentEvil, AlignmentChaos, AlignmentBenign:
		return true
	}
	return false
}

// DisplayText renders the role card shown to a player. With infoOnly the
// greeting line is omitted.
func (r *Role) DisplayText(infoOnly bool) string {
	var b strings.Builder
	if !infoOnly {
		fmt.Fprintf(&b, "Your role is **%s**.\n", r.Name)
	}
	fmt.Fprintf(&b, "# %s\n", r.Name)
	fmt.Fprintf(&b, "`%s %s`\n", r.Faction, r.Alignment)
	if r.Description != "" {
		fmt.Fprintf(&b, "> %s\n", r.Description)
	}
	fmt.Fprintf(&b, "## Goal\n%s\n", goalDescriptions[r.Goal])
	fmt.Fprintf(&b, "## Attack and Defense\nAttack: **%d**\nDefense: **%d**\n", r.Attack, r.Defense)
	if len(r.Immunities) > 0 {
		names := make([]string, len(r.Immunities))
		for i, im := range r.Immunities {
			names[i] = string(im)
		}
		fmt.Fprintf(&b, "## Immunities\n%s\n", strings.Join(names, ", "))
	}
	if len(r.Abilities) > 0 {
		b.WriteString("## Abilities")
		for _, name := range r.Abilities {
			if a, ok := abilityCatalog[name]; ok {
				b.WriteString(a.DisplayText())
			}
		}
	}
	if r.Unique {
		b.WriteString("## Unique\nOnly one of this role can be in a game.\n")
	}
	if r.Notes != "" {
		fmt.Fprintf(&b, "## Notes\n%s\n", r.Notes)
	}
	return b.String()
}

var roleOrder = []RoleName{
	RoleTownie, RoleDoctor, RoleSheriff, RoleTracker, RoleLookout, RoleEscort, RoleVigilante, RoleOracle,
	RoleMafioso, RoleFramer, RoleConsort, RoleConsigliere, RoleKidnapper,
	RoleFool, RoleExecutioner, RoleSurvivor, RoleSerialKiller, RoleBlacksmith, RoleWitch, RoleImpersonator,
}

var roleCatalog = map[RoleName]*Role{
	RoleTownie: {
		Name: RoleTownie, Faction: FactionTown, Alignment: AlignmentCrowd,
		Goal:        GoalEliminateOtherFactions,
		Description: "An ordinary member of the town with nothing but a vote and a voice.",
	},
	RoleDoctor: {
		Name: RoleDoctor, Faction: FactionTown, Alignment: AlignmentProtective,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityHeal, AbilityHealSelf},
		Description: "A surgeon who patches up whoever they visit each night.",
	},
	RoleSheriff: {
		Name: RoleSheriff, Faction: FactionTown, Alignment: AlignmentInvestigative,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityEvaluate},
		Description: "A lawman who can tell whether someone looks suspicious.",
	},
	RoleTracker: {
		Name: RoleTracker, Faction: FactionTown, Alignment: AlignmentInvestigative,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityTrack},
		Description: "A scout who follows a player to see who they visit.",
	},
	RoleLookout: {
		Name: RoleLookout, Faction: FactionTown, Alignment: AlignmentInvestigative,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityLookout},
		Description: "A watcher who stakes out a house to see who comes by.",
	},
	RoleEscort: {
		Name: RoleEscort, Faction: FactionTown, Alignment: AlignmentSupport,
		Goal:        GoalEliminateOtherFactions,
		Immunities:  []Immunity{ImmunityRoleblock},
		Abilities:   []AbilityName{AbilityRoleblock},
		Description: "A distraction who keeps a player busy all night.",
	},
	RoleVigilante: {
		Name: RoleVigilante, Faction: FactionTown, Alignment: AlignmentKilling,
		Attack: 1, Goal: GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityShoot},
		Description: "A town member who takes justice into their own hands.",
		Notes:       "If you shoot a member of the Town, you will commit suicide out of guilt the following night.",
	},
	RoleOracle: {
		Name: RoleOracle, Faction: FactionTown, Alignment: AlignmentInvestigative,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityObserve},
		Description: "A seer who compares the people they observe.",
	},
	RoleMafioso: {
		Name: RoleMafioso, Faction: FactionMafia, Alignment: AlignmentKilling,
		Attack: 1, Goal: GoalEliminateOtherFactions, Unique: true,
		Abilities:   []AbilityName{AbilityMurder},
		Description: "The Mafia's hitman.",
		Notes:       "If you die, a random member of the Mafia will be promoted to Mafioso.",
	},
	RoleFramer: {
		Name: RoleFramer, Faction: FactionMafia, Alignment: AlignmentDeception,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityFrame},
		Description: "A forger who makes innocents look like Mafia.",
	},
	RoleConsort: {
		Name: RoleConsort, Faction: FactionMafia, Alignment: AlignmentSupport,
		Goal:        GoalEliminateOtherFactions,
		Immunities:  []Immunity{ImmunityRoleblock},
		Abilities:   []AbilityName{AbilityConsort},
		Description: "A Mafia distraction who keeps a player busy all night.",
	},
	RoleConsigliere: {
		Name: RoleConsigliere, Faction: FactionMafia, Alignment: AlignmentSupport,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityInvestigate},
		Description: "The Mafia's advisor who learns exact roles.",
	},
	RoleKidnapper: {
		Name: RoleKidnapper, Faction: FactionMafia, Alignment: AlignmentSupport,
		Goal:        GoalEliminateOtherFactions,
		Abilities:   []AbilityName{AbilityKidnap},
		Description: "A Mafia enforcer who locks someone away for a day.",
	},
	RoleFool: {
		Name: RoleFool, Faction: FactionNeutral, Alignment: AlignmentEvil,
		Attack: 4, Goal: GoalBeLynched,
		Abilities:   []AbilityName{AbilitySelfFrame, AbilityDeathCurse},
		Description: "A lunatic whose only wish is to be lynched.",
	},
	RoleExecutioner: {
		Name: RoleExecutioner, Faction: FactionNeutral, Alignment: AlignmentEvil,
		Defense: 1, Goal: GoalGetTargetLynched,
		Abilities:   []AbilityName{AbilityFrameTarget},
		Description: "An obsessed accuser with a single target.",
		Notes:       "If your target dies before they are lynched, you will become a Fool.",
	},
	RoleSurvivor: {
		Name: RoleSurvivor, Faction: FactionNeutral, Alignment: AlignmentBenign,
		Goal:        GoalSurvive,
		Abilities:   []AbilityName{AbilitySelfVest},
		Description: "A neutral party who only wants to live.",
	},
	RoleSerialKiller: {
		Name: RoleSerialKiller, Faction: FactionNeutral, Alignment: AlignmentKilling,
		Attack: 1, Defense: 1, Goal: GoalSurviveEliminateOtherFactions,
		Immunities:  []Immunity{ImmunityRoleblock},
		Abilities:   []AbilityName{AbilityKnife, AbilityCautious},
		Description: "A psychopath who wants everyone dead.",
		Notes:       "If you are roleblocked while not cautious, you will attack your roleblocker instead of your target.",
	},
	RoleBlacksmith: {
		Name: RoleBlacksmith, Faction: FactionNeutral, Alignment: AlignmentBenign,
		Goal:        GoalSaveWithVest,
		Abilities:   []AbilityName{AbilitySmith, AbilitySelfSmith},
		Description: "A craftsman who forges vests for others.",
	},
	RoleWitch: {
		Name: RoleWitch, Faction: FactionNeutral, Alignment: AlignmentEvil,
		Goal:        GoalSurviveTownLose,
		Immunities:  []Immunity{ImmunityRoleblock, ImmunityControl},
		Abilities:   []AbilityName{AbilityControl},
		Description: "A sorceress who bends others to her will.",
	},
	RoleImpersonator: {
		Name: RoleImpersonator, Faction: FactionNeutral, Alignment: AlignmentChaos,
		Attack: 2, Goal: GoalReplacedPlayersGoal,
		Abilities:   []AbilityName{AbilityReplace},
		Description: "A shapeshifter who kills and becomes their victim.",
	},
}

// GetRole returns the catalog entry for name.
func GetRole(name RoleName) (*Role, bool) {
	r, ok := roleCatalog[name]
	return r, ok
}

// MustRole returns the catalog entry for name or an IntegrityFailure.
func MustRole(name RoleName) (*Role, error) {
	r, ok := roleCatalog[name]
	if !ok {
		return nil, integrityf("unknown role %q", name)
	}
	return r, nil
}

// ListRoles returns every role in catalog order.
func ListRoles() []*Role {
	out := make([]*Role, 0, len(roleOrder))
	for _, name := range roleOrder {
		out = append(out, roleCatalog[name])
	}
	return out
}

// FindRoleByName matches a role name case-insensitively.
func FindRoleByName(name string) (*Role, bool) {
	name = strings.TrimSpace(name)
	for _, rn := range roleOrder {
		if strings.EqualFold(string(rn), name) {
			return roleCatalog[rn], true
		}
	}
	return nil, false
}

// AbilitiesForRole returns the abilities of a role in slate order.
func AbilitiesForRole(name RoleName) ([]*Ability, error) {
	r, err := MustRole(name)
	if err != nil {
		return nil, err
	}
	out := make([]*Ability, 0, len(r.Abilities))
	for _, an := range r.Abilities {
		a, err := MustAbility(an)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
