package games

import (
	"github.com/google/uuid"
)

// AffectedBy records an active effect on a player so it can expire.
type AffectedBy struct {
	Ability     AbilityName `json:"ability"`
	By          string      `json:"by"`
	DuringPhase float64     `json:"during_phase"`
}

// Action is what a player chose to do this night.
type Action struct {
	Ability AbilityName `json:"ability"`
	Args    []string    `json:"args,omitempty"`
}

// IsNothing reports whether the player chose to skip the night.
func (a *Action) IsNothing() bool {
	return a == nil || a.Ability == AbilityNothing
}

// Player is the mutable per-participant record.
type Player struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Alive bool     `json:"alive"`
	Role  RoleName `json:"role,omitempty"`

	PerceivedRole     RoleName `json:"perceived_role,omitempty"`
	PerceivedVisiting string   `json:"perceived_visiting,omitempty"`

	Action   *Action `json:"action,omitempty"`
	Visiting string  `json:"visiting,omitempty"`

	Attack  int `json:"attack"`
	Defense int `json:"defense"`

	Used       map[AbilityName]int `json:"used,omitempty"`
	AffectedBy []AffectedBy        `json:"affected_by,omitempty"`
	Feedback   []string            `json:"feedback,omitempty"`

	InLimbo      bool     `json:"in_limbo,omitempty"`
	ExeTarget    string   `json:"exe_target,omitempty"`
	CanUseOn     []string `json:"can_use_on,omitempty"`
	LastObserved string   `json:"last_observed,omitempty"`

	Roleblocked    bool `json:"roleblocked,omitempty"`
	Muted          bool `json:"muted,omitempty"`
	VoteBlocked    bool `json:"vote_blocked,omitempty"`
	Unidentifiable bool `json:"unidentifiable,omitempty"`
	HasWon         bool `json:"has_won,omitempty"`

	LastWill   string `json:"last_will,omitempty"`
	DeathNote  string `json:"death_note,omitempty"`
	Inactivity int    `json:"inactivity,omitempty"`
}

// NewPlayer creates a living player with no role. An empty id gets a
// generated one.
func NewPlayer(name, id string) *Player {
	if id == "" {
		id = uuid.NewString()
	}
	return &Player{ID: id, Name: name, Alive: true, Used: make(map[AbilityName]int)}
}

// RoleEntry returns the player's catalog role.
func (p *Player) RoleEntry() (*Role, error) {
	return MustRole(p.Role)
}

// SetRole gives the player a role and resets attack and defense to its base.
func (p *Player) SetRole(r *Role) {
	p.Role = r.Name
	p.Attack = r.Attack
	p.Defense = r.Defense
}

// GiveDefense raises defense to level if it is currently lower.
func (p *Player) GiveDefense(level int) {
	if p.Defense < level {
		p.Defense = level
	}
}

// RestoreDefense resets defense to the role's base value.
func (p *Player) RestoreDefense() {
	if r, ok := GetRole(p.Role); ok {
		p.Defense = r.Defense
	}
}

// Frame makes the player appear to be the Mafioso.
func (p *Player) Frame() {
	p.PerceivedRole = RoleMafioso
}

// ResetPerceived clears any manipulation override.
func (p *Player) ResetPerceived() {
	p.PerceivedRole = ""
	p.PerceivedVisiting = ""
}

// ApparentRole is the role investigators see.
func (p *Player) ApparentRole() RoleName {
	if p.PerceivedRole != "" {
		return p.PerceivedRole
	}
	return p.Role
}

// ApparentVisit is the player trackers and lookouts see this player visit.
func (p *Player) ApparentVisit() string {
	if p.PerceivedVisiting != "" {
		return p.PerceivedVisiting
	}
	return p.Visiting
}

// AddFeedback queues a private message for the player.
func (p *Player) AddFeedback(text string) {
	p.Feedback = append(p.Feedback, text)
}

// AddAffectedBy records an effect applied during the given phase.
func (p *Player) AddAffectedBy(ability AbilityName, by string, duringPhase float64) {
	p.AffectedBy = append(p.AffectedBy, AffectedBy{Ability: ability, By: by, DuringPhase: duringPhase})
}

// IsAffectedBy reports whether an effect from ability is active on the player.
func (p *Player) IsAffectedBy(ability AbilityName) bool {
	for _, a := range p.AffectedBy {
		if a.Ability == ability {
			return true
		}
	}
	return false
}

// TimesUsed returns how often the player has used ability.
func (p *Player) TimesUsed(ability AbilityName) int {
	return p.Used[ability]
}

// HasUsesLeft reports whether the player may use a one more time.
func (p *Player) HasUsesLeft(a *Ability) bool {
	switch a.Uses {
	case UsesUnlimited:
		return true
	case UsesNone:
		return false
	}
	return p.Used[a.Name] < int(a.Uses)
}

func (p *Player) markUsed(ability AbilityName) {
	if p.Used == nil {
		p.Used = make(map[AbilityName]int)
	}
	p.Used[ability]++
}

// HasAbility reports whether the player's role carries ability.
func (p *Player) HasAbility(ability AbilityName) bool {
	r, ok := GetRole(p.Role)
	if !ok {
		return false
	}
	for _, a := range r.Abilities {
		if a == ability {
			return true
		}
	}
	return false
}

// CanAct reports whether the player may choose a night action at all.
func (p *Player) CanAct() bool {
	return p.Alive || p.InLimbo
}

// ResetNightInfo clears the per-night transient state.
func (p *Player) ResetNightInfo() {
	p.Visiting = ""
	p.Action = nil
	p.Feedback = nil
	p.Roleblocked = false
}

func (p *Player) clone() *Player {
	out := *p
	if p.Action != nil {
		a := *p.Action
		a.Args = append([]string(nil), p.Action.Args...)
		out.Action = &a
	}
	out.Used = make(map[AbilityName]int, len(p.Used))
	for k, v := range p.Used {
		out.Used[k] = v
	}
	out.AffectedBy = append([]AffectedBy(nil), p.AffectedBy...)
	out.Feedback = append([]string(nil), p.Feedback...)
	out.CanUseOn = append([]string(nil), p.CanUseOn...)
	return &out
}
