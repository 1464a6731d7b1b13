package games

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the overall lifecycle state of a game.
type Status string

const (
	StatusSignUp       Status = "sign_up"
	StatusReadyToBegin Status = "ready_to_begin"
	StatusInProgress   Status = "in_progress"
	StatusEnded        Status = "ended"
)

// Phase is the day/night half of a cycle.
type Phase string

const (
	PhaseNone  Phase = "none"
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// Subphase divides a day.
type Subphase string

const (
	SubphaseNone          Subphase = "none"
	SubphaseAnnouncements Subphase = "announcements"
	SubphaseVoting        Subphase = "voting"
	SubphaseTrial         Subphase = "trial"
	SubphaseTrialResults  Subphase = "trial_results"
	SubphaseLimbo         Subphase = "limbo"
)

// Death is a pending death, resolved at the next death announcement.
type Death struct {
	Victim  string `json:"victim"`
	Kills   []Kill `json:"kills,omitempty"`
	Lynched bool   `json:"lynched,omitempty"`
}

// Kill attributes a death to a killer.
type Kill struct {
	Killer     string      `json:"killer"`
	KillerRole RoleName    `json:"killer_role,omitempty"`
	Ability    AbilityName `json:"ability,omitempty"`
	Flavor     string      `json:"flavor,omitempty"`
}

// GameState is the full engine state, serialized to JSON for snapshots.
type GameState struct {
	GameID     string   `json:"game_id"`
	Status     Status   `json:"status"`
	Phase      Phase    `json:"phase"`
	Subphase   Subphase `json:"subphase"`
	DaysPassed float64  `json:"days_passed"`

	Players         []*Player  `json:"players"`
	RoleIdentifiers []string   `json:"role_identifiers,omitempty"`
	RoleList        []RoleName `json:"role_list,omitempty"`

	NextDeaths []Death           `json:"next_deaths,omitempty"`
	Votes      map[string]string `json:"votes,omitempty"`
	TrialVotes map[string]string `json:"trial_votes,omitempty"`
	OnTrial    string            `json:"on_trial,omitempty"`
	Verdict    string            `json:"verdict,omitempty"`
	ActionLog  map[int][]string  `json:"action_log,omitempty"`

	WinningFactions []string `json:"winning_factions,omitempty"`
	Winners         []string `json:"winners,omitempty"`
	TimeoutCounter  int      `json:"timeout_counter,omitempty"`

	// Version is set by the store on each snapshot write.
	Version int `json:"version,omitempty"`
}

// NewGameState returns the state of a game that has not opened sign-ups.
func NewGameState(gameID string) *GameState {
	return &GameState{
		GameID:   gameID,
		Status:   StatusEnded,
		Phase:    PhaseNone,
		Subphase: SubphaseNone,
	}
}

// Checkpoint captures the position in the phase machine. Phase transitions
// are keyed on it so a stale trigger is a no-op.
type Checkpoint struct {
	Status     Status   `json:"status"`
	Phase      Phase    `json:"phase"`
	Subphase   Subphase `json:"subphase"`
	DaysPassed float64  `json:"days_passed"`
}

// Checkpoint returns the current position.
func (s *GameState) Checkpoint() Checkpoint {
	return Checkpoint{Status: s.Status, Phase: s.Phase, Subphase: s.Subphase, DaysPassed: s.DaysPassed}
}

// DayNumber is the human-facing day or night number.
func (s *GameState) DayNumber() int {
	n := int(s.DaysPassed)
	if float64(n) < s.DaysPassed {
		n++
	}
	return n
}

// Player finds a player by name, case-insensitively.
func (s *GameState) Player(name string) *Player {
	for _, p := range s.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// PlayerByID finds a player by id.
func (s *GameState) PlayerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// LivingPlayers returns the living players in join order.
func (s *GameState) LivingPlayers() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	out.RoleIdentifiers = append([]string(nil), s.RoleIdentifiers...)
	out.RoleList = append([]RoleName(nil), s.RoleList...)
	out.NextDeaths = make([]Death, len(s.NextDeaths))
	for i, d := range s.NextDeaths {
		d.Kills = append([]Kill(nil), d.Kills...)
		out.NextDeaths[i] = d
	}
	out.Votes = copyStringMap(s.Votes)
	out.TrialVotes = copyStringMap(s.TrialVotes)
	if s.ActionLog != nil {
		out.ActionLog = make(map[int][]string, len(s.ActionLog))
		for k, v := range s.ActionLog {
			out.ActionLog[k] = append([]string(nil), v...)
		}
	}
	out.WinningFactions = append([]string(nil), s.WinningFactions...)
	out.Winners = append([]string(nil), s.Winners...)
	return &out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ToMap converts state to a map for JSON snapshot (engine uses this for persistence).
func (s *GameState) ToMap() (map[string]interface{}, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return m, nil
}

// StateFromMap reconstructs GameState from a snapshot map and checks it
// against the catalog. A malformed document is an IntegrityFailure.
func StateFromMap(m map[string]interface{}) (*GameState, error) {
	if m == nil {
		return nil, integrityf("snapshot is empty")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, &IntegrityFailure{Message: "snapshot is not JSON", Err: err}
	}
	var s GameState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, &IntegrityFailure{Message: "snapshot does not decode", Err: err}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *GameState) validate() error {
	switch s.Status {
	case StatusSignUp, StatusReadyToBegin, StatusInProgress, StatusEnded:
	default:
		return integrityf("unknown status %q", s.Status)
	}
	switch s.Phase {
	case PhaseNone, PhaseDay, PhaseNight:
	default:
		return integrityf("unknown phase %q", s.Phase)
	}
	switch s.Subphase {
	case SubphaseNone, SubphaseAnnouncements, SubphaseVoting, SubphaseTrial, SubphaseTrialResults, SubphaseLimbo:
	default:
		return integrityf("unknown subphase %q", s.Subphase)
	}
	if s.DaysPassed < 0 {
		return integrityf("days_passed is negative")
	}
	names := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p == nil || p.Name == "" {
			return integrityf("player without a name")
		}
		if names[strings.ToLower(p.Name)] {
			return integrityf("duplicate player %q", p.Name)
		}
		names[strings.ToLower(p.Name)] = true
		if p.Role != "" {
			if _, ok := GetRole(p.Role); !ok {
				return integrityf("player %q has unknown role %q", p.Name, p.Role)
			}
		}
		if p.Attack < 0 || p.Defense < 0 {
			return integrityf("player %q has negative attack or defense", p.Name)
		}
		for _, a := range p.AffectedBy {
			if _, ok := GetAbility(a.Ability); !ok {
				return integrityf("player %q is affected by unknown ability %q", p.Name, a.Ability)
			}
		}
		if p.Action != nil && p.Action.Ability != AbilityNothing {
			if _, ok := GetAbility(p.Action.Ability); !ok {
				return integrityf("player %q chose unknown ability %q", p.Name, p.Action.Ability)
			}
		}
		if p.Used == nil {
			p.Used = make(map[AbilityName]int)
		}
	}
	return nil
}
