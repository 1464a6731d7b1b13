package games

import (
	"encoding/json"
	"time"
)

// RulesConfig holds the tunable rules of a game: player limits, faction
// ratios, inactivity and phase lengths.
type RulesConfig struct {
	MinPlayers    int `json:"min_players"`
	MaxNameLength int `json:"max_name_length"`
	// MaxTimeoutDays is the number of consecutive deathless days that end the game in a draw.
	MaxTimeoutDays      int  `json:"max_timeout_days"`
	TrackInactivity     bool `json:"track_inactivity"`
	InactivityWarningAt int  `json:"inactivity_warning_at"`
	MaxInactivePhases   int  `json:"max_inactive_phases"`

	MaxMafiaToTownRatio float64 `json:"max_mafia_to_town_ratio"`
	MaxTownToMafiaRatio float64 `json:"max_town_to_mafia_ratio"`

	SignUpLength   time.Duration `json:"sign_up_length"`
	FirstDayLength time.Duration `json:"first_day_length"`
	NightLength    time.Duration `json:"night_length"`
	VotingLength   time.Duration `json:"voting_length"`
	TrialLength    time.Duration `json:"trial_length"`
}

// DefaultRulesConfig returns the standard rules.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		MinPlayers:          4,
		MaxNameLength:       32,
		MaxTimeoutDays:      3,
		TrackInactivity:     true,
		InactivityWarningAt: 3,
		MaxInactivePhases:   6,
		MaxMafiaToTownRatio: 2.0 / 3.0,
		MaxTownToMafiaRatio: 5,
		SignUpLength:        15 * time.Minute,
		FirstDayLength:      2 * time.Minute,
		NightLength:         5 * time.Minute,
		VotingLength:        7 * time.Minute,
		TrialLength:         5 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultRulesConfig.
func (c RulesConfig) withDefaults() RulesConfig {
	d := DefaultRulesConfig()
	if c.MinPlayers <= 0 {
		c.MinPlayers = d.MinPlayers
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = d.MaxNameLength
	}
	if c.MaxTimeoutDays <= 0 {
		c.MaxTimeoutDays = d.MaxTimeoutDays
	}
	if c.InactivityWarningAt <= 0 {
		c.InactivityWarningAt = d.InactivityWarningAt
	}
	if c.MaxInactivePhases <= 0 {
		c.MaxInactivePhases = d.MaxInactivePhases
	}
	if c.MaxMafiaToTownRatio <= 0 {
		c.MaxMafiaToTownRatio = d.MaxMafiaToTownRatio
	}
	if c.MaxTownToMafiaRatio <= 0 {
		c.MaxTownToMafiaRatio = d.MaxTownToMafiaRatio
	}
	if c.SignUpLength <= 0 {
		c.SignUpLength = d.SignUpLength
	}
	if c.FirstDayLength <= 0 {
		c.FirstDayLength = d.FirstDayLength
	}
	if c.NightLength <= 0 {
		c.NightLength = d.NightLength
	}
	if c.VotingLength <= 0 {
		c.VotingLength = d.VotingLength
	}
	if c.TrialLength <= 0 {
		c.TrialLength = d.TrialLength
	}
	return c
}

// PhaseLength returns how long the phase at cp lasts before its timer fires.
// Phases that end on their own return 0.
func (c RulesConfig) PhaseLength(cp Checkpoint) time.Duration {
	switch {
	case cp.Status == StatusSignUp:
		return c.SignUpLength
	case cp.Status != StatusInProgress:
		return 0
	case cp.Phase == PhaseNight:
		return c.NightLength
	case cp.Phase == PhaseDay && cp.Subphase == SubphaseNone:
		return c.FirstDayLength
	case cp.Subphase == SubphaseVoting:
		return c.VotingLength
	case cp.Subphase == SubphaseTrial:
		return c.TrialLength
	}
	return 0
}

// ToMap converts the config for the games.config_json column.
func (c RulesConfig) ToMap() map[string]interface{} {
	b, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if json.Unmarshal(b, &m) != nil {
		return nil
	}
	return m
}

// LoadConfigFromMap loads RulesConfig from game config_json (e.g. from DB).
// Missing or invalid fields fall back to the defaults.
func LoadConfigFromMap(configJSON map[string]interface{}) RulesConfig {
	if configJSON == nil {
		return DefaultRulesConfig()
	}
	b, err := json.Marshal(configJSON)
	if err != nil {
		return DefaultRulesConfig()
	}
	c := DefaultRulesConfig()
	if err := json.Unmarshal(b, &c); err != nil {
		return DefaultRulesConfig()
	}
	return c.withDefaults()
}
