package entity

import (
	"encoding/json"
	"errors"
	"time"
)

// Setting represents a persisted configuration record.
type Setting struct {
	ID         string          `json:"id" db:"id"`
	Category   string          `json:"category,omitempty" db:"category"`
	RecordMeta json.RawMessage `json:"record_meta,omitempty" db:"record_meta"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// NewSetting creates a new Setting.
func NewSetting(id string, category string, recordMeta json.RawMessage, metadata json.RawMessage) *Setting {
	return &Setting{ID: id, Category: category, RecordMeta: recordMeta, Metadata: metadata}
}

// Params is the tunable parameter set consulted by every award. JSON and YAML
// keys are the names operators use in override patches and config files.
type Params struct {
	DailyUserCap       float64   `json:"DAILY_USER_CAP" yaml:"DAILY_USER_CAP"`
	MaxDailyPRs        int       `json:"MAX_DAILY_PRS" yaml:"MAX_DAILY_PRS"`
	PRAward            float64   `json:"PR_AWARD" yaml:"PR_AWARD"`
	EAAwardTiers       []float64 `json:"EA_AWARD_TIERS" yaml:"EA_AWARD_TIERS"`
	OverrunBracketStep float64   `json:"OVERRUN_BRACKET_STEP" yaml:"OVERRUN_BRACKET_STEP"`
	HourlyCap          float64   `json:"HOURLY_CAP" yaml:"HOURLY_CAP"`
	DoubleMultiplier   float64   `json:"DOUBLE_MULTIPLIER" yaml:"DOUBLE_MULTIPLIER"`
	HalveBase          float64   `json:"HALVE_BASE" yaml:"HALVE_BASE"`
	UseHourLogic       bool      `json:"USE_HOUR_LOGIC" yaml:"USE_HOUR_LOGIC"`
	HourRollover       bool      `json:"HOUR_ROLLOVER" yaml:"HOUR_ROLLOVER"`
	StartingBalance    float64   `json:"STARTING_BALANCE" yaml:"STARTING_BALANCE"`
	// Secret is only ever populated on input; published snapshots keep a hash.
	Secret string `json:"SECRET_DEV_KEY" yaml:"SECRET_DEV_KEY"`
}

// SecretKey is the parameter name of the override secret.
const SecretKey = "SECRET_DEV_KEY"

// DefaultParams returns the parameters the service starts with.
func DefaultParams() Params {
	return Params{
		DailyUserCap:       10240,
		MaxDailyPRs:        3,
		PRAward:            10,
		EAAwardTiers:       []float64{100, 90, 90, 80, 80, 80, 50, 50, 50, 40},
		OverrunBracketStep: 0.05,
		// 2% of 5e15 spread over the hours of a year
		HourlyCap:        1e14 / 8760.0,
		DoubleMultiplier: 2.0,
		HalveBase:        1.0,
		UseHourLogic:     true,
		HourRollover:     true,
		StartingBalance:  400000,
		Secret:           "mysecret123",
	}
}

// Validate checks the constraints the award engine relies on.
func (p Params) Validate() error {
	switch {
	case p.DailyUserCap < 0:
		return errors.New("DAILY_USER_CAP must not be negative")
	case p.MaxDailyPRs < 0:
		return errors.New("MAX_DAILY_PRS must not be negative")
	case p.PRAward < 0:
		return errors.New("PR_AWARD must not be negative")
	case len(p.EAAwardTiers) == 0:
		return errors.New("EA_AWARD_TIERS must not be empty")
	case p.OverrunBracketStep <= 0:
		return errors.New("OVERRUN_BRACKET_STEP must be positive")
	case p.HourlyCap <= 0:
		return errors.New("HOURLY_CAP must be positive")
	case p.DoubleMultiplier <= 0:
		return errors.New("DOUBLE_MULTIPLIER must be positive")
	case p.HalveBase <= 0:
		return errors.New("HALVE_BASE must be positive")
	case p.StartingBalance < 0:
		return errors.New("STARTING_BALANCE must not be negative")
	}
	for _, t := range p.EAAwardTiers {
		if t < 0 {
			return errors.New("EA_AWARD_TIERS entries must not be negative")
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	cp := p
	cp.EAAwardTiers = append([]float64(nil), p.EAAwardTiers...)
	return cp
}
