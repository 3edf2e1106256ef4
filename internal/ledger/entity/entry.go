package entity

import "time"

// Action enumerates the kinds of events recorded in the ledger.
type Action string

const (
	ActionRegister Action = "REGISTER"
	ActionPostPR   Action = "POST_PR"
	ActionPostEA   Action = "POST_EA"
	ActionAward    Action = "AWARD"
)

// Entry is one immutable ledger line. Seq is assigned by the store on append
// and defines the total order; timestamps may interleave under concurrency.
type Entry struct {
	Seq         int64     `db:"seq" json:"seq"`
	ID          string    `db:"id" json:"id"`
	Timestamp   time.Time `db:"ts" json:"timestamp"`
	UserID      string    `db:"user_id" json:"user_id"`
	Action      Action    `db:"action_type" json:"action_type"`
	ReferenceID string    `db:"reference_id" json:"reference_id,omitempty"`
	Amount      float64   `db:"amount_awarded" json:"amount_awarded"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
}

// Filter selects entries by user and/or action; empty fields match all.
type Filter struct {
	UserID string
	Action Action
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *Entry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

// DailyTotal is the sum of awarded amounts for one calendar day.
type DailyTotal struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}
