package entity

// Pool is the single shared row tracking how much has been awarded in the
// current hour window and the multiplier currently applied to awards.
type Pool struct {
	HourIndex         int64   `db:"hour_index" json:"hour_index"`
	HourAwardingSoFar float64 `db:"hour_awarding_so_far" json:"hour_awarding_so_far"`
	CurrentMultiplier float64 `db:"current_multiplier" json:"current_multiplier"`
}

// NewPool returns the initial pool state.
func NewPool() Pool {
	return Pool{HourIndex: 0, HourAwardingSoFar: 0, CurrentMultiplier: 1.0}
}
