package entity

// Account represents a row in the `accounts` table: one per user, holding the
// balance and the state needed for the daily throttle.
type Account struct {
	UserID          string  `db:"user_id" json:"user_id"`
	Balance         float64 `db:"balance" json:"balance"`
	DailyEarned     float64 `db:"daily_earned" json:"daily_earned"`
	DailyPRCount    int     `db:"daily_pr_count" json:"daily_pr_count"`
	TotalEarnedEver float64 `db:"total_earned_ever" json:"total_earned_ever"`
	// LastDailyReset is a calendar date, YYYY-MM-DD.
	LastDailyReset string `db:"last_daily_reset" json:"last_daily_reset"`
}

// Wallet is the read-only projection handed to collaborators.
type Wallet struct {
	UserID          string  `json:"user_id"`
	Balance         float64 `json:"balance"`
	DailyEarned     float64 `json:"daily_earned"`
	TotalEarnedEver float64 `json:"total_earned_ever"`
}

// Wallet projects the account.
func (a Account) Wallet() Wallet {
	return Wallet{
		UserID:          a.UserID,
		Balance:         a.Balance,
		DailyEarned:     a.DailyEarned,
		TotalEarnedEver: a.TotalEarnedEver,
	}
}
