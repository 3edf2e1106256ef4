package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/database"
)

// AccountRepo provides row-level access to the accounts table using sqlx.
// Rows are addressed by their surrogate id, which plays the role of a row
// index in the store contract.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	idCol := "id BIGSERIAL PRIMARY KEY"
	if database.IsSQLite(r.db) {
		idCol = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	ddl := `CREATE TABLE IF NOT EXISTS accounts (
  ` + idCol + `,
  user_id TEXT NOT NULL UNIQUE,
  balance DOUBLE PRECISION NOT NULL DEFAULT 0,
  daily_earned DOUBLE PRECISION NOT NULL DEFAULT 0,
  daily_pr_count INTEGER NOT NULL DEFAULT 0,
  total_earned_ever DOUBLE PRECISION NOT NULL DEFAULT 0,
  last_daily_reset TEXT NOT NULL DEFAULT ''
)`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// FindRow returns the row id for userID; found is false when no row exists.
func (r *AccountRepo) FindRow(ctx context.Context, userID string) (row int64, found bool, err error) {
	q := r.db.Rebind(`SELECT id FROM accounts WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row, true, nil
}

// Read loads the account stored at row.
func (r *AccountRepo) Read(ctx context.Context, row int64) (*entity.Account, error) {
	q := r.db.Rebind(`SELECT user_id, balance, daily_earned, daily_pr_count, total_earned_ever, last_daily_reset
		FROM accounts WHERE id = ?`)
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, q, row); err != nil {
		return nil, err
	}
	return &a, nil
}

// Write overwrites every mutable column of row with a.
func (r *AccountRepo) Write(ctx context.Context, row int64, a *entity.Account) error {
	q := r.db.Rebind(`UPDATE accounts SET balance = ?, daily_earned = ?, daily_pr_count = ?,
		total_earned_ever = ?, last_daily_reset = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, a.Balance, a.DailyEarned, a.DailyPRCount, a.TotalEarnedEver, a.LastDailyReset, row)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Create appends a fresh account row and returns its id.
func (r *AccountRepo) Create(ctx context.Context, userID string, startingBalance float64, today string) (int64, error) {
	q := r.db.Rebind(`INSERT INTO accounts (user_id, balance, daily_earned, daily_pr_count, total_earned_ever, last_daily_reset)
		VALUES (?, ?, 0, 0, 0, ?) RETURNING id`)
	var id int64
	if err := r.db.QueryRowxContext(ctx, q, userID, startingBalance, today).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
