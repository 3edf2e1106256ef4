package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/database"
)

// LedgerRepo appends to and scans the append-only ledger table.
type LedgerRepo struct {
	db *sqlx.DB
}

func NewLedgerRepo(db *sqlx.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// EnsureTable creates the ledger table if it does not already exist.
// seq is the store-assigned append order.
func (r *LedgerRepo) EnsureTable(ctx context.Context) error {
	seqCol := "seq BIGSERIAL PRIMARY KEY"
	if database.IsSQLite(r.db) {
		seqCol = "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	tbl := `CREATE TABLE IF NOT EXISTS ledger (
		` + seqCol + `,
		id varchar(32) NOT NULL UNIQUE,
		ts TIMESTAMP NOT NULL,
		user_id TEXT NOT NULL,
		action_type varchar(32) NOT NULL,
		reference_id TEXT NOT NULL DEFAULT '',
		amount_awarded DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT ''
	)`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idxUser = `CREATE INDEX IF NOT EXISTS idx_ledger_user_id ON ledger (user_id)`
	if _, err := r.db.ExecContext(ctx, idxUser); err != nil {
		return err
	}

	const idxAction = `CREATE INDEX IF NOT EXISTS idx_ledger_action_type ON ledger (action_type)`
	if _, err := r.db.ExecContext(ctx, idxAction); err != nil {
		return err
	}
	return nil
}

// Append inserts e and sets e.Seq to the assigned sequence number.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.Entry) error {
	q := r.db.Rebind(`INSERT INTO ledger (id, ts, user_id, action_type, reference_id, amount_awarded, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING seq`)
	return r.db.QueryRowxContext(ctx, q, e.ID, e.Timestamp.UTC(), e.UserID, string(e.Action), e.ReferenceID, e.Amount, e.Notes).Scan(&e.Seq)
}

// ReadAll returns every entry in append order.
func (r *LedgerRepo) ReadAll(ctx context.Context) ([]*entity.Entry, error) {
	const q = `SELECT seq, id, ts, user_id, action_type, reference_id, amount_awarded, notes FROM ledger ORDER BY seq`
	var rows []*entity.Entry
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
