package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

// poolRowID is the id of the only row in the pool table.
const poolRowID = 1

// PoolRepo reads and writes the singleton pool row.
type PoolRepo struct {
	db *sqlx.DB
}

func NewPoolRepo(db *sqlx.DB) *PoolRepo { return &PoolRepo{db: db} }

// EnsureTable creates the pool table and seeds its single row.
func (r *PoolRepo) EnsureTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS pool (
  id INTEGER PRIMARY KEY,
  hour_index BIGINT NOT NULL DEFAULT 0,
  hour_awarding_so_far DOUBLE PRECISION NOT NULL DEFAULT 0,
  current_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	return r.seed(ctx)
}

func (r *PoolRepo) seed(ctx context.Context) error {
	p := entity.NewPool()
	q := r.db.Rebind(`INSERT INTO pool (id, hour_index, hour_awarding_so_far, current_multiplier)
		VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	_, err := r.db.ExecContext(ctx, q, poolRowID, p.HourIndex, p.HourAwardingSoFar, p.CurrentMultiplier)
	return err
}

// Read returns the pool row, seeding it first if it is missing.
func (r *PoolRepo) Read(ctx context.Context) (*entity.Pool, error) {
	q := r.db.Rebind(`SELECT hour_index, hour_awarding_so_far, current_multiplier FROM pool WHERE id = ?`)
	var p entity.Pool
	err := r.db.GetContext(ctx, &p, q, poolRowID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.seed(ctx); err != nil {
			return nil, err
		}
		np := entity.NewPool()
		return &np, nil
	}
	if err != nil {
		return nil, err
	}
	if p.CurrentMultiplier <= 0 {
		p.CurrentMultiplier = 1.0
	}
	return &p, nil
}

// Write stores p into the singleton row.
func (r *PoolRepo) Write(ctx context.Context, p *entity.Pool) error {
	q := r.db.Rebind(`INSERT INTO pool (id, hour_index, hour_awarding_so_far, current_multiplier)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET hour_index = EXCLUDED.hour_index,
			hour_awarding_so_far = EXCLUDED.hour_awarding_so_far,
			current_multiplier = EXCLUDED.current_multiplier`)
	_, err := r.db.ExecContext(ctx, q, poolRowID, p.HourIndex, p.HourAwardingSoFar, p.CurrentMultiplier)
	return err
}
