package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

// Repo is the repository implementation for settings.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureTable ensures the settings table and its index exist.
// Fields:
// - id varchar(32) PRIMARY KEY
// - category varchar(32) (indexed)
// - record_meta text (json)
// - metadata text (json)
func (r *Repo) EnsureTable(ctx context.Context) error {
	const createTable = `CREATE TABLE IF NOT EXISTS settings (
		id varchar(32) PRIMARY KEY,
		category varchar(32) NOT NULL DEFAULT '',
		record_meta TEXT NOT NULL DEFAULT '{}',
		metadata TEXT NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return err
	}

	const createIndex = `CREATE INDEX IF NOT EXISTS idx_settings_category ON settings (category)`
	if _, err := r.db.ExecContext(ctx, createIndex); err != nil {
		return err
	}
	return nil
}

// Get returns the setting with id, or nil when none is stored.
func (r *Repo) Get(ctx context.Context, id string) (*entity.Setting, error) {
	q := r.db.Rebind(`SELECT id, category, record_meta, metadata, updated_at FROM settings WHERE id = ?`)
	var row struct {
		ID         string    `db:"id"`
		Category   string    `db:"category"`
		RecordMeta string    `db:"record_meta"`
		Metadata   string    `db:"metadata"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.Setting{
		ID:         row.ID,
		Category:   row.Category,
		RecordMeta: []byte(row.RecordMeta),
		Metadata:   []byte(row.Metadata),
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// Upsert inserts s or replaces the stored row with the same id.
func (r *Repo) Upsert(ctx context.Context, s *entity.Setting) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	q := r.db.Rebind(`INSERT INTO settings (id, category, record_meta, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET category = EXCLUDED.category,
			record_meta = EXCLUDED.record_meta,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`)
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Category, string(s.RecordMeta), string(s.Metadata), s.UpdatedAt)
	return err
}
