package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGet(t *testing.T) {
	r, mock := newMock(t)
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, category, record_meta, metadata, updated_at FROM settings WHERE id = \?`).
		WithArgs("award_params").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "record_meta", "metadata", "updated_at"}).
			AddRow("award_params", "award", `{"secret_hash":"x"}`, `{"PR_AWARD":5}`, at))

	s, err := r.Get(context.Background(), "award_params")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "award", s.Category)
	assert.JSONEq(t, `{"PR_AWARD":5}`, string(s.Metadata))
	assert.Equal(t, at, s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissing(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`FROM settings WHERE id = \?`).WillReturnError(sql.ErrNoRows)

	s, err := r.Get(context.Background(), "award_params")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestUpsert(t *testing.T) {
	r, mock := newMock(t)
	s := entity.NewSetting("award_params", "award", json.RawMessage(`{}`), json.RawMessage(`{"PR_AWARD":5}`))
	mock.ExpectExec(`INSERT INTO settings .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("award_params", "award", "{}", `{"PR_AWARD":5}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Upsert(context.Background(), s))
	assert.False(t, s.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
