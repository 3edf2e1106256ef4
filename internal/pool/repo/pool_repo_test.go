package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

func newMock(t *testing.T) (*PoolRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPoolRepo(sqlx.NewDb(db, "sqlmock")), mock
}

var poolCols = []string{"hour_index", "hour_awarding_so_far", "current_multiplier"}

func TestReadPool(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`SELECT hour_index, hour_awarding_so_far, current_multiplier FROM pool WHERE id = \?`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(poolCols).AddRow(int64(475000), 12.5, 0.5))

	p, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &entity.Pool{HourIndex: 475000, HourAwardingSoFar: 12.5, CurrentMultiplier: 0.5}, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadPoolClampsNonPositiveMultiplier(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`FROM pool WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows(poolCols).AddRow(int64(1), 0.0, 0.0))

	p, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.CurrentMultiplier)
}

func TestReadPoolSeedsMissingRow(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`FROM pool WHERE id = \?`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO pool .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(1, int64(0), 0.0, 1.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.NewPool(), *p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWritePool(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO pool .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(1, int64(9), 3.0, 0.25).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Write(context.Background(), &entity.Pool{HourIndex: 9, HourAwardingSoFar: 3, CurrentMultiplier: 0.25}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
