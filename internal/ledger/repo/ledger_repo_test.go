package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
)

func newMock(t *testing.T) (*LedgerRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedgerRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestAppendAssignsSeq(t *testing.T) {
	r, mock := newMock(t)
	ts := time.Date(2024, 3, 10, 10, 0, 0, 0, time.FixedZone("CST", 8*3600))
	e := &entity.Entry{ID: "e1", Timestamp: ts, UserID: "u1", Action: entity.ActionPostPR, ReferenceID: "pr-1", Amount: 10, Notes: "User posted PR"}

	mock.ExpectQuery(`INSERT INTO ledger .* RETURNING seq`).
		WithArgs("e1", ts.UTC(), "u1", "POST_PR", "pr-1", 10.0, "User posted PR").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(42))

	require.NoError(t, r.Append(context.Background(), e))
	assert.Equal(t, int64(42), e.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadAllOrdersBySeq(t *testing.T) {
	r, mock := newMock(t)
	ts := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	cols := []string{"seq", "id", "ts", "user_id", "action_type", "reference_id", "amount_awarded", "notes"}
	mock.ExpectQuery(`SELECT seq, .* FROM ledger ORDER BY seq`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "a", ts, "u1", "REGISTER", "", 0.0, "User creation/exists").
			AddRow(2, "b", ts, "u1", "POST_EA", "ea", 100.0, ""))

	rows, err := r.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.ActionRegister, rows[0].Action)
	assert.Equal(t, int64(2), rows[1].Seq)
	assert.Equal(t, 100.0, rows[1].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTableCreatesIndexes(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ledger`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_ledger_user_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_ledger_action_type`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, r.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
