package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	accountrepo "github.com/ovaphlow/pitchfork/service-award-go/internal/account/repo"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	ledgerrepo "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/repo"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/metrics"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
	poolrepo "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/repo"
)

// SQL is the Adapter backed by the accounts, pool and ledger tables.
type SQL struct {
	accounts *accountrepo.AccountRepo
	pool     *poolrepo.PoolRepo
	ledger   *ledgerrepo.LedgerRepo
}

var _ Adapter = (*SQL)(nil)

// NewSQL builds the adapter over db.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{
		accounts: accountrepo.NewAccountRepo(db),
		pool:     poolrepo.NewPoolRepo(db),
		ledger:   ledgerrepo.NewLedgerRepo(db),
	}
}

// EnsureSchema provisions all three tables.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	if err := s.accounts.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure accounts: %w", err)
	}
	if err := s.pool.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure pool: %w", err)
	}
	if err := s.ledger.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure ledger: %w", err)
	}
	return nil
}

func observe(op string, start time.Time, err error) error {
	metrics.ObserveStoreCall(op, time.Since(start), err)
	return unavailable(op, err)
}

func (s *SQL) FindAccountRow(ctx context.Context, userID string) (int64, bool, error) {
	start := time.Now()
	row, found, err := s.accounts.FindRow(ctx, userID)
	return row, found, observe("find_account_row", start, err)
}

func (s *SQL) ReadAccountRow(ctx context.Context, row int64) (*accountentity.Account, error) {
	start := time.Now()
	a, err := s.accounts.Read(ctx, row)
	return a, observe("read_account_row", start, err)
}

func (s *SQL) WriteAccountRow(ctx context.Context, row int64, a *accountentity.Account) error {
	start := time.Now()
	return observe("write_account_row", start, s.accounts.Write(ctx, row, a))
}

func (s *SQL) CreateAccountRow(ctx context.Context, userID string, startingBalance float64, today string) (int64, error) {
	start := time.Now()
	row, err := s.accounts.Create(ctx, userID, startingBalance, today)
	return row, observe("create_account_row", start, err)
}

func (s *SQL) ReadPoolRow(ctx context.Context) (*poolentity.Pool, error) {
	start := time.Now()
	p, err := s.pool.Read(ctx)
	return p, observe("read_pool_row", start, err)
}

func (s *SQL) WritePoolRow(ctx context.Context, p *poolentity.Pool) error {
	start := time.Now()
	return observe("write_pool_row", start, s.pool.Write(ctx, p))
}

func (s *SQL) AppendLedgerRow(ctx context.Context, e *ledgerentity.Entry) error {
	start := time.Now()
	return observe("append_ledger_row", start, s.ledger.Append(ctx, e))
}

func (s *SQL) ReadAllLedgerRows(ctx context.Context) ([]*ledgerentity.Entry, error) {
	start := time.Now()
	rows, err := s.ledger.ReadAll(ctx)
	return rows, observe("read_all_ledger_rows", start, err)
}
