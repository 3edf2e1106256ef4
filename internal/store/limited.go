package store

import (
	"context"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

// LimitConfig bounds the call rate towards the backing store.
type LimitConfig struct {
	RPS   float64
	Burst int
}

// LimitConfigFromEnv reads STORE_RPS and STORE_BURST. STORE_RPS <= 0 disables
// limiting.
func LimitConfigFromEnv() LimitConfig {
	cfg := LimitConfig{RPS: 10, Burst: 20}
	if v := os.Getenv("STORE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RPS = f
		}
	}
	if v := os.Getenv("STORE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Burst = n
		}
	}
	return cfg
}

// Limited wraps an Adapter so that every call first waits for a token. A
// context cancelled while waiting surfaces as ErrUnavailable.
type Limited struct {
	next    Adapter
	limiter *rate.Limiter
}

var _ Adapter = (*Limited)(nil)

// NewLimited returns next throttled by cfg.
func NewLimited(next Adapter, cfg LimitConfig) *Limited {
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) wait(ctx context.Context, op string) error {
	return unavailable(op, l.limiter.Wait(ctx))
}

func (l *Limited) FindAccountRow(ctx context.Context, userID string) (int64, bool, error) {
	if err := l.wait(ctx, "find_account_row"); err != nil {
		return 0, false, err
	}
	return l.next.FindAccountRow(ctx, userID)
}

func (l *Limited) ReadAccountRow(ctx context.Context, row int64) (*accountentity.Account, error) {
	if err := l.wait(ctx, "read_account_row"); err != nil {
		return nil, err
	}
	return l.next.ReadAccountRow(ctx, row)
}

func (l *Limited) WriteAccountRow(ctx context.Context, row int64, a *accountentity.Account) error {
	if err := l.wait(ctx, "write_account_row"); err != nil {
		return err
	}
	return l.next.WriteAccountRow(ctx, row, a)
}

func (l *Limited) CreateAccountRow(ctx context.Context, userID string, startingBalance float64, today string) (int64, error) {
	if err := l.wait(ctx, "create_account_row"); err != nil {
		return 0, err
	}
	return l.next.CreateAccountRow(ctx, userID, startingBalance, today)
}

func (l *Limited) ReadPoolRow(ctx context.Context) (*poolentity.Pool, error) {
	if err := l.wait(ctx, "read_pool_row"); err != nil {
		return nil, err
	}
	return l.next.ReadPoolRow(ctx)
}

func (l *Limited) WritePoolRow(ctx context.Context, p *poolentity.Pool) error {
	if err := l.wait(ctx, "write_pool_row"); err != nil {
		return err
	}
	return l.next.WritePoolRow(ctx, p)
}

func (l *Limited) AppendLedgerRow(ctx context.Context, e *ledgerentity.Entry) error {
	if err := l.wait(ctx, "append_ledger_row"); err != nil {
		return err
	}
	return l.next.AppendLedgerRow(ctx, e)
}

func (l *Limited) ReadAllLedgerRows(ctx context.Context) ([]*ledgerentity.Entry, error) {
	if err := l.wait(ctx, "read_all_ledger_rows"); err != nil {
		return nil, err
	}
	return l.next.ReadAllLedgerRows(ctx)
}
