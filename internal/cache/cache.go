// Package cache puts time-bounded read-through, write-through caches in front
// of the row store and owns the guard that serializes all store traffic.
//
// Writes always reach the store before the cache is touched, so a put that
// returns nil is visible to every later get in this process regardless of
// TTL. Other processes may observe values up to one TTL old.
package cache

import (
	"context"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/store"
)

const (
	poolKey   = "pool"
	ledgerKey = "ledger"
)

// Config holds the per-table TTLs.
type Config struct {
	AccountTTL      time.Duration
	PoolTTL         time.Duration
	LedgerTTL       time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig mirrors the freshness windows the award service was tuned with.
func DefaultConfig() Config {
	return Config{
		AccountTTL:      30 * time.Second,
		PoolTTL:         30 * time.Second,
		LedgerTTL:       60 * time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// ConfigFromEnv reads CACHE_ACCOUNT_TTL, CACHE_POOL_TTL, CACHE_LEDGER_TTL and
// CACHE_CLEANUP_INTERVAL as Go durations.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	durationEnv("CACHE_ACCOUNT_TTL", &cfg.AccountTTL)
	durationEnv("CACHE_POOL_TTL", &cfg.PoolTTL)
	durationEnv("CACHE_LEDGER_TTL", &cfg.LedgerTTL)
	durationEnv("CACHE_CLEANUP_INTERVAL", &cfg.CleanupInterval)
	return cfg
}

func durationEnv(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}

type accountEntry struct {
	row     int64
	account accountentity.Account
}

// Cache fronts a store.Adapter with one TTL cache per table.
type Cache struct {
	store    store.Adapter
	guard    *Guard
	clock    clockwork.Clock
	starting func() float64
	logger   *zap.SugaredLogger

	accounts *gocache.Cache
	pool     *gocache.Cache
	ledger   *gocache.Cache
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock sets the clock used to date newly provisioned accounts.
func WithClock(c clockwork.Clock) Option {
	return func(cc *Cache) { cc.clock = c }
}

// WithStartingBalance sets the balance given to accounts created on first
// reference. It is consulted at creation time, so overrides apply at once.
func WithStartingBalance(fn func() float64) Option {
	return func(cc *Cache) { cc.starting = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(cc *Cache) { cc.logger = l }
}

// New builds a Cache over st.
func New(st store.Adapter, cfg Config, opts ...Option) *Cache {
	c := &Cache{
		store:    st,
		guard:    NewGuard(),
		clock:    clockwork.NewRealClock(),
		starting: func() float64 { return 0 },
		logger:   zap.NewNop().Sugar(),
		accounts: gocache.New(cfg.AccountTTL, cfg.CleanupInterval),
		pool:     gocache.New(cfg.PoolTTL, cfg.CleanupInterval),
		ledger:   gocache.New(cfg.LedgerTTL, cfg.CleanupInterval),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Atomic runs fn with the guard held for its entire span. Cache updates made
// through tx become visible only if fn returns nil; if fn fails, account and
// pool rows it already wrote are restored in the store before the guard is
// released.
func (c *Cache) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	return c.guard.Do(ctx, func() error {
		tx := newTx(ctx, c)
		if err := fn(tx); err != nil {
			tx.rollback()
			return err
		}
		tx.commit()
		return nil
	})
}

// GetAccount returns the account for userID, creating it on first reference.
func (c *Cache) GetAccount(ctx context.Context, userID string) (accountentity.Account, error) {
	var a accountentity.Account
	err := c.Atomic(ctx, func(tx *Tx) error {
		var err error
		a, err = tx.GetAccount(userID)
		return err
	})
	return a, err
}

// PutAccount writes a through to the store and refreshes its cache entry.
func (c *Cache) PutAccount(ctx context.Context, a accountentity.Account) error {
	return c.Atomic(ctx, func(tx *Tx) error { return tx.PutAccount(a) })
}

// GetPool returns the shared pool state.
func (c *Cache) GetPool(ctx context.Context) (poolentity.Pool, error) {
	var p poolentity.Pool
	err := c.Atomic(ctx, func(tx *Tx) error {
		var err error
		p, err = tx.GetPool()
		return err
	})
	return p, err
}

// PutPool writes p through to the store and refreshes the cached pool.
func (c *Cache) PutPool(ctx context.Context, p poolentity.Pool) error {
	return c.Atomic(ctx, func(tx *Tx) error { return tx.PutPool(p) })
}

// AppendLedger appends e and invalidates the ledger snapshot.
func (c *Cache) AppendLedger(ctx context.Context, e *ledgerentity.Entry) error {
	return c.Atomic(ctx, func(tx *Tx) error { return tx.AppendLedger(e) })
}

// GetLedgerSnapshot returns every ledger entry, cached for the ledger TTL.
func (c *Cache) GetLedgerSnapshot(ctx context.Context) ([]*ledgerentity.Entry, error) {
	var out []*ledgerentity.Entry
	err := c.Atomic(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.LedgerSnapshot()
		return err
	})
	return out, err
}

// Flush drops every cached value.
func (c *Cache) Flush() {
	c.accounts.Flush()
	c.pool.Flush()
	c.ledger.Flush()
}

func (c *Cache) today() string {
	return c.clock.Now().Format(time.DateOnly)
}

func copyEntries(in []*ledgerentity.Entry) []*ledgerentity.Entry {
	out := make([]*ledgerentity.Entry, len(in))
	for i, e := range in {
		cp := *e
		out[i] = &cp
	}
	return out
}
