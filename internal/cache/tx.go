package cache

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/metrics"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

// Tx is the view handed to Cache.Atomic callbacks. Its methods assume the
// guard is already held and must not be used after the callback returns.
//
// Account and pool writes reach the store immediately. If the callback fails,
// every row already written is put back to the value it held before the span.
// Ledger appends are final, so callbacks append last.
type Tx struct {
	ctx context.Context
	c   *Cache

	// staged holds values already written to the store but not yet published
	// to the cache.
	staged map[string]accountEntry
	pool   *poolentity.Pool

	// prior holds the value each written row had before its first write.
	prior     map[string]accountEntry
	priorPool *poolentity.Pool
}

func newTx(ctx context.Context, c *Cache) *Tx {
	return &Tx{
		ctx:    ctx,
		c:      c,
		staged: make(map[string]accountEntry),
		prior:  make(map[string]accountEntry),
	}
}

// GetAccount returns the account for userID: staged value first, then a fresh
// cache entry, then the store. Unknown users are created with the starting
// balance.
func (tx *Tx) GetAccount(userID string) (accountentity.Account, error) {
	e, err := tx.load(userID)
	if err != nil {
		return accountentity.Account{}, err
	}
	return e.account, nil
}

func (tx *Tx) load(userID string) (accountEntry, error) {
	if e, ok := tx.staged[userID]; ok {
		return e, nil
	}
	if v, ok := tx.c.accounts.Get(userID); ok {
		metrics.CacheLookup("accounts", true)
		return v.(accountEntry), nil
	}
	metrics.CacheLookup("accounts", false)

	row, err := tx.findOrCreate(userID)
	if err != nil {
		return accountEntry{}, err
	}
	a, err := tx.c.store.ReadAccountRow(tx.ctx, row)
	if err != nil {
		return accountEntry{}, err
	}
	e := accountEntry{row: row, account: *a}
	tx.c.accounts.Set(userID, e, gocache.DefaultExpiration)
	return e, nil
}

func (tx *Tx) findOrCreate(userID string) (int64, error) {
	row, found, err := tx.c.store.FindAccountRow(tx.ctx, userID)
	if err != nil {
		return 0, err
	}
	if found {
		return row, nil
	}
	starting := tx.c.starting()
	row, err = tx.c.store.CreateAccountRow(tx.ctx, userID, starting, tx.c.today())
	if err != nil {
		return 0, err
	}
	tx.c.logger.Infow("account created", "user_id", userID, "row", row, "starting_balance", starting)
	return row, nil
}

// PutAccount writes a to the store and stages it for the cache. A missing
// account is created first, so a rollback leaves it at its starting values.
func (tx *Tx) PutAccount(a accountentity.Account) error {
	if a.UserID == "" {
		return fmt.Errorf("put account: empty user id")
	}
	before, err := tx.load(a.UserID)
	if err != nil {
		return err
	}
	if err := tx.c.store.WriteAccountRow(tx.ctx, before.row, &a); err != nil {
		return err
	}
	if _, ok := tx.prior[a.UserID]; !ok {
		tx.prior[a.UserID] = before
	}
	tx.staged[a.UserID] = accountEntry{row: before.row, account: a}
	return nil
}

// GetPool returns the staged pool, the cached pool, or the stored row.
func (tx *Tx) GetPool() (poolentity.Pool, error) {
	if tx.pool != nil {
		return *tx.pool, nil
	}
	if v, ok := tx.c.pool.Get(poolKey); ok {
		metrics.CacheLookup("pool", true)
		return v.(poolentity.Pool), nil
	}
	metrics.CacheLookup("pool", false)
	p, err := tx.c.store.ReadPoolRow(tx.ctx)
	if err != nil {
		return poolentity.Pool{}, err
	}
	tx.c.pool.Set(poolKey, *p, gocache.DefaultExpiration)
	return *p, nil
}

// PutPool writes p to the store and stages it for the cache.
func (tx *Tx) PutPool(p poolentity.Pool) error {
	before, err := tx.GetPool()
	if err != nil {
		return err
	}
	if err := tx.c.store.WritePoolRow(tx.ctx, &p); err != nil {
		return err
	}
	if tx.priorPool == nil {
		tx.priorPool = &before
	}
	tx.pool = &p
	return nil
}

// AppendLedger appends e to the store. The snapshot is dropped as soon as the
// append succeeds, whatever happens to the rest of the transaction.
func (tx *Tx) AppendLedger(e *ledgerentity.Entry) error {
	if err := tx.c.store.AppendLedgerRow(tx.ctx, e); err != nil {
		return err
	}
	tx.c.ledger.Delete(ledgerKey)
	return nil
}

// LedgerSnapshot returns a copy of every ledger entry.
func (tx *Tx) LedgerSnapshot() ([]*ledgerentity.Entry, error) {
	if v, ok := tx.c.ledger.Get(ledgerKey); ok {
		metrics.CacheLookup("ledger", true)
		return copyEntries(v.([]*ledgerentity.Entry)), nil
	}
	metrics.CacheLookup("ledger", false)
	rows, err := tx.c.store.ReadAllLedgerRows(tx.ctx)
	if err != nil {
		return nil, err
	}
	tx.c.ledger.Set(ledgerKey, rows, gocache.DefaultExpiration)
	return copyEntries(rows), nil
}

func (tx *Tx) commit() {
	for id, e := range tx.staged {
		tx.c.accounts.Set(id, e, gocache.DefaultExpiration)
	}
	if tx.pool != nil {
		tx.c.pool.Set(poolKey, *tx.pool, gocache.DefaultExpiration)
	}
}

// rollback writes the prior value back to every row the span wrote. The guard
// is still held, so no other span sees the intermediate state. A row that
// cannot be restored is evicted and the next read goes back to the store.
func (tx *Tx) rollback() {
	if len(tx.prior) == 0 && tx.priorPool == nil {
		return
	}
	// the span may have failed because ctx was cancelled
	ctx := context.WithoutCancel(tx.ctx)
	failed := 0
	for id, e := range tx.prior {
		if err := tx.c.store.WriteAccountRow(ctx, e.row, &e.account); err != nil {
			failed++
			tx.c.accounts.Delete(id)
			tx.c.logger.Errorw("restore account failed", "user_id", id, "row", e.row, "err", err)
			continue
		}
		tx.c.accounts.Set(id, e, gocache.DefaultExpiration)
	}
	if tx.priorPool != nil {
		if err := tx.c.store.WritePoolRow(ctx, tx.priorPool); err != nil {
			failed++
			tx.c.pool.Delete(poolKey)
			tx.c.logger.Errorw("restore pool failed", "err", err)
		} else {
			tx.c.pool.Set(poolKey, *tx.priorPool, gocache.DefaultExpiration)
		}
	}
	tx.c.logger.Warnw("transaction rolled back",
		"accounts", len(tx.prior), "pool", tx.priorPool != nil, "restore_failures", failed)
}
