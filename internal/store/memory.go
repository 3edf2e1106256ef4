package store

import (
	"context"
	"fmt"
	"sync"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

// Memory is an in-process Adapter. It is safe for concurrent use and is
// intended for tests and local development.
type Memory struct {
	mu       sync.Mutex
	accounts []accountentity.Account // row n lives at accounts[n-1]
	pool     poolentity.Pool
	ledger   []ledgerentity.Entry
	faults   map[string]error
	calls    map[string]int
}

var _ Adapter = (*Memory)(nil)

// NewMemory returns an empty store with an initial pool row.
func NewMemory() *Memory {
	return &Memory{
		pool:   poolentity.NewPool(),
		faults: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// FailOn makes every later call of op fail with err until cleared with a nil
// err. Op names match the Adapter method names.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// AccountRows returns the number of account rows.
func (m *Memory) AccountRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// SetPool replaces the pool row directly, bypassing fault injection.
func (m *Memory) SetPool(p poolentity.Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = p
}

// enter records the call and returns the injected fault for op, if any.
// Callers hold m.mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if err, ok := m.faults[op]; ok {
		return unavailable(op, err)
	}
	return nil
}

func (m *Memory) FindAccountRow(_ context.Context, userID string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindAccountRow"); err != nil {
		return 0, false, err
	}
	for i := range m.accounts {
		if m.accounts[i].UserID == userID {
			return int64(i + 1), true, nil
		}
	}
	return 0, false, nil
}

func (m *Memory) ReadAccountRow(_ context.Context, row int64) (*accountentity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReadAccountRow"); err != nil {
		return nil, err
	}
	if row < 1 || row > int64(len(m.accounts)) {
		return nil, unavailable("ReadAccountRow", fmt.Errorf("row %d out of range", row))
	}
	a := m.accounts[row-1]
	return &a, nil
}

func (m *Memory) WriteAccountRow(_ context.Context, row int64, a *accountentity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("WriteAccountRow"); err != nil {
		return err
	}
	if row < 1 || row > int64(len(m.accounts)) {
		return unavailable("WriteAccountRow", fmt.Errorf("row %d out of range", row))
	}
	m.accounts[row-1] = *a
	return nil
}

func (m *Memory) CreateAccountRow(_ context.Context, userID string, startingBalance float64, today string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateAccountRow"); err != nil {
		return 0, err
	}
	m.accounts = append(m.accounts, accountentity.Account{
		UserID:         userID,
		Balance:        startingBalance,
		LastDailyReset: today,
	})
	return int64(len(m.accounts)), nil
}

func (m *Memory) ReadPoolRow(_ context.Context) (*poolentity.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReadPoolRow"); err != nil {
		return nil, err
	}
	p := m.pool
	return &p, nil
}

func (m *Memory) WritePoolRow(_ context.Context, p *poolentity.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("WritePoolRow"); err != nil {
		return err
	}
	m.pool = *p
	return nil
}

func (m *Memory) AppendLedgerRow(_ context.Context, e *ledgerentity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("AppendLedgerRow"); err != nil {
		return err
	}
	e.Seq = int64(len(m.ledger) + 1)
	m.ledger = append(m.ledger, *e)
	return nil
}

func (m *Memory) ReadAllLedgerRows(_ context.Context) ([]*ledgerentity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReadAllLedgerRows"); err != nil {
		return nil, err
	}
	out := make([]*ledgerentity.Entry, len(m.ledger))
	for i := range m.ledger {
		e := m.ledger[i]
		out[i] = &e
	}
	return out, nil
}
