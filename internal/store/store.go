// Package store defines the row-oriented contract the award core consumes and
// its implementations. Every failure crossing this boundary is reported as
// ErrUnavailable; callers never retry inside the core.
package store

import (
	"context"
	"errors"
	"fmt"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
)

// ErrUnavailable marks any failure of the underlying row store.
var ErrUnavailable = errors.New("store unavailable")

// Adapter is the row-level contract over the Accounts, Pool and Ledger tables.
// Implementations need not be safe against interleaved read-modify-write;
// the cache guard serializes all callers.
type Adapter interface {
	FindAccountRow(ctx context.Context, userID string) (row int64, found bool, err error)
	ReadAccountRow(ctx context.Context, row int64) (*accountentity.Account, error)
	WriteAccountRow(ctx context.Context, row int64, a *accountentity.Account) error
	CreateAccountRow(ctx context.Context, userID string, startingBalance float64, today string) (int64, error)

	ReadPoolRow(ctx context.Context) (*poolentity.Pool, error)
	WritePoolRow(ctx context.Context, p *poolentity.Pool) error

	AppendLedgerRow(ctx context.Context, e *ledgerentity.Entry) error
	ReadAllLedgerRows(ctx context.Context) ([]*ledgerentity.Entry, error)
}

// unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while the
// cause stays inspectable.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
