package award

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/ledger"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/metrics"
	settingentity "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/utilities"
)

// ErrInvalidRequest is returned for requests the engine refuses to evaluate.
var ErrInvalidRequest = errors.New("invalid request")

// ParamsSource yields the parameter snapshot for one operation.
// *setting.Service implements it.
type ParamsSource interface {
	Current() settingentity.Params
}

// Result describes the outcome of one award.
type Result struct {
	UserID       string               `json:"user_id"`
	Action       ledgerentity.Action  `json:"action_type"`
	Requested    float64              `json:"requested"`
	Multiplier   float64              `json:"multiplier"`
	Credited     float64              `json:"credited"`
	LimitReached bool                 `json:"limit_reached"`
	Wallet       accountentity.Wallet `json:"wallet"`
	Entry        *ledgerentity.Entry  `json:"entry"`
}

// Service is the award engine. It owns no state of its own: accounts and the
// pool are read and written through the cache, inside one guarded span per
// operation.
type Service struct {
	cache  *cache.Cache
	params ParamsSource
	clock  clockwork.Clock
	logger *zap.SugaredLogger
	newID  func() string
}

// NewService wires the engine. clock may be nil for the real clock.
func NewService(c *cache.Cache, params ParamsSource, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{cache: c, params: params, clock: clock, logger: logger, newID: utilities.NewSnowflakeID}
}

func (s *Service) entry(now time.Time, userID string, action ledgerentity.Action, ref string, amount float64, notes string) *ledgerentity.Entry {
	return &ledgerentity.Entry{
		ID:          s.newID(),
		Timestamp:   now,
		UserID:      userID,
		Action:      action,
		ReferenceID: ref,
		Amount:      amount,
		Notes:       notes,
	}
}

// Register makes sure the account exists and records a REGISTER entry. Every
// call is ledgered; the account row is created at most once.
func (s *Service) Register(ctx context.Context, userID string) (accountentity.Wallet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return accountentity.Wallet{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	now := s.clock.Now()
	var w accountentity.Wallet
	err := s.cache.Atomic(ctx, func(tx *cache.Tx) error {
		a, err := tx.GetAccount(userID)
		if err != nil {
			return err
		}
		w = a.Wallet()
		return tx.AppendLedger(s.entry(now, userID, ledgerentity.ActionRegister, "", 0, "User creation/exists"))
	})
	if err != nil {
		s.logger.Warnw("register failed", "user_id", userID, "err", err)
		return accountentity.Wallet{}, err
	}
	s.logger.Infow("user registered", "user_id", userID)
	return w, nil
}

// Award credits base scaled by the pool multiplier and clamped by the daily
// cap. A zero credit is a valid outcome and is still ledgered. POST_PR events
// past MAX_DAILY_PRS credit nothing, leave the account and pool untouched and
// set LimitReached.
func (s *Service) Award(ctx context.Context, userID string, base float64, action ledgerentity.Action, ref string) (*Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || action == "" || base < 0 {
		return nil, fmt.Errorf("%w: user id, action and a non-negative amount are required", ErrInvalidRequest)
	}
	p := s.params.Current()
	now := s.clock.Now()
	today := now.Format(time.DateOnly)
	res := &Result{UserID: userID, Action: action, Requested: base, Multiplier: 1.0}

	err := s.cache.Atomic(ctx, func(tx *cache.Tx) error {
		a, err := tx.GetAccount(userID)
		if err != nil {
			return err
		}
		ResetDaily(&a, today)

		if action == ledgerentity.ActionPostPR && a.DailyPRCount >= p.MaxDailyPRs {
			res.LimitReached = true
			res.Wallet = a.Wallet()
			res.Entry = s.entry(now, userID, action, ref, 0, fmt.Sprintf("Daily PR limit of %d reached", p.MaxDailyPRs))
			return tx.AppendLedger(res.Entry)
		}

		pool, err := tx.GetPool()
		if err != nil {
			return err
		}
		pool, _ = Rollover(p, pool, now)
		if p.UseHourLogic {
			pool.CurrentMultiplier = NextMultiplier(p, pool, FractionOfHour(now))
			res.Multiplier = pool.CurrentMultiplier
		}

		credited := ApplyDailyCap(&a, p.DailyUserCap, base*res.Multiplier)
		if action == ledgerentity.ActionPostPR {
			a.DailyPRCount++
		}
		pool.HourAwardingSoFar += credited

		if err := tx.PutPool(pool); err != nil {
			return err
		}
		if err := tx.PutAccount(a); err != nil {
			return err
		}
		res.Credited = credited
		res.Wallet = a.Wallet()
		res.Entry = s.entry(now, userID, action, ref, credited, notesFor(action, credited, base*res.Multiplier))
		if err := tx.AppendLedger(res.Entry); err != nil {
			return err
		}
		metrics.Pool(pool.CurrentMultiplier, pool.HourAwardingSoFar)
		return nil
	})
	if err != nil {
		metrics.Award(string(action), "error", 0)
		s.logger.Warnw("award failed", "user_id", userID, "action", action, "err", err)
		return nil, err
	}

	metrics.Award(string(action), outcome(res), res.Credited)
	s.logger.Infow("award",
		"user_id", userID,
		"action", action,
		"requested", base,
		"multiplier", res.Multiplier,
		"credited", res.Credited,
		"limit_reached", res.LimitReached,
	)
	return res, nil
}

func outcome(r *Result) string {
	switch {
	case r.LimitReached:
		return "limit_reached"
	case r.Credited < r.Requested*r.Multiplier:
		return "capped"
	default:
		return "credited"
	}
}

func notesFor(action ledgerentity.Action, credited, scaled float64) string {
	if credited < scaled {
		return "Daily cap reached"
	}
	switch action {
	case ledgerentity.ActionPostPR:
		return "User posted PR"
	case ledgerentity.ActionPostEA:
		return "User posted EA"
	default:
		return ""
	}
}

// PostPR awards PR_AWARD for a personal record.
func (s *Service) PostPR(ctx context.Context, userID, ref string) (*Result, error) {
	return s.Award(ctx, userID, s.params.Current().PRAward, ledgerentity.ActionPostPR, ref)
}

// PostEA awards the given EA_AWARD_TIERS entry for an encouraging act.
func (s *Service) PostEA(ctx context.Context, userID, ref string, tier int) (*Result, error) {
	tiers := s.params.Current().EAAwardTiers
	if tier < 0 || tier >= len(tiers) {
		return nil, fmt.Errorf("%w: tier %d out of range [0,%d)", ErrInvalidRequest, tier, len(tiers))
	}
	return s.Award(ctx, userID, tiers[tier], ledgerentity.ActionPostEA, ref)
}

// Wallet returns the balances of userID, creating the account on first
// reference. A pending daily reset is applied and persisted first.
func (s *Service) Wallet(ctx context.Context, userID string) (accountentity.Wallet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return accountentity.Wallet{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	today := s.clock.Now().Format(time.DateOnly)
	var w accountentity.Wallet
	err := s.cache.Atomic(ctx, func(tx *cache.Tx) error {
		a, err := tx.GetAccount(userID)
		if err != nil {
			return err
		}
		if ResetDaily(&a, today) {
			if err := tx.PutAccount(a); err != nil {
				return err
			}
		}
		w = a.Wallet()
		return nil
	})
	return w, err
}

// ListLedger returns the ledger entries matching f in append order.
func (s *Service) ListLedger(ctx context.Context, f ledgerentity.Filter) ([]*ledgerentity.Entry, error) {
	entries, err := s.cache.GetLedgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Select(entries, f), nil
}

// DailyTotals sums the awarded amounts matching f per calendar day.
func (s *Service) DailyTotals(ctx context.Context, f ledgerentity.Filter) ([]ledgerentity.DailyTotal, error) {
	entries, err := s.cache.GetLedgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.DailyTotals(entries, f), nil
}

// RollPool persists an hour rollover if one is due. It reports whether the
// pool was rolled.
func (s *Service) RollPool(ctx context.Context) (bool, error) {
	p := s.params.Current()
	now := s.clock.Now()
	var rolled bool
	err := s.cache.Atomic(ctx, func(tx *cache.Tx) error {
		pool, err := tx.GetPool()
		if err != nil {
			return err
		}
		pool, rolled = Rollover(p, pool, now)
		if !rolled {
			return nil
		}
		return tx.PutPool(pool)
	})
	if err != nil {
		return false, err
	}
	if rolled {
		s.logger.Infow("pool rolled over", "hour_index", HourIndex(now))
	}
	return rolled, nil
}
