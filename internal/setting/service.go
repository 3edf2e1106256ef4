package setting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

// ParamsSettingID is the id of the persisted override row.
const ParamsSettingID = "award_params"

// sentinel errors for common failure modes
var (
	ErrAuthorizationFailed = errors.New("authorization failed")
	ErrInvalidParams       = errors.New("invalid params")
)

// Store persists accepted overrides. *repo.Repo implements it.
type Store interface {
	Get(ctx context.Context, id string) (*entity.Setting, error)
	Upsert(ctx context.Context, s *entity.Setting) error
}

// snapshot is one immutable published parameter set.
type snapshot struct {
	params     entity.Params
	secretHash []byte
}

type recordMeta struct {
	SecretHash string `json:"secret_hash"`
}

// Service publishes the current parameter set. Reads are lock-free; overrides
// are serialized and swap in a complete new snapshot.
type Service struct {
	mu     sync.Mutex
	cur    atomic.Pointer[snapshot]
	store  Store
	cost   int
	logger *zap.SugaredLogger
}

// NewService hashes initial.Secret and publishes initial. store may be nil, in
// which case overrides live only in memory.
func NewService(initial entity.Params, store Store, bcryptCost int, logger *zap.SugaredLogger) (*Service, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{store: store, cost: bcryptCost, logger: logger}
	hash, err := s.hash(initial.Secret)
	if err != nil {
		return nil, err
	}
	p := initial.Clone()
	p.Secret = ""
	s.cur.Store(&snapshot{params: p, secretHash: hash})
	return s, nil
}

func (s *Service) hash(secret string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	return h, nil
}

// Current returns a copy of the published parameters. Secret is always empty.
func (s *Service) Current() entity.Params {
	return s.cur.Load().params.Clone()
}

// DefaultSecret reports whether the override secret in effect is still the
// built-in one.
func (s *Service) DefaultSecret() bool {
	return bcrypt.CompareHashAndPassword(s.cur.Load().secretHash, []byte(entity.DefaultParams().Secret)) == nil
}

// Restore replaces the published snapshot with the persisted override row, if
// one exists. A persisted secret hash wins over the one derived at startup.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	row, err := s.store.Get(ctx, ParamsSettingID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if row == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur.Load()
	p := cur.params.Clone()
	if err := json.Unmarshal(row.Metadata, &p); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	p.Secret = ""
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	next := &snapshot{params: p, secretHash: cur.secretHash}
	var meta recordMeta
	if len(row.RecordMeta) > 0 && json.Unmarshal(row.RecordMeta, &meta) == nil && meta.SecretHash != "" {
		next.secretHash = []byte(meta.SecretHash)
	}
	s.cur.Store(next)
	s.logger.Infow("settings restored", "updated_at", row.UpdatedAt)
	return nil
}

// Override authenticates secret and applies the keys of patch that name
// existing parameters; other keys are ignored. It returns the applied keys in
// sorted order. On any error nothing changes.
func (s *Service) Override(ctx context.Context, secret string, patch map[string]any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cur.Load()
	if bcrypt.CompareHashAndPassword(cur.secretHash, []byte(secret)) != nil {
		s.logger.Warnw("override rejected", "reason", "secret mismatch")
		return nil, ErrAuthorizationFailed
	}

	raw, err := paramsToMap(cur.params)
	if err != nil {
		return nil, err
	}
	changed := make([]string, 0, len(patch))
	for k, v := range patch {
		if _, known := raw[k]; !known {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, k, err)
		}
		raw[k] = b
		changed = append(changed, k)
	}
	sort.Strings(changed)

	merged, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	next := entity.Params{}
	if err := json.Unmarshal(merged, &next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	hash := cur.secretHash
	if _, ok := patch[entity.SecretKey]; ok {
		if hash, err = s.hash(next.Secret); err != nil {
			return nil, err
		}
	}
	next.Secret = ""

	if err := s.persist(ctx, next, hash); err != nil {
		return nil, err
	}
	s.cur.Store(&snapshot{params: next, secretHash: hash})
	s.logger.Infow("settings overridden", "keys", changed)
	return changed, nil
}

func (s *Service) persist(ctx context.Context, p entity.Params, hash []byte) error {
	if s.store == nil {
		return nil
	}
	metadata, err := json.Marshal(p)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(recordMeta{SecretHash: string(hash)})
	if err != nil {
		return err
	}
	row := entity.NewSetting(ParamsSettingID, "award", meta, metadata)
	row.UpdatedAt = time.Now().UTC()
	if err := s.store.Upsert(ctx, row); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// paramsToMap renders p keyed by parameter name; the key set is exactly the
// set of names Override accepts.
func paramsToMap(p entity.Params) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
