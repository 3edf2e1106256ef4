package award

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/store"
)

// Handler contains dependencies for handling award endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a new Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	UserID string `json:"user_id"`
}

// EventRequest is the body of the PR and EA endpoints. Tier only applies to
// EA and defaults to the first tier.
type EventRequest struct {
	ReferenceID string `json:"reference_id"`
	Tier        int    `json:"tier"`
}

// AwardRequest is the body of POST /awards.
type AwardRequest struct {
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Action      string  `json:"action_type"`
	ReferenceID string  `json:"reference_id"`
}

// Register handles POST /users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	wallet, err := h.svc.Register(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wallet)
}

// Wallet handles GET /users/{id}/wallet.
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.Wallet(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wallet)
}

// PostPR handles POST /users/{id}/pr.
func (h *Handler) PostPR(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.PostPR(r.Context(), r.PathValue("id"), req.ReferenceID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// PostEA handles POST /users/{id}/ea.
func (h *Handler) PostEA(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.PostEA(r.Context(), r.PathValue("id"), req.ReferenceID, req.Tier)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Award handles POST /awards for arbitrary event kinds.
func (h *Handler) Award(w http.ResponseWriter, r *http.Request) {
	var req AwardRequest
	if !h.decode(w, r, &req) {
		return
	}
	action := ledgerentity.Action(strings.ToUpper(strings.TrimSpace(req.Action)))
	if action == "" {
		action = ledgerentity.ActionAward
	}
	res, err := h.svc.Award(r.Context(), req.UserID, req.Amount, action, req.ReferenceID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Ledger handles GET /ledger?user_id=&action_type=.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListLedger(r.Context(), filterFrom(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// DailyTotals handles GET /ledger/daily?user_id=&action_type=.
func (h *Handler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.svc.DailyTotals(r.Context(), filterFrom(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

func filterFrom(r *http.Request) ledgerentity.Filter {
	q := r.URL.Query()
	return ledgerentity.Filter{
		UserID: strings.TrimSpace(q.Get("user_id")),
		Action: ledgerentity.Action(strings.ToUpper(strings.TrimSpace(q.Get("action_type")))),
	}
}

// decode reads an optional JSON body. An empty body leaves v at its zero value.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		h.logger.Warnw("store unavailable", "err", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable"})
	default:
		h.logger.Errorw("request failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
