package setting

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

// Handler contains dependencies for handling setting endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a new Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// OverrideRequest is the body of the override endpoint.
type OverrideRequest struct {
	Secret string         `json:"secret"`
	Patch  map[string]any `json:"patch"`
}

// OverrideResponse lists the keys that were applied.
type OverrideResponse struct {
	OK      bool     `json:"ok"`
	Changed []string `json:"changed"`
}

// Get returns the current parameters. The secret is never included.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p := h.svc.Current()
	raw, err := paramsToMap(p)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode settings"})
		return
	}
	delete(raw, entity.SecretKey)
	h.writeJSON(w, http.StatusOK, raw)
}

// Override applies a guarded parameter patch.
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid override payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	changed, err := h.svc.Override(r.Context(), req.Secret, req.Patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthorizationFailed):
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret key"})
		case errors.Is(err, ErrInvalidParams):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.logger.Warnw("override failed", "err", err)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "override failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, OverrideResponse{OK: true, Changed: changed})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
