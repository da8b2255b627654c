package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/davidahmann/tradedesk/internal/auth"
	"github.com/davidahmann/tradedesk/internal/ledger"
	"github.com/davidahmann/tradedesk/internal/snapshot"
	"github.com/davidahmann/tradedesk/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

type Handler struct {
	Auth        auth.Authenticator
	Service     *DecisionService
	Metrics     *telemetry.Metrics
	MetricsPath string
	Logger      *zap.Logger
	Now         func() time.Time
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Service == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "decision service not configured"})
		return
	}

	now := h.now()
	if raw := r.URL.Query().Get("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "now must be RFC3339"})
			return
		}
		now = parsed
	}

	snap, err := snapshot.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	rep, err := h.Service.Evaluate(snap, now)
	if err != nil {
		h.logger().Error("evaluate failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Service == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "decision service not configured"})
		return
	}

	reportID := chi.URLParam(r, "reportID")
	rep, err := h.Service.GetReport(reportID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
	case err != nil:
		h.logger().Error("load report failed", zap.String("report_id", reportID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

func (h *Handler) CreateDismissal(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	if h.Service == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "decision service not configured"})
		return
	}

	var req DismissRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	dismissal, err := h.Service.Dismiss(claims.Subject, req, h.now())
	switch {
	case errors.Is(err, ErrInvalidDismissal):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusCreated, dismissal)
	}
}

func (h *Handler) ListDismissals(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Service == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "decision service not configured"})
		return
	}

	dismissals, err := h.Service.ListDismissals(h.now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dismissals": dismissals})
}

func (h *Handler) DeleteDismissal(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Service == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "decision service not configured"})
		return
	}

	itemID := chi.URLParam(r, "itemID")
	err := h.Service.Undismiss(itemID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dismissal not found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) Authenticate(r *http.Request) (auth.Claims, error) {
	if h.Auth == nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return h.Auth.Authenticate(r)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
