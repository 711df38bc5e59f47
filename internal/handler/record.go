package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/karnoweb/viewable/internal/view"
)

// RecordHandler accepts incoming views.
type RecordHandler struct {
	service *view.Service
	logger  *slog.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(service *view.Service, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		service: service,
		logger:  logger.With("component", "handler.record"),
	}
}

// recordRequest is the POST body for recording a view.
type recordRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Collection string `json:"collection,omitempty"`
	BranchID   *int64 `json:"branch_id,omitempty"`
	UserID     *int64 `json:"user_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// recordResponse reports what happened to the view.
type recordResponse struct {
	Status string `json:"status"`
}

// Record handles POST /api/v1/views.
func (h *RecordHandler) Record(w http.ResponseWriter, r *http.Request) {
	var body recordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body")
		return
	}

	req := view.ViewRequest{
		EntityType: body.EntityType,
		EntityID:   body.EntityID,
		Collection: body.Collection,
		BranchID:   body.BranchID,
		UserID:     body.UserID,
		SessionID:  body.SessionID,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
		Referer:    r.Referer(),
	}

	outcome, err := h.service.Record(r.Context(), req, time.Now())
	if err != nil {
		if errors.Is(err, view.ErrMissingEntity) {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		h.logger.Error("failed to record view", "entity_type", body.EntityType, "entity_id", body.EntityID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record view")
		return
	}

	status := http.StatusCreated
	if outcome != view.OutcomeRecorded {
		status = http.StatusOK
	}
	writeJSON(w, status, recordResponse{Status: string(outcome)})
}

// clientIP resolves the originating address, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
