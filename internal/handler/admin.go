package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/karnoweb/viewable/internal/compress"
	"github.com/karnoweb/viewable/internal/metrics"
)

// AdminHandler exposes operational endpoints: manual compression and the
// metrics snapshot.
type AdminHandler struct {
	engine   *compress.Engine
	snap     metrics.Snapshotter
	location *time.Location
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. snap may be nil when the
// configured recorder keeps no counters.
func NewAdminHandler(engine *compress.Engine, snap metrics.Snapshotter, location *time.Location, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		engine:   engine,
		snap:     snap,
		location: location,
		logger:   logger.With("component", "handler.admin"),
	}
}

// Compress handles POST /api/v1/admin/compress?date=2024-06-10&branch=3.
// Without a date it compresses yesterday.
func (h *AdminHandler) Compress(w http.ResponseWriter, r *http.Request) {
	day := time.Now().In(h.location).AddDate(0, 0, -1)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	var branchID *int64
	if raw := r.URL.Query().Get("branch"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid branch")
			return
		}
		branchID = &id
	}

	result, err := h.engine.CompressDay(r.Context(), day, branchID)
	if err != nil {
		h.logger.Error("manual compression failed", "date", day.Format("2006-01-02"), "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "compression failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Metrics handles GET /api/v1/admin/metrics.
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snap == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "metrics recorder keeps no counters")
		return
	}
	writeJSON(w, http.StatusOK, h.snap.Snapshot())
}
