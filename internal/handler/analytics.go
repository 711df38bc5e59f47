package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/karnoweb/viewable/internal/analytics"
	"github.com/karnoweb/viewable/internal/calendar"
)

// AnalyticsHandler serves analytics reads.
type AnalyticsHandler struct {
	engine    *analytics.Engine
	calendars *calendar.Manager
	logger    *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(engine *analytics.Engine, calendars *calendar.Manager, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine:    engine,
		calendars: calendars,
		logger:    logger.With("component", "handler.analytics"),
	}
}

// entityQuery builds the engine query from path and query parameters.
func (h *AnalyticsHandler) entityQuery(r *http.Request, needID bool) (analytics.Query, bool) {
	q := analytics.Query{
		EntityType: chi.URLParam(r, "entityType"),
		EntityID:   chi.URLParam(r, "entityID"),
	}
	if q.EntityType == "" || (needID && q.EntityID == "") {
		return q, false
	}
	collection, branchID, err := parseScope(r)
	if err != nil {
		return q, false
	}
	q.Collection = collection
	q.BranchID = branchID
	return q, true
}

// GetAnalytics handles GET /api/v1/analytics/{entityType}/{entityID}.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	query, ok := h.entityQuery(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid entity or scope parameters")
		return
	}

	now := time.Now()
	period, err := parsePeriod(r, h.calendars, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.engine.GetAnalytics(r.Context(), query, period, now)
	if err != nil {
		h.logger.Error("failed to build analytics", "entity_type", query.EntityType, "entity_id", query.EntityID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSeries handles GET /api/v1/analytics/{entityType}/{entityID}/series.
func (h *AnalyticsHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	query, ok := h.entityQuery(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid entity or scope parameters")
		return
	}

	now := time.Now()
	period, err := parsePeriod(r, h.calendars, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	series, err := h.engine.GetTimeSeries(r.Context(), query, period, now)
	if err != nil {
		h.logger.Error("failed to build series", "entity_type", query.EntityType, "entity_id", query.EntityID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch series")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": h.calendars.Describe(period),
		"series": series,
	})
}

// GetCounts handles GET /api/v1/analytics/{entityType}/{entityID}/counts.
// Without period parameters it returns all-time counts.
func (h *AnalyticsHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	query, ok := h.entityQuery(r, true)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid entity or scope parameters")
		return
	}

	now := time.Now()
	var period *calendar.Period
	if hasPeriodParams(r) {
		p, err := parsePeriod(r, h.calendars, now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		period = &p
	}

	total, err := h.engine.ViewsCount(r.Context(), query, period, now)
	if err != nil {
		h.logger.Error("failed to count views", "entity_type", query.EntityType, "entity_id", query.EntityID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to count views")
		return
	}
	unique, err := h.engine.UniqueViewsCount(r.Context(), query, period, now)
	if err != nil {
		h.logger.Error("failed to count unique views", "entity_type", query.EntityType, "entity_id", query.EntityID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to count views")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": total, "unique": unique})
}

// GetRanking handles GET /api/v1/analytics/{entityType}/ranking.
func (h *AnalyticsHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	query, ok := h.entityQuery(r, false)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid entity or scope parameters")
		return
	}

	now := time.Now()
	period, err := parsePeriod(r, h.calendars, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ranking, err := h.engine.GetRanking(r.Context(), query, period, parseLimit(r, 10, 100), now)
	if err != nil {
		h.logger.Error("failed to build ranking", "entity_type", query.EntityType, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch ranking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":  h.calendars.Describe(period),
		"ranking": ranking,
	})
}

// GetTrending handles GET /api/v1/analytics/{entityType}/trending.
func (h *AnalyticsHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	query, ok := h.entityQuery(r, false)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid entity or scope parameters")
		return
	}

	now := time.Now()
	period, err := parsePeriod(r, h.calendars, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	minViews := int64(0)
	if raw := r.URL.Query().Get("min_views"); raw != "" {
		n, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid min_views")
			return
		}
		minViews = n
	}

	trending, err := h.engine.GetTrending(r.Context(), query, period, parseLimit(r, 10, 100), minViews, now)
	if err != nil {
		h.logger.Error("failed to build trending", "entity_type", query.EntityType, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch trending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":   h.calendars.Describe(period),
		"trending": trending,
	})
}

func hasPeriodParams(r *http.Request) bool {
	q := r.URL.Query()
	for _, key := range []string{"period", "jalali_month", "jalali_year", "from", "to"} {
		if q.Get(key) != "" {
			return true
		}
	}
	return false
}
