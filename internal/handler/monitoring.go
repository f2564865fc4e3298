package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/alerting"
	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/summary"
)

const (
	slowPageLimit       = 10
	realtimeWindow      = 5 * time.Minute
	healthCheckTimeout  = 2 * time.Second
	defaultAlertListing = 50
)

// MonitoringHandler serves the /monitoring endpoints for dashboard consumers.
type MonitoringHandler struct {
	summaries    *summary.Service
	alerts       *alerting.Service
	dbPing       func(context.Context) error
	log          zerolog.Logger
	started      time.Time
	now          func() time.Time
	queryTimeout time.Duration
}

func NewMonitoring(summaries *summary.Service, alerts *alerting.Service, dbPing func(context.Context) error, log zerolog.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		summaries:    summaries,
		alerts:       alerts,
		dbPing:       dbPing,
		log:          log,
		started:      time.Now(),
		now:          time.Now,
		queryTimeout: defaultQueryTimeout,
	}
}

// Dashboard handles GET /monitoring/dashboard: the aggregate summary plus
// alert totals, slowest pages, demographic breakdown and recommendations.
func (h *MonitoringHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, ok := domain.ParsePeriod(q.Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be one of 1h, 24h, 7d, 30d")
		return
	}
	url := q.Get("url")

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	sum, err := h.summaries.Summarize(ctx, url, period, "")
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}
	slowPages, err := h.summaries.TopSlowPages(ctx, period, slowPageLimit)
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}
	demographics, err := h.summaries.Demographics(ctx, url, period)
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}
	alertSummary, err := h.alerts.OpenSummary(ctx)
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"summary":         sum,
			"alerts":          alertSummary,
			"topSlowPages":    slowPages,
			"demographics":    demographics,
			"recommendations": h.summaries.Recommendations(sum),
		},
	})
}

// ListAlerts handles GET /monitoring/alerts.
func (h *MonitoringHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultAlertListing
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	alerts, alertSummary, err := h.alerts.List(ctx, q.Get("status"), q.Get("severity"), limit)
	if err != nil {
		var invalid alerting.ErrInvalid
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		writeQueryError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"alerts": alerts, "summary": alertSummary},
	})
}

type alertRequest struct {
	AlertType      string  `json:"alertType"`
	URL            string  `json:"url"`
	MetricName     string  `json:"metricName"`
	ThresholdValue float64 `json:"thresholdValue"`
	ActualValue    float64 `json:"actualValue"`
	Severity       string  `json:"severity"`
	Notes          string  `json:"notes"`
}

// CreateAlert handles POST /monitoring/alert.
func (h *MonitoringHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.alerts.Create(r.Context(), &domain.Alert{
		AlertType:      req.AlertType,
		URL:            req.URL,
		MetricName:     req.MetricName,
		ThresholdValue: req.ThresholdValue,
		ActualValue:    req.ActualValue,
		Severity:       domain.AlertSeverity(req.Severity),
		Notes:          req.Notes,
	})
	if err != nil {
		var invalid alerting.ErrInvalid
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		writeQueryError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]any{"id": id},
	})
}

// Health handles GET /monitoring/health with a composite score from store
// reachability and process memory pressure.
func (h *MonitoringHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	dbErr := h.dbPing(ctx)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	utilization := 0.0
	if mem.HeapSys > 0 {
		utilization = float64(mem.HeapAlloc) / float64(mem.HeapSys)
	}

	score := 0
	if dbErr == nil {
		score += 60
	}
	score += int(40 * (1 - utilization))

	status := "unhealthy"
	switch {
	case score >= 80:
		status = "healthy"
	case score >= 50:
		status = "degraded"
	}

	httpStatus := http.StatusOK
	if dbErr != nil {
		httpStatus = http.StatusServiceUnavailable
		h.log.Error().Err(dbErr).Msg("Health check: database unreachable")
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":      status,
		"healthScore": score,
		"checks": map[string]any{
			"database": map[string]any{"ok": dbErr == nil},
			"memory": map[string]any{
				"heapAllocBytes": mem.HeapAlloc,
				"heapSysBytes":   mem.HeapSys,
				"utilization":    utilization,
			},
		},
		"uptimeSeconds": int(h.now().Sub(h.started).Seconds()),
		"timestamp":     h.now().UTC(),
	})
}

// RealtimeMetrics handles GET /monitoring/metrics: the last five minutes of
// ingestion.
func (h *MonitoringHandler) RealtimeMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	snap, err := h.summaries.RealtimeSnapshot(ctx, realtimeWindow)
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": snap})
}
