// Package handler wires the HTTP surface: telemetry ingestion, aggregate
// summaries and the monitoring dashboard endpoints.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/enricher"
	"github.com/startupnamer/vitals/internal/metrics"
	"github.com/startupnamer/vitals/internal/sanitize"
	"github.com/startupnamer/vitals/internal/scoring"
	"github.com/startupnamer/vitals/internal/storage"
	"github.com/startupnamer/vitals/internal/summary"
	"github.com/startupnamer/vitals/internal/validation"
)

// Service version reported by the health descriptor.
const serviceVersion = "1.0.0"

// lowScoreThreshold marks ingested samples worth an operational warning.
// This is a log signal only, never a stored alert.
const lowScoreThreshold = 60

const defaultQueryTimeout = 10 * time.Second

// VitalsHandler serves the /vitals endpoints.
type VitalsHandler struct {
	store        storage.SampleStore
	summaries    *summary.Service
	enricher     *enricher.Enricher
	metrics      *metrics.Metrics
	log          zerolog.Logger
	now          func() time.Time
	queryTimeout time.Duration
}

// NewVitals constructs the handler. metrics may be nil in tests.
func NewVitals(store storage.SampleStore, summaries *summary.Service, enrich *enricher.Enricher, m *metrics.Metrics, log zerolog.Logger) *VitalsHandler {
	return &VitalsHandler{
		store:        store,
		summaries:    summaries,
		enricher:     enrich,
		metrics:      m,
		log:          log,
		now:          time.Now,
		queryTimeout: defaultQueryTimeout,
	}
}

func (h *VitalsHandler) recordIngest(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordIngest(outcome)
	}
}

func (h *VitalsHandler) buildSample(r *http.Request, p *validation.VitalsPayload) *domain.Sample {
	now := h.now().UTC()
	ip := clientIP(r)

	rawUA := p.UserAgent
	if rawUA == "" {
		rawUA = r.UserAgent()
	}

	sample := &domain.Sample{
		URL:       sanitize.URL(p.URL),
		Metrics:   p.Metrics.Domain(),
		UserAgent: sanitize.UserAgent(rawUA),
		SessionID: p.SessionID,
		UserID:    p.UserID,
		IPAddress: ip,
		Timestamp: now,
		CreatedAt: now,
	}
	if p.Timestamp != nil {
		sample.Timestamp = time.UnixMilli(int64(*p.Timestamp)).UTC()
	}
	if p.Connection != nil {
		sample.ConnectionType = p.Connection.EffectiveType
		sample.ConnectionSpeed = p.Connection.Downlink
	}
	if p.Navigation != nil {
		sample.NavigationType = p.Navigation.Type
	}
	if h.enricher != nil {
		ectx := h.enricher.Enrich(rawUA, ip)
		sample.Browser = ectx.Browser
		sample.OS = ectx.OS
		sample.DeviceType = ectx.DeviceType
		sample.Country = ectx.Country
	}
	return sample
}

// Ingest handles POST /vitals. Validation failures reject the request;
// storage failures degrade to a soft success so telemetry loss never surfaces
// as a user-facing error.
func (h *VitalsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var payload validation.VitalsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeValidationErrors(w, []validation.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}

	if errs := validation.Validate(&payload); len(errs) > 0 {
		h.recordIngest("rejected")
		writeValidationErrors(w, errs)
		return
	}

	sample := h.buildSample(r, &payload)
	score := scoring.Score(sample.Metrics)
	recommendations := scoring.Recommend(sample.Metrics)

	id, err := h.store.InsertSample(r.Context(), sample)
	if err != nil {
		// Availability over durability: the browser is never penalized for a
		// backend problem. The loss is logged for operational follow-up.
		h.log.Error().Err(err).Str("url", sample.URL).Msg("Failed to store sample, returning soft success")
		h.recordIngest("deferred")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"processed": false},
		})
		return
	}

	if score < lowScoreThreshold {
		h.log.Warn().
			Int64("id", id).
			Int("score", score).
			Str("url", sample.URL).
			Msg("Low performance score ingested")
	}

	h.recordIngest("accepted")
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data": map[string]any{
			"id":               id,
			"performanceScore": score,
			"recommendations":  recommendations,
			"timestamp":        sample.CreatedAt,
		},
	})
}

type batchRequest struct {
	Vitals []validation.VitalsPayload `json:"vitals"`
}

type batchResult struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	URL     string `json:"url"`
}

// IngestBatch handles POST /vitals/batch. Entries are validated and stored
// independently; a failure on one never rolls back or rejects its siblings.
func (h *VitalsHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationErrors(w, []validation.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}
	if errs := validation.ValidateBatch(req.Vitals); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	results := make([]batchResult, 0, len(req.Vitals))
	successful := 0
	for i := range req.Vitals {
		entry := &req.Vitals[i]
		if errs := validation.Validate(entry); len(errs) > 0 {
			h.recordIngest("rejected")
			results = append(results, batchResult{Success: false, Error: errs[0].Error(), URL: entry.URL})
			continue
		}
		sample := h.buildSample(r, entry)
		id, err := h.store.InsertSample(r.Context(), sample)
		if err != nil {
			h.log.Error().Err(err).Str("url", sample.URL).Msg("Failed to store batch entry")
			h.recordIngest("deferred")
			results = append(results, batchResult{Success: false, Error: "storage unavailable", URL: entry.URL})
			continue
		}
		h.recordIngest("accepted")
		successful++
		results = append(results, batchResult{Success: true, ID: id, URL: sample.URL})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data": map[string]any{
			"results": results,
			"summary": map[string]int{
				"total":      len(req.Vitals),
				"successful": successful,
				"failed":     len(req.Vitals) - successful,
			},
		},
	})
}

// Summary handles GET /vitals/summary. Unlike ingestion, read failures
// propagate: a silent gap would corrupt dashboard trust.
func (h *VitalsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, ok := domain.ParsePeriod(q.Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be one of 1h, 24h, 7d, 30d")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	sum, err := h.summaries.Summarize(ctx, q.Get("url"), period, q.Get("userId"))
	if err != nil {
		writeQueryError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": sum})
}

// Health handles GET /vitals/health with a static capability descriptor.
func (h *VitalsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "web-vitals-pipeline",
		"version": serviceVersion,
		"capabilities": []string{
			"ingest", "batch-ingest", "summary", "alerts", "dashboard", "realtime",
		},
		"timestamp": h.now().UTC(),
	})
}
