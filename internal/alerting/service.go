// Package alerting persists threshold-violation records and produces the
// severity-bucketed alert summary. Severity is always caller-supplied; no
// alert is ever auto-generated from sample-level scores.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/storage"
)

// ErrInvalid marks a rejected alert submission or filter.
type ErrInvalid struct {
	Field   string
	Message string
}

func (e ErrInvalid) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	store storage.AlertStore
	log   zerolog.Logger
	now   func() time.Time
}

func New(store storage.AlertStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Create persists an alert after validating the fixed enums. Status defaults
// to open.
func (s *Service) Create(ctx context.Context, alert *domain.Alert) (int64, error) {
	if alert.AlertType == "" {
		return 0, ErrInvalid{Field: "alertType", Message: "required"}
	}
	if alert.MetricName == "" {
		return 0, ErrInvalid{Field: "metricName", Message: "required"}
	}
	if !alert.Severity.Valid() {
		return 0, ErrInvalid{Field: "severity", Message: "must be one of low, medium, high, critical"}
	}
	if alert.Status == "" {
		alert.Status = domain.StatusOpen
	}
	if !alert.Status.Valid() {
		return 0, ErrInvalid{Field: "status", Message: "must be one of open, acknowledged, resolved"}
	}
	alert.CreatedAt = s.now().UTC()

	id, err := s.store.InsertAlert(ctx, alert)
	if err != nil {
		return 0, fmt.Errorf("create alert: %w", err)
	}
	s.log.Info().
		Int64("id", id).
		Str("severity", string(alert.Severity)).
		Str("metric", alert.MetricName).
		Msg("Alert created")
	return id, nil
}

// Summary buckets open alerts by severity.
type Summary struct {
	Open       int64                          `json:"open"`
	BySeverity map[domain.AlertSeverity]int64 `json:"bySeverity"`
}

// List returns matching alerts plus the open-alert severity summary.
func (s *Service) List(ctx context.Context, status, severity string, limit int) ([]domain.Alert, *Summary, error) {
	f := storage.AlertFilter{Limit: limit}
	if status != "" {
		f.Status = domain.AlertStatus(status)
		if !f.Status.Valid() {
			return nil, nil, ErrInvalid{Field: "status", Message: "must be one of open, acknowledged, resolved"}
		}
	}
	if severity != "" {
		f.Severity = domain.AlertSeverity(severity)
		if !f.Severity.Valid() {
			return nil, nil, ErrInvalid{Field: "severity", Message: "must be one of low, medium, high, critical"}
		}
	}

	alerts, err := s.store.ListAlerts(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("list alerts: %w", err)
	}
	sum, err := s.OpenSummary(ctx)
	if err != nil {
		return nil, nil, err
	}
	return alerts, sum, nil
}

// OpenSummary computes the severity buckets for currently open alerts.
func (s *Service) OpenSummary(ctx context.Context) (*Summary, error) {
	counts, err := s.store.OpenAlertCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("alert summary: %w", err)
	}
	sum := &Summary{BySeverity: counts}
	for _, n := range counts {
		sum.Open += n
	}
	return sum, nil
}
