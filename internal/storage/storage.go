// Package storage owns every persisted row: telemetry samples and
// performance alerts. Aggregation happens in SQL on read; nothing here
// mutates a sample after insert.
package storage

import (
	"context"
	"time"

	"github.com/startupnamer/vitals/internal/domain"
)

// Filter narrows sample reads to a time window plus optional exact matches.
type Filter struct {
	Since  time.Time
	URL    string
	UserID string
}

// MetricStats is the raw per-metric aggregate for a window. Pointer fields
// are nil when the window held no samples of that metric.
type MetricStats struct {
	Count     int64
	Average   *float64
	P75       *float64
	P95       *float64
	GoodCount int64
}

// Aggregate is the full windowed aggregate over matching samples.
type Aggregate struct {
	Total          int64
	UniquePages    int64
	UniqueSessions int64
	Metrics        map[string]MetricStats
}

// TrendRow is one hourly bucket for the trend series.
type TrendRow struct {
	Hour    time.Time
	Samples int64
	AvgLCP  *float64
	AvgINP  *float64
	AvgCLS  *float64
}

// SlowPage is one URL ranked by mean LCP.
type SlowPage struct {
	URL     string
	Samples int64
	AvgLCP  *float64
	P75LCP  *float64
}

// BreakdownRow is one value of a demographic dimension with its sample count.
type BreakdownRow struct {
	Value   string
	Samples int64
}

// MinuteRow is one per-minute bucket in the realtime snapshot.
type MinuteRow struct {
	Minute  time.Time
	Samples int64
}

// Snapshot is the short-window realtime view served by /monitoring/metrics.
type Snapshot struct {
	Total     int64
	Averages  map[string]*float64
	PerMinute []MinuteRow
}

// SampleStore persists and aggregates telemetry samples.
type SampleStore interface {
	// InsertSample stores one sample and returns its id. The row is durable
	// before the id is returned.
	InsertSample(ctx context.Context, sample *domain.Sample) (int64, error)
	Aggregate(ctx context.Context, f Filter) (*Aggregate, error)
	HourlyTrend(ctx context.Context, f Filter, buckets int) ([]TrendRow, error)
	SlowPages(ctx context.Context, f Filter, limit int) ([]SlowPage, error)
	Breakdown(ctx context.Context, f Filter, dimension string) ([]BreakdownRow, error)
	RecentSnapshot(ctx context.Context, window time.Duration) (*Snapshot, error)
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status   domain.AlertStatus
	Severity domain.AlertSeverity
	Limit    int
}

// AlertStore persists and lists performance alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *domain.Alert) (int64, error)
	ListAlerts(ctx context.Context, f AlertFilter) ([]domain.Alert, error)
	OpenAlertCounts(ctx context.Context) (map[domain.AlertSeverity]int64, error)
}
