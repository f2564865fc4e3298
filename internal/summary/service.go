// Package summary assembles windowed aggregates from the store into the
// shapes served to dashboard consumers. Summaries are computed per query and
// never persisted.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/scoring"
	"github.com/startupnamer/vitals/internal/storage"
)

const trendBuckets = 24

// Service reads sample aggregates and annotates them with ratings and good
// rates from the scoring table.
type Service struct {
	store storage.SampleStore
	log   zerolog.Logger
	now   func() time.Time
}

func New(store storage.SampleStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

func (s *Service) filter(url string, period domain.Period, userID string) storage.Filter {
	return storage.Filter{
		Since:  s.now().UTC().Add(-period.Duration()),
		URL:    url,
		UserID: userID,
	}
}

// Summarize computes the aggregate summary for a URL (empty means all pages)
// over the period. An empty window yields zero counts and null rates, never
// an error.
func (s *Service) Summarize(ctx context.Context, url string, period domain.Period, userID string) (*domain.Summary, error) {
	f := s.filter(url, period, userID)

	agg, err := s.store.Aggregate(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	trend, err := s.store.HourlyTrend(ctx, f, trendBuckets)
	if err != nil {
		return nil, fmt.Errorf("summarize trend: %w", err)
	}

	out := &domain.Summary{
		Period:            period,
		URL:               url,
		TotalMeasurements: agg.Total,
		UniquePages:       agg.UniquePages,
		UniqueSessions:    agg.UniqueSessions,
		Metrics:           make(map[string]domain.MetricSummary, len(domain.MetricNames)),
		HourlyTrend:       make([]domain.TrendBucket, 0, len(trend)),
		GeneratedAt:       s.now().UTC(),
	}
	if url == "" {
		out.URL = "all"
	}

	for _, name := range domain.MetricNames {
		stats := agg.Metrics[name]
		ms := domain.MetricSummary{
			Count:   stats.Count,
			Average: stats.Average,
			P75:     stats.P75,
			P95:     stats.P95,
			Rating:  scoring.Rate(name, stats.Average),
		}
		if stats.Count > 0 {
			rate := float64(stats.GoodCount) / float64(stats.Count) * 100
			ms.GoodRate = &rate
		}
		out.Metrics[name] = ms
	}

	for _, row := range trend {
		out.HourlyTrend = append(out.HourlyTrend, domain.TrendBucket{
			Hour:    row.Hour,
			Samples: row.Samples,
			AvgLCP:  row.AvgLCP,
			AvgINP:  row.AvgINP,
			AvgCLS:  row.AvgCLS,
		})
	}
	return out, nil
}

// SlowPage is one URL ranked for the dashboard's slow-pages table.
type SlowPage struct {
	URL     string        `json:"url"`
	Samples int64         `json:"samples"`
	AvgLCP  *float64      `json:"avgLcp"`
	P75LCP  *float64      `json:"p75Lcp"`
	Rating  domain.Rating `json:"rating"`
}

// TopSlowPages ranks URLs by mean LCP within the window.
func (s *Service) TopSlowPages(ctx context.Context, period domain.Period, limit int) ([]SlowPage, error) {
	rows, err := s.store.SlowPages(ctx, s.filter("", period, ""), limit)
	if err != nil {
		return nil, fmt.Errorf("top slow pages: %w", err)
	}
	pages := make([]SlowPage, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, SlowPage{
			URL:     row.URL,
			Samples: row.Samples,
			AvgLCP:  row.AvgLCP,
			P75LCP:  row.P75LCP,
			Rating:  scoring.Rate(domain.MetricLCP, row.AvgLCP),
		})
	}
	return pages, nil
}

// BreakdownEntry is one slice of a demographic dimension.
type BreakdownEntry struct {
	Value   string `json:"value"`
	Samples int64  `json:"samples"`
}

// Demographics groups the window's samples by browsing-context dimensions.
func (s *Service) Demographics(ctx context.Context, url string, period domain.Period) (map[string][]BreakdownEntry, error) {
	f := s.filter(url, period, "")
	out := make(map[string][]BreakdownEntry)
	for _, dim := range []string{"deviceType", "browser", "country", "connectionType"} {
		rows, err := s.store.Breakdown(ctx, f, dim)
		if err != nil {
			return nil, fmt.Errorf("demographics %s: %w", dim, err)
		}
		entries := make([]BreakdownEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, BreakdownEntry{Value: row.Value, Samples: row.Samples})
		}
		out[dim] = entries
	}
	return out, nil
}

// Recommendations derives aggregate-level advice from the window's mean
// metric values.
func (s *Service) Recommendations(sum *domain.Summary) []scoring.Recommendation {
	var m domain.Metrics
	if ms, ok := sum.Metrics[domain.MetricLCP]; ok {
		m.LCP = ms.Average
	}
	if ms, ok := sum.Metrics[domain.MetricINP]; ok {
		m.INP = ms.Average
	}
	if ms, ok := sum.Metrics[domain.MetricCLS]; ok {
		m.CLS = ms.Average
	}
	if ms, ok := sum.Metrics[domain.MetricFCP]; ok {
		m.FCP = ms.Average
	}
	if ms, ok := sum.Metrics[domain.MetricTTFB]; ok {
		m.TTFB = ms.Average
	}
	return scoring.Recommend(m)
}

// Snapshot is the realtime view for /monitoring/metrics.
type Snapshot struct {
	WindowSeconds int                 `json:"windowSeconds"`
	Samples       int64               `json:"samples"`
	Averages      map[string]*float64 `json:"averages"`
	PerMinute     []SnapshotMinute    `json:"perMinute"`
	GeneratedAt   time.Time           `json:"generatedAt"`
}

// SnapshotMinute is one per-minute sample count.
type SnapshotMinute struct {
	Minute  time.Time `json:"minute"`
	Samples int64     `json:"samples"`
}

// RealtimeSnapshot reports the last few minutes of ingestion.
func (s *Service) RealtimeSnapshot(ctx context.Context, window time.Duration) (*Snapshot, error) {
	snap, err := s.store.RecentSnapshot(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("realtime snapshot: %w", err)
	}
	out := &Snapshot{
		WindowSeconds: int(window.Seconds()),
		Samples:       snap.Total,
		Averages:      snap.Averages,
		PerMinute:     make([]SnapshotMinute, 0, len(snap.PerMinute)),
		GeneratedAt:   s.now().UTC(),
	}
	for _, row := range snap.PerMinute {
		out.PerMinute = append(out.PerMinute, SnapshotMinute{Minute: row.Minute, Samples: row.Samples})
	}
	return out, nil
}
