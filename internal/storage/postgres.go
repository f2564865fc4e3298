package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/scoring"
)

// Postgres implements SampleStore and AlertStore on a pgx pool. Every filter
// value is bound as a query parameter; the only interpolated identifiers come
// from fixed in-package vocabularies.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ SampleStore = (*Postgres)(nil)
	_ AlertStore  = (*Postgres)(nil)
)

// NewPostgres wraps an established pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies database reachability.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertSample stores one telemetry sample. The returned id is assigned by
// the database and is durable before this returns.
func (s *Postgres) InsertSample(ctx context.Context, sample *domain.Sample) (int64, error) {
	const query = `INSERT INTO web_vitals
		(url, lcp, inp, cls, fcp, ttfb,
		 user_agent, browser, os, device_type, country,
		 connection_type, connection_speed, navigation_type,
		 session_id, user_id, ip_address, event_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		sample.URL,
		sample.Metrics.LCP, sample.Metrics.INP, sample.Metrics.CLS, sample.Metrics.FCP, sample.Metrics.TTFB,
		sample.UserAgent, sample.Browser, sample.OS, sample.DeviceType, sample.Country,
		sample.ConnectionType, sample.ConnectionSpeed, sample.NavigationType,
		sample.SessionID, sample.UserID, sample.IPAddress,
		sample.Timestamp, sample.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sample: %w", err)
	}
	return id, nil
}

func buildWhere(f Filter) (string, []any) {
	clauses := []string{"created_at >= $1"}
	args := []any{f.Since}
	if f.URL != "" {
		args = append(args, f.URL)
		clauses = append(clauses, fmt.Sprintf("url = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// Aggregate computes counts, means, p75/p95 and good-threshold counts for
// every metric in one pass. Ordered-set aggregates and AVG ignore NULLs, so
// unmeasured metrics never skew the stats. The good thresholds come from the
// scoring table so both rating paths share one source of truth.
func (s *Postgres) Aggregate(ctx context.Context, f Filter) (*Aggregate, error) {
	where, args := buildWhere(f)

	cols := []string{
		"COUNT(*)",
		"COUNT(DISTINCT url)",
		"COUNT(DISTINCT session_id) FILTER (WHERE session_id <> '')",
	}
	for _, name := range domain.MetricNames {
		args = append(args, scoring.GoodThreshold(name))
		cols = append(cols,
			fmt.Sprintf("COUNT(%s)", name),
			fmt.Sprintf("AVG(%s)", name),
			fmt.Sprintf("PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY %s)", name),
			fmt.Sprintf("PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY %s)", name),
			fmt.Sprintf("COUNT(*) FILTER (WHERE %s <= $%d)", name, len(args)),
		)
	}
	query := "SELECT " + strings.Join(cols, ",\n\t\t") + "\n\tFROM web_vitals WHERE " + where

	agg := &Aggregate{Metrics: make(map[string]MetricStats, len(domain.MetricNames))}
	dest := []any{&agg.Total, &agg.UniquePages, &agg.UniqueSessions}
	stats := make([]MetricStats, len(domain.MetricNames))
	for i := range stats {
		dest = append(dest, &stats[i].Count, &stats[i].Average, &stats[i].P75, &stats[i].P95, &stats[i].GoodCount)
	}

	if err := s.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("aggregate samples: %w", err)
	}
	for i, name := range domain.MetricNames {
		agg.Metrics[name] = stats[i]
	}
	return agg, nil
}

// HourlyTrend returns the most recent hourly buckets, newest first.
func (s *Postgres) HourlyTrend(ctx context.Context, f Filter, buckets int) ([]TrendRow, error) {
	where, args := buildWhere(f)
	args = append(args, buckets)
	query := fmt.Sprintf(`SELECT date_trunc('hour', created_at) AS bucket,
			COUNT(*), AVG(lcp), AVG(inp), AVG(cls)
		FROM web_vitals WHERE %s
		GROUP BY bucket ORDER BY bucket DESC LIMIT $%d`, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hourly trend: %w", err)
	}
	defer rows.Close()

	trend := make([]TrendRow, 0, buckets)
	for rows.Next() {
		var row TrendRow
		if err := rows.Scan(&row.Hour, &row.Samples, &row.AvgLCP, &row.AvgINP, &row.AvgCLS); err != nil {
			return nil, err
		}
		trend = append(trend, row)
	}
	return trend, rows.Err()
}

// SlowPages ranks URLs by mean LCP within the window.
func (s *Postgres) SlowPages(ctx context.Context, f Filter, limit int) ([]SlowPage, error) {
	where, args := buildWhere(f)
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT url, COUNT(*), AVG(lcp),
			PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY lcp)
		FROM web_vitals WHERE %s AND lcp IS NOT NULL
		GROUP BY url ORDER BY AVG(lcp) DESC LIMIT $%d`, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("slow pages: %w", err)
	}
	defer rows.Close()

	pages := make([]SlowPage, 0, limit)
	for rows.Next() {
		var p SlowPage
		if err := rows.Scan(&p.URL, &p.Samples, &p.AvgLCP, &p.P75LCP); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// breakdownColumns maps exposed dimension names to table columns. Only these
// identifiers are ever interpolated into a breakdown query.
var breakdownColumns = map[string]string{
	"deviceType":     "device_type",
	"browser":        "browser",
	"os":             "os",
	"country":        "country",
	"connectionType": "connection_type",
	"navigationType": "navigation_type",
}

// Breakdown groups samples by a demographic dimension, most common first.
func (s *Postgres) Breakdown(ctx context.Context, f Filter, dimension string) ([]BreakdownRow, error) {
	col, ok := breakdownColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown breakdown dimension %q", dimension)
	}
	where, args := buildWhere(f)
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM web_vitals
		WHERE %s AND %s <> ''
		GROUP BY %s ORDER BY COUNT(*) DESC LIMIT 10`, col, where, col, col)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("breakdown %s: %w", dimension, err)
	}
	defer rows.Close()

	out := make([]BreakdownRow, 0, 10)
	for rows.Next() {
		var row BreakdownRow
		if err := rows.Scan(&row.Value, &row.Samples); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RecentSnapshot serves the realtime view: totals and per-metric means over
// the window plus per-minute counts.
func (s *Postgres) RecentSnapshot(ctx context.Context, window time.Duration) (*Snapshot, error) {
	since := time.Now().UTC().Add(-window)

	snap := &Snapshot{Averages: make(map[string]*float64, len(domain.MetricNames))}
	averages := make([]*float64, len(domain.MetricNames))

	cols := []string{"COUNT(*)"}
	for _, name := range domain.MetricNames {
		cols = append(cols, fmt.Sprintf("AVG(%s)", name))
	}
	query := "SELECT " + strings.Join(cols, ", ") + " FROM web_vitals WHERE created_at >= $1"

	dest := []any{&snap.Total}
	for i := range averages {
		dest = append(dest, &averages[i])
	}
	if err := s.pool.QueryRow(ctx, query, since).Scan(dest...); err != nil {
		return nil, fmt.Errorf("snapshot totals: %w", err)
	}
	for i, name := range domain.MetricNames {
		snap.Averages[name] = averages[i]
	}

	const minuteQuery = `SELECT date_trunc('minute', created_at) AS bucket, COUNT(*)
		FROM web_vitals WHERE created_at >= $1
		GROUP BY bucket ORDER BY bucket DESC`
	rows, err := s.pool.Query(ctx, minuteQuery, since)
	if err != nil {
		return nil, fmt.Errorf("snapshot minutes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row MinuteRow
		if err := rows.Scan(&row.Minute, &row.Samples); err != nil {
			return nil, err
		}
		snap.PerMinute = append(snap.PerMinute, row)
	}
	return snap, rows.Err()
}

// InsertAlert stores a caller-supplied alert and returns its id.
func (s *Postgres) InsertAlert(ctx context.Context, alert *domain.Alert) (int64, error) {
	const query = `INSERT INTO performance_alerts
		(alert_type, url, metric_name, threshold_value, actual_value, severity, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		alert.AlertType, alert.URL, alert.MetricName,
		alert.ThresholdValue, alert.ActualValue,
		string(alert.Severity), string(alert.Status), alert.Notes, alert.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

// clampAlertLimit bounds a caller-supplied listing limit: missing or
// nonsensical values fall back to the default, oversized ones are capped.
func clampAlertLimit(n int) int {
	if n <= 0 {
		return defaultAlertLimit
	}
	if n > maxAlertLimit {
		return maxAlertLimit
	}
	return n
}

// ListAlerts returns alerts newest first, optionally filtered by status and
// severity.
func (s *Postgres) ListAlerts(ctx context.Context, f AlertFilter) ([]domain.Alert, error) {
	clauses := []string{"TRUE"}
	args := []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		clauses = append(clauses, fmt.Sprintf("severity = $%d", len(args)))
	}
	limit := clampAlertLimit(f.Limit)
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, alert_type, url, metric_name, threshold_value, actual_value,
			severity, status, notes, created_at, resolved_at, resolved_by
		FROM performance_alerts WHERE %s
		ORDER BY created_at DESC LIMIT $%d`, strings.Join(clauses, " AND "), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0, limit)
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.AlertType, &a.URL, &a.MetricName, &a.ThresholdValue, &a.ActualValue,
			&a.Severity, &a.Status, &a.Notes, &a.CreatedAt, &a.ResolvedAt, &a.ResolvedBy); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// OpenAlertCounts buckets open alerts by severity.
func (s *Postgres) OpenAlertCounts(ctx context.Context) (map[domain.AlertSeverity]int64, error) {
	const query = `SELECT severity, COUNT(*) FROM performance_alerts
		WHERE status = $1 GROUP BY severity`

	rows, err := s.pool.Query(ctx, query, string(domain.StatusOpen))
	if err != nil {
		return nil, fmt.Errorf("open alert counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.AlertSeverity]int64, len(domain.Severities))
	for _, sev := range domain.Severities {
		counts[sev] = 0
	}
	for rows.Next() {
		var sev string
		var n int64
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		counts[domain.AlertSeverity(sev)] = n
	}
	return counts, rows.Err()
}
