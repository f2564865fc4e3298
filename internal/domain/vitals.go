package domain

import (
	"encoding/json"
	"time"
)

// Canonical metric names shared by validation, scoring, storage and the
// summary endpoints. Clients submit them uppercase; everything downstream
// uses these lowercase forms.
const (
	MetricLCP  = "lcp"
	MetricINP  = "inp"
	MetricCLS  = "cls"
	MetricFCP  = "fcp"
	MetricTTFB = "ttfb"
)

// MetricNames lists every supported Web Vitals metric in canonical order.
var MetricNames = []string{MetricLCP, MetricINP, MetricCLS, MetricFCP, MetricTTFB}

// Metrics holds one page load's reported measurements. A nil field means the
// metric was not measured, which is different from zero.
type Metrics struct {
	LCP  *float64
	INP  *float64
	CLS  *float64
	FCP  *float64
	TTFB *float64
}

// Get returns the value for a canonical metric name, nil when absent.
func (m Metrics) Get(name string) *float64 {
	switch name {
	case MetricLCP:
		return m.LCP
	case MetricINP:
		return m.INP
	case MetricCLS:
		return m.CLS
	case MetricFCP:
		return m.FCP
	case MetricTTFB:
		return m.TTFB
	}
	return nil
}

// Empty reports whether no metric was measured.
func (m Metrics) Empty() bool {
	return m.LCP == nil && m.INP == nil && m.CLS == nil && m.FCP == nil && m.TTFB == nil
}

// Sample is one persisted telemetry measurement for a page load.
type Sample struct {
	ID      int64
	URL     string
	Metrics Metrics

	UserAgent  string
	Browser    string
	OS         string
	DeviceType string
	Country    string

	ConnectionType  string
	ConnectionSpeed *float64
	NavigationType  string

	SessionID string
	UserID    string
	IPAddress string

	// Timestamp is the client-reported event time; CreatedAt is the server
	// receipt time. Both are kept because samples may arrive late.
	Timestamp time.Time
	CreatedAt time.Time
}

// Period is a supported aggregation window.
type Period string

const (
	PeriodHour  Period = "1h"
	PeriodDay   Period = "24h"
	PeriodWeek  Period = "7d"
	PeriodMonth Period = "30d"
)

// ParsePeriod resolves a query-string period, defaulting to 24h when empty.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), true
	}
	if s == "" {
		return PeriodDay, true
	}
	return "", false
}

// Duration returns the window length for the period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodHour:
		return time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Rating is a qualitative classification of a metric value. The zero value
// means "not measured" and serializes as JSON null.
type Rating string

const (
	RatingGood             Rating = "good"
	RatingNeedsImprovement Rating = "needs-improvement"
	RatingPoor             Rating = "poor"
)

// MarshalJSON renders the empty rating as null rather than "".
func (r Rating) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}
