package domain

import "time"

// MetricSummary is the windowed aggregate for a single metric. Nil fields
// mean the window held no samples of that metric.
type MetricSummary struct {
	Count    int64    `json:"count"`
	Average  *float64 `json:"average"`
	P75      *float64 `json:"p75"`
	P95      *float64 `json:"p95"`
	GoodRate *float64 `json:"goodRate"`
	Rating   Rating   `json:"rating"`
}

// TrendBucket is one hourly point for dashboard charting.
type TrendBucket struct {
	Hour    time.Time `json:"hour"`
	Samples int64     `json:"samples"`
	AvgLCP  *float64  `json:"avgLcp"`
	AvgINP  *float64  `json:"avgInp"`
	AvgCLS  *float64  `json:"avgCls"`
}

// Summary is computed on read and never persisted.
type Summary struct {
	Period            Period                   `json:"period"`
	URL               string                   `json:"url"`
	TotalMeasurements int64                    `json:"totalMeasurements"`
	UniquePages       int64                    `json:"uniquePages"`
	UniqueSessions    int64                    `json:"uniqueSessions"`
	Metrics           map[string]MetricSummary `json:"metrics"`
	HourlyTrend       []TrendBucket            `json:"hourlyTrend"`
	GeneratedAt       time.Time                `json:"generatedAt"`
}
