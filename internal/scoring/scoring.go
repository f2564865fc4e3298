// Package scoring converts raw Web Vitals values into a 0-100 performance
// score, qualitative ratings and tuning recommendations. All functions are
// pure; the threshold table is the single source of truth shared with the
// aggregate good-rate queries.
package scoring

import "github.com/startupnamer/vitals/internal/domain"

// Threshold holds the boundaries for one metric: at or under Good is "good",
// at or under NeedsImprovement is "needs-improvement", above is "poor".
type Threshold struct {
	Good             float64
	NeedsImprovement float64
}

// Thresholds is the fixed classification table, keyed by canonical metric
// name. Values are milliseconds except CLS, which is a unitless shift score.
var Thresholds = map[string]Threshold{
	domain.MetricLCP:  {Good: 2500, NeedsImprovement: 4000},
	domain.MetricINP:  {Good: 200, NeedsImprovement: 500},
	domain.MetricCLS:  {Good: 0.1, NeedsImprovement: 0.25},
	domain.MetricFCP:  {Good: 1800, NeedsImprovement: 3000},
	domain.MetricTTFB: {Good: 800, NeedsImprovement: 1800},
}

// GoodThreshold returns the "good" boundary for a metric. It panics on an
// unknown name; callers iterate domain.MetricNames.
func GoodThreshold(metric string) float64 {
	return Thresholds[metric].Good
}

// penalty is the score deduction for one metric at needs-improvement and
// poor levels. Only LCP, INP and CLS contribute to the overall score.
type penalty struct {
	metric string
	mid    int
	worst  int
}

var penalties = []penalty{
	{domain.MetricLCP, 20, 50},
	{domain.MetricINP, 15, 30},
	{domain.MetricCLS, 10, 20},
}

// Score computes the overall performance score in [0,100]. Missing metrics
// contribute no penalty: not-measured is not treated as failing.
func Score(m domain.Metrics) int {
	score := 100
	for _, p := range penalties {
		v := m.Get(p.metric)
		if v == nil {
			continue
		}
		switch Rate(p.metric, v) {
		case domain.RatingNeedsImprovement:
			score -= p.mid
		case domain.RatingPoor:
			score -= p.worst
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Rate classifies a single metric value. A nil value yields the empty rating,
// which serializes as JSON null.
func Rate(metric string, value *float64) domain.Rating {
	if value == nil {
		return ""
	}
	th, ok := Thresholds[metric]
	if !ok {
		return ""
	}
	switch {
	case *value <= th.Good:
		return domain.RatingGood
	case *value <= th.NeedsImprovement:
		return domain.RatingNeedsImprovement
	default:
		return domain.RatingPoor
	}
}

// Recommendation suggests a concrete fix for a metric past its threshold.
type Recommendation struct {
	Metric     string `json:"metric"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

type adviceEntry struct {
	label      string
	issue      string
	suggestion string
}

var advice = map[string]adviceEntry{
	domain.MetricLCP: {
		label:      "LCP",
		issue:      "Slow largest contentful paint",
		suggestion: "Compress hero images, preload critical resources and reduce server response time",
	},
	domain.MetricINP: {
		label:      "INP",
		issue:      "Slow interaction responsiveness",
		suggestion: "Break up long tasks, defer non-critical JavaScript and avoid large rendering updates",
	},
	domain.MetricCLS: {
		label:      "CLS",
		issue:      "Layout instability",
		suggestion: "Reserve space for images and embeds, avoid inserting content above existing content",
	},
	domain.MetricFCP: {
		label:      "FCP",
		issue:      "Slow first contentful paint",
		suggestion: "Eliminate render-blocking resources and inline critical CSS",
	},
	domain.MetricTTFB: {
		label:      "TTFB",
		issue:      "Slow server response",
		suggestion: "Add caching, use a CDN and optimize backend processing",
	},
}

// Recommend emits one entry per metric past its "good" threshold, with
// priority high for poor values and medium for needs-improvement. When
// nothing triggers, it emits a single low-priority overall entry so the
// result is never empty.
func Recommend(m domain.Metrics) []Recommendation {
	var recs []Recommendation
	for _, name := range domain.MetricNames {
		v := m.Get(name)
		rating := Rate(name, v)
		if rating != domain.RatingNeedsImprovement && rating != domain.RatingPoor {
			continue
		}
		priority := "medium"
		if rating == domain.RatingPoor {
			priority = "high"
		}
		a := advice[name]
		recs = append(recs, Recommendation{
			Metric:     a.label,
			Issue:      a.issue,
			Suggestion: a.suggestion,
			Priority:   priority,
		})
	}
	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Metric:     "Overall",
			Issue:      "No performance issues detected",
			Suggestion: "Keep monitoring to catch regressions early",
			Priority:   "low",
		})
	}
	return recs
}
