// Package validation checks the shape and ranges of incoming telemetry
// payloads before anything is sanitized or stored.
package validation

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/startupnamer/vitals/internal/domain"
)

// MaxBatchSize caps the number of entries a batch submission may carry.
const MaxBatchSize = 10

// maxEpochMillis is 2100-01-01T00:00:00Z. Client timestamps beyond it (or
// before the epoch) are junk clocks, not telemetry.
const maxEpochMillis = 4102444800000

// MetricsPayload carries the optional Web Vitals values as submitted by the
// browser. Field names follow the reporting convention (uppercase).
type MetricsPayload struct {
	LCP  *float64 `json:"LCP"`
	INP  *float64 `json:"INP"`
	CLS  *float64 `json:"CLS"`
	FCP  *float64 `json:"FCP"`
	TTFB *float64 `json:"TTFB"`
}

// Domain converts the payload to canonical metrics.
func (m *MetricsPayload) Domain() domain.Metrics {
	if m == nil {
		return domain.Metrics{}
	}
	return domain.Metrics{LCP: m.LCP, INP: m.INP, CLS: m.CLS, FCP: m.FCP, TTFB: m.TTFB}
}

// ConnectionPayload mirrors the Network Information API fields browsers
// report alongside vitals.
type ConnectionPayload struct {
	EffectiveType string   `json:"effectiveType"`
	Downlink      *float64 `json:"downlink"`
}

// NavigationPayload carries the navigation type, e.g. "navigate" or "reload".
type NavigationPayload struct {
	Type string `json:"type"`
}

// VitalsPayload is one telemetry submission from a client.
type VitalsPayload struct {
	URL        string             `json:"url"`
	Metrics    *MetricsPayload    `json:"metrics"`
	UserAgent  string             `json:"userAgent"`
	Connection *ConnectionPayload `json:"connection"`
	Navigation *NavigationPayload `json:"navigation"`
	SessionID  string             `json:"sessionId"`
	UserID     string             `json:"userId"`
	// Timestamp is the client-reported event time in milliseconds since the
	// Unix epoch.
	Timestamp *float64 `json:"timestamp"`
}

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// metricRanges holds the acceptable value range per metric. Values outside
// the range fail validation for that submission.
var metricRanges = map[string]struct{ min, max float64 }{
	domain.MetricLCP:  {0, 30000},
	domain.MetricINP:  {0, 10000},
	domain.MetricCLS:  {0, 10},
	domain.MetricFCP:  {0, 30000},
	domain.MetricTTFB: {0, 30000},
}

// Validate checks a single payload and returns every violation found. An
// empty result means the payload may be sanitized and stored.
func Validate(p *VitalsPayload) []FieldError {
	var errs []FieldError
	if p == nil {
		return []FieldError{{Field: "body", Message: "payload is required"}}
	}

	errs = append(errs, validateURL(p.URL)...)

	if p.Metrics == nil {
		errs = append(errs, FieldError{Field: "metrics", Message: "metrics object is required"})
	} else {
		m := p.Metrics.Domain()
		if m.Empty() {
			errs = append(errs, FieldError{Field: "metrics", Message: "at least one metric must be present"})
		}
		for _, name := range domain.MetricNames {
			v := m.Get(name)
			if v == nil {
				continue
			}
			r := metricRanges[name]
			if *v < r.min || *v > r.max {
				errs = append(errs, FieldError{
					Field:   "metrics." + name,
					Message: fmt.Sprintf("value %g out of range [%g, %g]", *v, r.min, r.max),
				})
			}
		}
	}

	if p.Timestamp != nil && (*p.Timestamp < 0 || *p.Timestamp > maxEpochMillis) {
		errs = append(errs, FieldError{Field: "timestamp", Message: "must be epoch milliseconds"})
	}

	if p.SessionID != "" {
		if _, err := uuid.Parse(p.SessionID); err != nil {
			errs = append(errs, FieldError{Field: "sessionId", Message: "must be a UUID"})
		}
	}
	if p.UserID != "" {
		if _, err := uuid.Parse(p.UserID); err != nil {
			errs = append(errs, FieldError{Field: "userId", Message: "must be a UUID"})
		}
	}
	return errs
}

func validateURL(raw string) []FieldError {
	if raw == "" {
		return []FieldError{{Field: "url", Message: "url is required"}}
	}
	if len(raw) > 2000 {
		return []FieldError{{Field: "url", Message: "url exceeds 2000 characters"}}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return []FieldError{{Field: "url", Message: "must be a valid http or https URL"}}
	}
	return nil
}

// ValidateBatch checks batch-level shape. Per-entry validation stays with
// Validate so a bad entry never rejects its siblings.
func ValidateBatch(entries []VitalsPayload) []FieldError {
	if len(entries) == 0 {
		return []FieldError{{Field: "vitals", Message: "batch must contain at least one entry"}}
	}
	if len(entries) > MaxBatchSize {
		return []FieldError{{Field: "vitals", Message: fmt.Sprintf("batch exceeds %d entries", MaxBatchSize)}}
	}
	return nil
}
