package domain

import "time"

// AlertSeverity is caller-supplied; the pipeline never computes it.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Severities lists valid severities from least to most urgent.
var Severities = []AlertSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether the severity is a member of the fixed enum.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AlertStatus tracks the alert lifecycle. Transitions are owned by the
// external resolution workflow, not validated here.
type AlertStatus string

const (
	StatusOpen         AlertStatus = "open"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusResolved     AlertStatus = "resolved"
)

// Valid reports whether the status is a member of the fixed enum.
func (s AlertStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAcknowledged, StatusResolved:
		return true
	}
	return false
}

// Alert records that a metric crossed a threshold somewhere. Threshold and
// actual values come from the caller.
type Alert struct {
	ID             int64         `json:"id"`
	AlertType      string        `json:"alertType"`
	URL            string        `json:"url"`
	MetricName     string        `json:"metricName"`
	ThresholdValue float64       `json:"thresholdValue"`
	ActualValue    float64       `json:"actualValue"`
	Severity       AlertSeverity `json:"severity"`
	Status         AlertStatus   `json:"status"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
	ResolvedBy     string        `json:"resolvedBy,omitempty"`
}
