package alerting

import "github.com/glucosense/glucosense-go/internal/datastore/entities"

// Thresholds are the user-configurable critical glucose bounds.
// Invariant: CriticalLow < CriticalHigh, both strictly inside the severe bounds.
type Thresholds struct {
	CriticalHigh float64
	CriticalLow  float64
}

// Classification is the outcome of classifying one glucose reading.
type Classification struct {
	AlertType string
	Severity  string
}

// Classify maps a glucose value to an alert classification, or reports false
// for readings in the normal range. Pure and deterministic. The first match
// wins, most severe first, so a reading beyond the severe bounds classifies
// severe regardless of user thresholds.
func Classify(glucose float64, t Thresholds) (Classification, bool) {
	switch {
	case glucose >= SevereHighBound:
		return Classification{AlertType: entities.AlertTypeSevereHigh, Severity: entities.SeverityCritical}, true
	case glucose <= SevereLowBound:
		return Classification{AlertType: entities.AlertTypeSevereLow, Severity: entities.SeverityCritical}, true
	case glucose > t.CriticalHigh:
		return Classification{AlertType: entities.AlertTypeCriticalHigh, Severity: entities.SeverityCritical}, true
	case glucose < t.CriticalLow:
		return Classification{AlertType: entities.AlertTypeCriticalLow, Severity: entities.SeverityCritical}, true
	default:
		return Classification{}, false
	}
}

// classifyDeviceAlert maps device/sensor alert types to their severity.
// Unknown types report false.
func classifyDeviceAlert(alertType string) (Classification, bool) {
	switch alertType {
	case entities.AlertTypeSensorError, entities.AlertTypeDeviceOffline:
		return Classification{AlertType: alertType, Severity: entities.SeverityWarning}, true
	case entities.AlertTypeBatteryLow:
		return Classification{AlertType: alertType, Severity: entities.SeverityInfo}, true
	default:
		return Classification{}, false
	}
}
