// Package alerting implements the critical-alert escalation engine:
// glucose classification, quiet-hours gating, notification fan-out,
// acknowledgement tracking, and timed single-step escalation.
package alerting

// System-wide severe glucose bounds in mg/dL. These always override user
// thresholds, so a misconfigured profile can never weaken the safety floor.
const (
	SevereHighBound = 300.0
	SevereLowBound  = 40.0
)

// Default user-configurable critical thresholds, applied when a profile
// carries no explicit bounds.
const (
	DefaultCriticalHigh = 250.0
	DefaultCriticalLow  = 54.0
)
