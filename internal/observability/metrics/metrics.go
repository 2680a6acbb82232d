// Package metrics exposes prometheus instrumentation for the alert engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AlertMetrics counts the engine's externally visible activity.
type AlertMetrics struct {
	AlertsCreated        *prometheus.CounterVec
	AlertsSuppressed     prometheus.Counter
	NotificationAttempts *prometheus.CounterVec
	EscalationsFired     prometheus.Counter
	EscalationsSkipped   prometheus.Counter
	Acknowledgements     prometheus.Counter
	ReadingsEvaluated    prometheus.Counter
}

// NewAlertMetrics registers the engine counters with reg.
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	factory := promauto.With(reg)
	return &AlertMetrics{
		AlertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glucosense_alerts_created_total",
			Help: "Alert events created, by alert type.",
		}, []string{"alert_type"}),
		AlertsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "glucosense_alerts_suppressed_total",
			Help: "Non-critical alerts suppressed by quiet hours.",
		}),
		NotificationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glucosense_notification_attempts_total",
			Help: "Notification attempts dispatched, by method and status.",
		}, []string{"method", "status"}),
		EscalationsFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "glucosense_escalations_fired_total",
			Help: "Escalation voice calls placed for unacknowledged alerts.",
		}),
		EscalationsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "glucosense_escalations_skipped_total",
			Help: "Escalation checks resolved as no-ops because the alert was already acknowledged.",
		}),
		Acknowledgements: factory.NewCounter(prometheus.CounterOpts{
			Name: "glucosense_acknowledgements_total",
			Help: "Alert acknowledgements that changed state.",
		}),
		ReadingsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "glucosense_readings_evaluated_total",
			Help: "Glucose readings run through the classifier.",
		}),
	}
}
