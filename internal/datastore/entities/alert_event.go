package entities

import "time"

// Alert types.
const (
	AlertTypeCriticalHigh  = "critical_high"
	AlertTypeCriticalLow   = "critical_low"
	AlertTypeSevereHigh    = "severe_high"
	AlertTypeSevereLow     = "severe_low"
	AlertTypeSensorError   = "sensor_error"
	AlertTypeDeviceOffline = "device_offline"
	AlertTypeBatteryLow    = "battery_low"
)

// Severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// AlertEvent is the ledger record of one alert: its classification, the
// notification attempts fanned out for it, and its acknowledgement and
// resolution state. Mutated only by the escalation orchestrator; never
// deleted by the engine.
type AlertEvent struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"size:64;not null;index:idx_alert_events_user_created,priority:1" json:"user_id"`
	ReadingID    string    `gorm:"size:64;default:''" json:"reading_id"`
	AlertType    string    `gorm:"size:32;not null;index" json:"alert_type"`
	Severity     string    `gorm:"size:16;not null" json:"severity"`
	GlucoseValue float64   `json:"glucose_value"`
	Message      string    `gorm:"size:1000;default:''" json:"message"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_alert_events_user_created,priority:2" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Acknowledged   bool       `gorm:"not null;default:false;index" json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `gorm:"size:64;default:''" json:"acknowledged_by,omitempty"`

	// Escalated is the claim flag for the follow-up voice call: set once via
	// a conditional update so an acknowledgement racing the escalation timer
	// cannot lose.
	Escalated   bool       `gorm:"not null;default:false" json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`

	Resolved     bool       `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	AutoResolved bool       `gorm:"not null;default:false" json:"auto_resolved"`
	Notes        string     `gorm:"size:1000;default:''" json:"notes,omitempty"`

	Attempts []NotificationAttempt `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"notifications"`
}

// TableName returns the table name for GORM.
func (AlertEvent) TableName() string {
	return "alert_events"
}
