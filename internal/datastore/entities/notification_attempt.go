package entities

import "time"

// Recipient types.
const (
	RecipientTypeUser     = "user"
	RecipientTypeGuardian = "guardian"
	RecipientTypeDoctor   = "doctor"
)

// Delivery methods.
const (
	MethodSMS   = "sms"
	MethodCall  = "call"
	MethodEmail = "email"
	MethodPush  = "push"
)

// Attempt statuses. Transitions only move forward:
// pending → sent|failed, sent → delivered|acknowledged.
const (
	AttemptStatusPending      = "pending"
	AttemptStatusSent         = "sent"
	AttemptStatusDelivered    = "delivered"
	AttemptStatusFailed       = "failed"
	AttemptStatusAcknowledged = "acknowledged"
)

// NotificationAttempt records a single delivery leg of an alert's fan-out.
// SortOrder preserves dispatch order (user before guardians, guardians in
// priority order) for read-back.
type NotificationAttempt struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	EventID        string     `gorm:"type:varchar(36);not null;index" json:"event_id"`
	Recipient      string     `gorm:"size:255;not null" json:"recipient"`
	RecipientType  string     `gorm:"size:16;not null" json:"recipient_type"`
	Method         string     `gorm:"size:16;not null" json:"method"`
	Status         string     `gorm:"size:16;not null;default:'pending'" json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ErrorMessage   string     `gorm:"size:500;default:''" json:"error_message,omitempty"`
	ProviderRef    string     `gorm:"size:128;default:''" json:"provider_ref,omitempty"`
	RetryCount     int        `gorm:"default:0" json:"retry_count"`
	SortOrder      int        `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (NotificationAttempt) TableName() string {
	return "notification_attempts"
}
