package entities

import "time"

// Escalation task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusDone      = "done"
	TaskStatusCancelled = "cancelled"
)

// EscalationTask is a durable deferred follow-up check for an alert event.
// Persisting the task instead of holding an in-process timer lets pending
// escalations survive a daemon restart.
type EscalationTask struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	UserID    string    `gorm:"size:64;not null" json:"user_id"`
	DueAt     time.Time `gorm:"not null;index" json:"due_at"`
	Status    string    `gorm:"size:16;not null;default:'pending';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (EscalationTask) TableName() string {
	return "escalation_tasks"
}
