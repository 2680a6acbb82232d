// Package repository provides persistence for alert events and escalation
// tasks. Implementations must keep single-event operations atomic with
// respect to concurrent readers and writers of the same event id.
package repository

import (
	"context"
	"time"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/errors"
)

// ErrAlertEventNotFound is returned for operations on unknown event ids.
var ErrAlertEventNotFound = errors.WithCategory(errors.New("alert event not found"), errors.CategoryNotFound)

// AlertEventRepository is the alert ledger: create/read/append/acknowledge
// operations keyed by event id. All mutation flows through the orchestrator.
type AlertEventRepository interface {
	// CreateEvent persists a new alert event.
	CreateEvent(ctx context.Context, event *entities.AlertEvent) error

	// GetEvent returns an event with its attempts in dispatch order.
	GetEvent(ctx context.Context, id string) (*entities.AlertEvent, error)

	// AppendAttempt adds one notification attempt to an event.
	AppendAttempt(ctx context.Context, eventID string, attempt *entities.NotificationAttempt) error

	// Acknowledge marks an event acknowledged. Idempotent: acknowledging an
	// already-acknowledged event returns its current state unchanged and
	// reports changed=false.
	Acknowledge(ctx context.Context, id, by string) (event *entities.AlertEvent, changed bool, err error)

	// BeginEscalation atomically claims the single escalation step for an
	// event. Returns true only for the first claim on an event that is still
	// unacknowledged; an acknowledgement that won the race returns false.
	BeginEscalation(ctx context.Context, id string) (bool, error)

	// Resolve marks an event resolved. Idempotent like Acknowledge.
	Resolve(ctx context.Context, id string, autoResolved bool, notes string) (*entities.AlertEvent, error)

	// ListUnacknowledged returns a user's open events, newest first.
	ListUnacknowledged(ctx context.Context, userID string) ([]entities.AlertEvent, error)
}

// EscalationTaskRepository stores deferred follow-up checks.
type EscalationTaskRepository interface {
	// CreateTask persists a pending follow-up for an event.
	CreateTask(ctx context.Context, task *entities.EscalationTask) error

	// ClaimDue atomically moves up to limit due pending tasks to running and
	// returns the claimed set. Concurrent schedulers never claim the same task.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]entities.EscalationTask, error)

	// CompleteTask marks a claimed task done.
	CompleteTask(ctx context.Context, id uint) error

	// CancelForEvent cancels any still-pending task for an event.
	CancelForEvent(ctx context.Context, eventID string) error

	// ResetRunning requeues tasks orphaned in the running state by a crash.
	// Called once on startup before the scheduler begins claiming.
	ResetRunning(ctx context.Context) (int64, error)
}
