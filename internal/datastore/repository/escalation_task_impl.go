package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
)

// escalationTaskRepository implements EscalationTaskRepository.
type escalationTaskRepository struct {
	db *gorm.DB
}

// NewEscalationTaskRepository creates a new EscalationTaskRepository.
func NewEscalationTaskRepository(db *gorm.DB) EscalationTaskRepository {
	return &escalationTaskRepository{db: db}
}

// CreateTask persists a pending follow-up for an event.
func (r *escalationTaskRepository) CreateTask(ctx context.Context, task *entities.EscalationTask) error {
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create escalation task for event %s: %w", task.EventID, err)
	}
	return nil
}

// ClaimDue selects due pending tasks and claims each with a conditional
// pending→running update, so two schedulers never run the same task.
func (r *escalationTaskRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]entities.EscalationTask, error) {
	var due []entities.EscalationTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", entities.TaskStatusPending, now).
		Order("due_at ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query due escalation tasks: %w", err)
	}

	claimed := make([]entities.EscalationTask, 0, len(due))
	for i := range due {
		result := r.db.WithContext(ctx).Model(&entities.EscalationTask{}).
			Where("id = ? AND status = ?", due[i].ID, entities.TaskStatusPending).
			Update("status", entities.TaskStatusRunning)
		if result.Error != nil {
			return claimed, fmt.Errorf("failed to claim escalation task %d: %w", due[i].ID, result.Error)
		}
		if result.RowsAffected == 1 {
			due[i].Status = entities.TaskStatusRunning
			claimed = append(claimed, due[i])
		}
	}
	return claimed, nil
}

// CompleteTask marks a claimed task done.
func (r *escalationTaskRepository) CompleteTask(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.EscalationTask{}).
		Where("id = ?", id).
		Update("status", entities.TaskStatusDone)
	if result.Error != nil {
		return fmt.Errorf("failed to complete escalation task %d: %w", id, result.Error)
	}
	return nil
}

// CancelForEvent cancels a still-pending task for an event. Tasks already
// claimed by the scheduler are left alone; the orchestrator's conditional
// escalation claim is the authoritative race arbiter.
func (r *escalationTaskRepository) CancelForEvent(ctx context.Context, eventID string) error {
	result := r.db.WithContext(ctx).Model(&entities.EscalationTask{}).
		Where("event_id = ? AND status = ?", eventID, entities.TaskStatusPending).
		Update("status", entities.TaskStatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("failed to cancel escalation task for event %s: %w", eventID, result.Error)
	}
	return nil
}

// ResetRunning requeues tasks orphaned in the running state by a crash.
func (r *escalationTaskRepository) ResetRunning(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.EscalationTask{}).
		Where("status = ?", entities.TaskStatusRunning).
		Update("status", entities.TaskStatusPending)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset running escalation tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}
