package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/errors"
)

// alertEventRepository implements AlertEventRepository.
type alertEventRepository struct {
	db *gorm.DB
}

// NewAlertEventRepository creates a new AlertEventRepository.
func NewAlertEventRepository(db *gorm.DB) AlertEventRepository {
	return &alertEventRepository{db: db}
}

// CreateEvent persists a new alert event with any initial attempts.
func (r *alertEventRepository) CreateEvent(ctx context.Context, event *entities.AlertEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create alert event: %w", err)
	}
	return nil
}

// GetEvent returns an event with attempts preloaded in dispatch order.
func (r *alertEventRepository) GetEvent(ctx context.Context, id string) (*entities.AlertEvent, error) {
	var event entities.AlertEvent
	err := r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertEventNotFound
		}
		return nil, fmt.Errorf("failed to get alert event %s: %w", id, err)
	}
	return &event, nil
}

// AppendAttempt adds one notification attempt to an event.
func (r *alertEventRepository) AppendAttempt(ctx context.Context, eventID string, attempt *entities.NotificationAttempt) error {
	attempt.EventID = eventID
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to append attempt to event %s: %w", eventID, err)
	}
	return nil
}

// Acknowledge marks an event acknowledged. The conditional update only fires
// for the first acknowledgement; later calls return the current state, so the
// original timestamp and acknowledger are never overwritten.
func (r *alertEventRepository) Acknowledge(ctx context.Context, id, by string) (*entities.AlertEvent, bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entities.AlertEvent{}).
		Where("id = ? AND acknowledged = ?", id, false).
		Updates(map[string]any{
			"acknowledged":    true,
			"acknowledged_at": now,
			"acknowledged_by": by,
		})
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to acknowledge alert event %s: %w", id, result.Error)
	}
	// RowsAffected == 0 means already acknowledged or unknown id; GetEvent
	// distinguishes the two.
	event, err := r.GetEvent(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return event, result.RowsAffected == 1, nil
}

// BeginEscalation claims the escalation step with a single conditional write.
func (r *alertEventRepository) BeginEscalation(ctx context.Context, id string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entities.AlertEvent{}).
		Where("id = ? AND acknowledged = ? AND escalated = ?", id, false, false).
		Updates(map[string]any{
			"escalated":    true,
			"escalated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim escalation for event %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Resolve marks an event resolved.
func (r *alertEventRepository) Resolve(ctx context.Context, id string, autoResolved bool, notes string) (*entities.AlertEvent, error) {
	now := time.Now()
	updates := map[string]any{
		"resolved":      true,
		"resolved_at":   now,
		"auto_resolved": autoResolved,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := r.db.WithContext(ctx).Model(&entities.AlertEvent{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to resolve alert event %s: %w", id, result.Error)
	}
	return r.GetEvent(ctx, id)
}

// ListUnacknowledged returns a user's unacknowledged, unresolved events,
// newest first.
func (r *alertEventRepository) ListUnacknowledged(ctx context.Context, userID string) ([]entities.AlertEvent, error) {
	var events []entities.AlertEvent
	err := r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("user_id = ? AND acknowledged = ? AND resolved = ?", userID, false, false).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unacknowledged events for user %s: %w", userID, err)
	}
	return events, nil
}
