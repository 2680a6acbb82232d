package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/datastore/repository"
	"github.com/glucosense/glucosense-go/internal/directory"
	"github.com/glucosense/glucosense-go/internal/errors"
	"github.com/glucosense/glucosense-go/internal/logger"
	"github.com/glucosense/glucosense-go/internal/observability/metrics"
)

// defaultEscalationDelay is how long an alert may sit unacknowledged before
// the follow-up voice call.
const defaultEscalationDelay = 5 * time.Minute

// OrchestratorConfig tunes the escalation pipeline.
type OrchestratorConfig struct {
	// EscalationDelay is the wait before the unacknowledged follow-up check.
	// Zero falls back to 5 minutes.
	EscalationDelay time.Duration
	// PushEnabled adds a push leg to every critical fan-out when the push
	// transport is configured.
	PushEnabled bool
}

// Orchestrator is the stateful core of the engine. It owns all AlertEvent
// mutation: classification, fan-out, acknowledgement, and escalation all flow
// through it. Safe for concurrent use across distinct users and events; the
// only same-event race (escalation vs. acknowledgement) is arbitrated by the
// ledger's conditional escalation claim.
type Orchestrator struct {
	events     repository.AlertEventRepository
	tasks      repository.EscalationTaskRepository
	directory  directory.UserDirectory
	dispatcher Dispatcher
	metrics    *metrics.AlertMetrics
	log        logger.Logger

	escalationDelay time.Duration
	pushEnabled     bool

	// now is swappable for tests.
	now func() time.Time
}

// NewOrchestrator creates the escalation orchestrator.
func NewOrchestrator(
	events repository.AlertEventRepository,
	tasks repository.EscalationTaskRepository,
	dir directory.UserDirectory,
	dispatcher Dispatcher,
	m *metrics.AlertMetrics,
	log logger.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	delay := cfg.EscalationDelay
	if delay <= 0 {
		delay = defaultEscalationDelay
	}
	return &Orchestrator{
		events:          events,
		tasks:           tasks,
		directory:       dir,
		dispatcher:      dispatcher,
		metrics:         m,
		log:             log,
		escalationDelay: delay,
		pushEnabled:     cfg.PushEnabled,
		now:             time.Now,
	}
}

// EvaluateReading classifies a glucose reading and, when alert-worthy, creates
// an alert event, fans out notifications, and schedules the follow-up check.
// Returns (nil, nil) for readings in the normal range or suppressed by quiet
// hours. Alerting is best-effort relative to the reading write path: transport
// failures are recorded per attempt, never returned as errors.
func (o *Orchestrator) EvaluateReading(ctx context.Context, userID string, glucose float64, readingID string) (*entities.AlertEvent, error) {
	o.metrics.ReadingsEvaluated.Inc()

	profile, err := o.directory.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}

	// The profile is an immutable snapshot: settings changed mid-pipeline
	// cannot race the fan-out.
	cls, ok := Classify(glucose, thresholdsFor(profile))
	if !ok {
		return nil, nil
	}

	if Suppressed(cls.Severity, profile.Settings.QuietHours, o.now()) {
		o.metrics.AlertsSuppressed.Inc()
		o.log.Info("alert suppressed by quiet hours",
			logger.String("user_id", userID),
			logger.String("alert_type", cls.AlertType))
		return nil, nil
	}

	highSide := cls.AlertType == entities.AlertTypeSevereHigh || cls.AlertType == entities.AlertTypeCriticalHigh
	msgs := planMessages{
		UserBody:     userAlertMessage(glucose, highSide),
		GuardianBody: guardianAlertMessage(profile.FirstName, profile.LastName, glucose),
		EmailSubject: alertEmailSubject(glucose),
		EmailHTML:    alertEmailBody(profile.FirstName, glucose, highSide),
	}

	event := &entities.AlertEvent{
		ID:           uuid.NewString(),
		UserID:       userID,
		ReadingID:    readingID,
		AlertType:    cls.AlertType,
		Severity:     cls.Severity,
		GlucoseValue: glucose,
		Message:      msgs.UserBody,
		CreatedAt:    o.now(),
	}
	if err := o.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	o.metrics.AlertsCreated.WithLabelValues(cls.AlertType).Inc()

	legs := buildPlan(profile, msgs)
	if o.pushEnabled {
		legs = append(legs, Leg{
			Recipient:     "channel",
			RecipientType: entities.RecipientTypeUser,
			Method:        entities.MethodPush,
			Subject:       alertEmailSubject(glucose),
			Message:       msgs.UserBody,
		})
	}
	o.fanOut(ctx, event, legs)

	if profile.Settings.EnableCall && profile.PhoneNumber != "" {
		task := &entities.EscalationTask{
			EventID: event.ID,
			UserID:  userID,
			DueAt:   o.now().Add(o.escalationDelay),
		}
		if err := o.tasks.CreateTask(ctx, task); err != nil {
			// Best-effort: the alert itself already went out.
			o.log.Error("failed to schedule escalation follow-up",
				logger.String("event_id", event.ID),
				logger.Error(err))
		}
	}

	o.log.Info("alert event created",
		logger.String("event_id", event.ID),
		logger.String("user_id", userID),
		logger.String("alert_type", cls.AlertType),
		logger.Float64("glucose", glucose),
		logger.Int("attempts", len(event.Attempts)))
	return event, nil
}

// RaiseDeviceAlert creates an alert event for a device/sensor condition
// (sensor_error, device_offline, battery_low). These carry warning or info
// severity, so quiet hours apply. Only the user is notified; guardians are
// reserved for critical glucose alerts, and no escalation is scheduled.
func (o *Orchestrator) RaiseDeviceAlert(ctx context.Context, userID, alertType string) (*entities.AlertEvent, error) {
	cls, ok := classifyDeviceAlert(alertType)
	if !ok {
		return nil, fmt.Errorf("unknown device alert type %q", alertType)
	}

	profile, err := o.directory.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}

	if Suppressed(cls.Severity, profile.Settings.QuietHours, o.now()) {
		o.metrics.AlertsSuppressed.Inc()
		o.log.Info("device alert suppressed by quiet hours",
			logger.String("user_id", userID),
			logger.String("alert_type", alertType))
		return nil, nil
	}

	body := deviceAlertMessage(alertType)
	event := &entities.AlertEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		AlertType: cls.AlertType,
		Severity:  cls.Severity,
		Message:   body,
		CreatedAt: o.now(),
	}
	if err := o.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	o.metrics.AlertsCreated.WithLabelValues(cls.AlertType).Inc()

	var legs []Leg
	if profile.Settings.EnableSMS && profile.PhoneNumber != "" {
		legs = append(legs, Leg{
			Recipient:     profile.PhoneNumber,
			RecipientType: entities.RecipientTypeUser,
			Method:        entities.MethodSMS,
			Message:       body,
		})
	}
	if o.pushEnabled {
		legs = append(legs, Leg{
			Recipient:     "channel",
			RecipientType: entities.RecipientTypeUser,
			Method:        entities.MethodPush,
			Subject:       "GlucoSense device alert",
			Message:       body,
		})
	}
	o.fanOut(ctx, event, legs)
	return event, nil
}

// Acknowledge marks an alert acknowledged and cancels its pending follow-up.
// Idempotent: repeated acknowledgement returns the current state unchanged.
func (o *Orchestrator) Acknowledge(ctx context.Context, eventID, by string) (*entities.AlertEvent, error) {
	event, changed, err := o.events.Acknowledge(ctx, eventID, by)
	if err != nil {
		return nil, err
	}
	if changed {
		o.metrics.Acknowledgements.Inc()
		if err := o.tasks.CancelForEvent(ctx, eventID); err != nil {
			// Best-effort: the escalation claim still loses against the
			// acknowledged flag even if the task survives.
			o.log.Warn("failed to cancel escalation task",
				logger.String("event_id", eventID),
				logger.Error(err))
		}
		o.log.Info("alert acknowledged",
			logger.String("event_id", eventID),
			logger.String("acknowledged_by", by))
	}
	return event, nil
}

// Resolve marks an alert resolved (external resolution action).
func (o *Orchestrator) Resolve(ctx context.Context, eventID string, autoResolved bool, notes string) (*entities.AlertEvent, error) {
	return o.events.Resolve(ctx, eventID, autoResolved, notes)
}

// ListUnacknowledged returns a user's open alerts, newest first.
func (o *Orchestrator) ListUnacknowledged(ctx context.Context, userID string) ([]entities.AlertEvent, error) {
	return o.events.ListUnacknowledged(ctx, userID)
}

// GetEvent returns one alert event with its attempts.
func (o *Orchestrator) GetEvent(ctx context.Context, eventID string) (*entities.AlertEvent, error) {
	return o.events.GetEvent(ctx, eventID)
}

// RunEscalation executes a due follow-up check: if the event is still
// unacknowledged, claim the escalation and place one urgent voice call.
// A single step: the task completes either way and is never re-scheduled.
func (o *Orchestrator) RunEscalation(ctx context.Context, task *entities.EscalationTask) error {
	event, err := o.events.GetEvent(ctx, task.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			return o.tasks.CompleteTask(ctx, task.ID)
		}
		// Leave the task running; ResetRunning requeues it after a restart.
		return err
	}

	if event.Acknowledged {
		o.metrics.EscalationsSkipped.Inc()
		return o.tasks.CompleteTask(ctx, task.ID)
	}

	claimed, err := o.events.BeginEscalation(ctx, event.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// An acknowledgement won the race after our read. Not an error.
		o.metrics.EscalationsSkipped.Inc()
		return o.tasks.CompleteTask(ctx, task.ID)
	}

	leg := Leg{
		RecipientType: entities.RecipientTypeUser,
		Method:        entities.MethodCall,
		EventRef:      event.ID,
	}
	profile, lookupErr := o.directory.Lookup(ctx, task.UserID)
	if lookupErr != nil {
		o.log.Error("failed to load profile for escalation",
			logger.String("event_id", event.ID),
			logger.Error(lookupErr))
		attempt := &entities.NotificationAttempt{
			RecipientType: leg.RecipientType,
			Method:        leg.Method,
			Status:        entities.AttemptStatusFailed,
			ErrorMessage:  "profile lookup failed: " + lookupErr.Error(),
			SortOrder:     len(event.Attempts),
		}
		if err := o.events.AppendAttempt(ctx, event.ID, attempt); err != nil {
			o.log.Error("failed to persist escalation attempt", logger.Error(err))
		}
		return o.tasks.CompleteTask(ctx, task.ID)
	}
	leg.Recipient = profile.PhoneNumber
	leg.Message = escalationCallScript(profile.FirstName, event.GlucoseValue)

	outcome := o.dispatcher.Dispatch(ctx, leg)
	attempt := attemptFromOutcome(leg, outcome, len(event.Attempts))
	if err := o.events.AppendAttempt(ctx, event.ID, attempt); err != nil {
		o.log.Error("failed to persist escalation attempt",
			logger.String("event_id", event.ID),
			logger.Error(err))
	}
	o.metrics.EscalationsFired.Inc()
	o.metrics.NotificationAttempts.WithLabelValues(leg.Method, outcome.Status).Inc()
	o.log.Info("escalation call placed",
		logger.String("event_id", event.ID),
		logger.String("status", outcome.Status))
	return o.tasks.CompleteTask(ctx, task.ID)
}

// fanOut dispatches each planned leg and persists its attempt as it
// completes, so a crash after N attempts never loses the first N-1. A failed
// leg never aborts the remaining legs.
func (o *Orchestrator) fanOut(ctx context.Context, event *entities.AlertEvent, legs []Leg) {
	for _, leg := range legs {
		outcome := o.dispatcher.Dispatch(ctx, leg)
		attempt := attemptFromOutcome(leg, outcome, len(event.Attempts))
		if err := o.events.AppendAttempt(ctx, event.ID, attempt); err != nil {
			o.log.Error("failed to persist notification attempt",
				logger.String("event_id", event.ID),
				logger.String("method", leg.Method),
				logger.Error(err))
		}
		event.Attempts = append(event.Attempts, *attempt)
		o.metrics.NotificationAttempts.WithLabelValues(leg.Method, outcome.Status).Inc()
	}
}

func attemptFromOutcome(leg Leg, outcome Outcome, sortOrder int) *entities.NotificationAttempt {
	return &entities.NotificationAttempt{
		Recipient:     leg.Recipient,
		RecipientType: leg.RecipientType,
		Method:        leg.Method,
		Status:        outcome.Status,
		SentAt:        outcome.SentAt,
		ErrorMessage:  outcome.Error,
		ProviderRef:   outcome.ProviderRef,
		SortOrder:     sortOrder,
	}
}

// thresholdsFor extracts the user's critical bounds, applying defaults when
// the profile carries none.
func thresholdsFor(profile *directory.Profile) Thresholds {
	t := Thresholds{
		CriticalHigh: profile.Settings.CriticalHigh,
		CriticalLow:  profile.Settings.CriticalLow,
	}
	if t.CriticalHigh == 0 {
		t.CriticalHigh = DefaultCriticalHigh
	}
	if t.CriticalLow == 0 {
		t.CriticalLow = DefaultCriticalLow
	}
	return t
}
