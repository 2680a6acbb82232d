package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/logger"
	"github.com/glucosense/glucosense-go/internal/transport"
)

// defaultDispatchTimeout bounds a single transport call so a slow provider
// cannot stall the rest of the fan-out.
const defaultDispatchTimeout = 3 * time.Second

// Outcome is the structured result of one dispatch. Transport failures and
// missing providers degrade to a failed Outcome; Dispatch never returns an
// error and never lets a panic cross the boundary.
type Outcome struct {
	Status      string
	SentAt      *time.Time
	ProviderRef string
	Error       string
}

// Dispatcher sends one message over one channel to one recipient. No retries,
// no alert-state mutation; that is the orchestrator's job.
type Dispatcher interface {
	Dispatch(ctx context.Context, leg Leg) Outcome
}

// Transports aggregates the configured provider senders. A nil field means
// that channel is not configured and dispatches on it fail soft.
type Transports struct {
	SMS   transport.SMSSender
	Call  transport.CallSender
	Email transport.EmailSender
	Push  transport.PushSender
}

// transportDispatcher routes legs to the matching transport sender.
type transportDispatcher struct {
	transports Transports
	timeout    time.Duration
	log        logger.Logger
}

// NewDispatcher creates a Dispatcher over the given transports. A
// non-positive timeout falls back to 3 seconds.
func NewDispatcher(transports Transports, timeout time.Duration, log logger.Logger) Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &transportDispatcher{transports: transports, timeout: timeout, log: log}
}

// Dispatch implements Dispatcher.
func (d *transportDispatcher) Dispatch(ctx context.Context, leg Leg) (outcome Outcome) {
	defer func() {
		// A panicking transport must not take down the fan-out.
		if r := recover(); r != nil {
			d.log.Error("transport panicked during dispatch",
				logger.String("method", leg.Method),
				logger.Any("panic", r))
			outcome = failedOutcome(fmt.Sprintf("transport panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		result transport.Result
		err    error
	)
	switch leg.Method {
	case entities.MethodSMS:
		if d.transports.SMS == nil {
			return failedOutcome("sms transport not configured")
		}
		result, err = d.transports.SMS.SendSMS(ctx, leg.Recipient, leg.Message)
	case entities.MethodCall:
		if d.transports.Call == nil {
			return failedOutcome("voice transport not configured")
		}
		result, err = d.transports.Call.MakeCall(ctx, leg.Recipient, leg.Message, leg.EventRef)
	case entities.MethodEmail:
		if d.transports.Email == nil {
			return failedOutcome("email transport not configured")
		}
		result, err = d.transports.Email.SendEmail(ctx, leg.Recipient, leg.Subject, leg.Message)
	case entities.MethodPush:
		if d.transports.Push == nil {
			return failedOutcome("push transport not configured")
		}
		result, err = d.transports.Push.SendPush(ctx, leg.Subject, leg.Message)
	default:
		return failedOutcome(fmt.Sprintf("unknown delivery method %q", leg.Method))
	}

	if err != nil {
		d.log.Warn("dispatch failed",
			logger.String("method", leg.Method),
			logger.String("recipient_type", leg.RecipientType),
			logger.Error(err))
		return failedOutcome(err.Error())
	}

	now := time.Now()
	return Outcome{
		Status:      entities.AttemptStatusSent,
		SentAt:      &now,
		ProviderRef: result.ProviderRef,
	}
}

func failedOutcome(message string) Outcome {
	return Outcome{Status: entities.AttemptStatusFailed, Error: message}
}
