// Package transport sends alert messages to people over external providers.
// Every sender degrades "provider not configured" and provider failures to an
// error return; retries and alert-state bookkeeping belong to the caller.
package transport

import "context"

// Result carries the provider's reference for a successfully submitted message.
type Result struct {
	ProviderRef string
}

// SMSSender submits a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (Result, error)
}

// CallSender places a voice call reading the given script. ackRef identifies
// the alert in the keypress acknowledgement callback; empty disables the
// keypress prompt.
type CallSender interface {
	MakeCall(ctx context.Context, to, script, ackRef string) (Result, error)
}

// EmailSender submits an email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) (Result, error)
}

// PushSender submits a push notification to the configured channel.
type PushSender interface {
	SendPush(ctx context.Context, title, body string) (Result, error)
}
