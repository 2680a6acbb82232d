package transport

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/glucosense/glucosense-go/internal/conf"
	"github.com/glucosense/glucosense-go/internal/errors"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioClient implements SMSSender and CallSender over the Twilio REST API.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	ackURL     string // Gather action target for voice acknowledgement
	baseURL    string
	client     *http.Client
}

// NewTwilioClient creates a Twilio transport from settings. Returns nil when
// credentials are absent or malformed (account SIDs start with "AC"); callers
// treat a nil client as "not configured", not as an error.
func NewTwilioClient(settings conf.TwilioSettings) *TwilioClient {
	if settings.AccountSID == "" || settings.AuthToken == "" || !strings.HasPrefix(settings.AccountSID, "AC") {
		return nil
	}
	return &TwilioClient{
		accountSID: settings.AccountSID,
		authToken:  settings.AuthToken,
		fromNumber: settings.FromNumber,
		ackURL:     settings.AcknowledgeURL,
		baseURL:    twilioBaseURL,
		client:     http.DefaultClient,
	}
}

// SendSMS implements SMSSender.
func (t *TwilioClient) SendSMS(ctx context.Context, to, body string) (Result, error) {
	form := url.Values{
		"To":   {to},
		"From": {t.fromNumber},
		"Body": {body},
	}
	return t.post(ctx, "Messages.json", form)
}

// MakeCall implements CallSender. The script is spoken to the callee; when an
// acknowledge URL is configured and ackRef is set, pressing any key posts back
// to the acknowledge URL with the ref as the event_id query parameter.
func (t *TwilioClient) MakeCall(ctx context.Context, to, script, ackRef string) (Result, error) {
	var twiml strings.Builder
	twiml.WriteString(`<Response><Say voice="alice">`)
	_ = xml.EscapeText(&twiml, []byte(script))
	twiml.WriteString(`</Say>`)
	if t.ackURL != "" && ackRef != "" {
		action := t.ackURL + "?event_id=" + url.QueryEscape(ackRef)
		if strings.Contains(t.ackURL, "?") {
			action = t.ackURL + "&event_id=" + url.QueryEscape(ackRef)
		}
		twiml.WriteString(`<Say voice="alice">Press any key to acknowledge this alert.</Say>`)
		twiml.WriteString(`<Gather numDigits="1" action="`)
		_ = xml.EscapeText(&twiml, []byte(action))
		twiml.WriteString(`"/>`)
	}
	twiml.WriteString(`</Response>`)

	form := url.Values{
		"To":    {to},
		"From":  {t.fromNumber},
		"Twiml": {twiml.String()},
	}
	return t.post(ctx, "Calls.json", form)
}

func (t *TwilioClient) post(ctx context.Context, resource string, form url.Values) (Result, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s", t.baseURL, t.accountSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, errors.WithCategory(fmt.Errorf("twilio request failed: %w", err), errors.CategoryTransport)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, errors.WithCategory(
			fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, twilioErrorMessage(payload)),
			errors.CategoryTransport)
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Result{}, fmt.Errorf("failed to decode twilio response: %w", err)
	}
	return Result{ProviderRef: parsed.SID}, nil
}

// twilioErrorMessage extracts the human-readable message from a Twilio error
// payload, falling back to the raw body.
func twilioErrorMessage(payload []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(payload))
}
