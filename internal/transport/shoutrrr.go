package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/glucosense/glucosense-go/internal/errors"
)

// ShoutrrrEmail implements EmailSender over a shoutrrr SMTP service URL.
// The configured URL omits the recipient; it is appended per send.
type ShoutrrrEmail struct {
	serviceURL string
}

// NewShoutrrrEmail creates an email transport. Returns nil for an empty URL
// ("not configured").
func NewShoutrrrEmail(serviceURL string) *ShoutrrrEmail {
	if serviceURL == "" {
		return nil
	}
	return &ShoutrrrEmail{serviceURL: serviceURL}
}

// SendEmail implements EmailSender.
func (s *ShoutrrrEmail) SendEmail(_ context.Context, to, subject, html string) (Result, error) {
	sep := "?"
	if strings.Contains(s.serviceURL, "?") {
		sep = "&"
	}
	target := s.serviceURL + sep + "toaddresses=" + url.QueryEscape(to) + "&usehtml=yes"

	sender, err := shoutrrr.CreateSender(target)
	if err != nil {
		return Result{}, errors.WithCategory(fmt.Errorf("invalid email service URL: %w", err), errors.CategoryConfiguration)
	}
	params := &types.Params{"title": subject}
	for _, sendErr := range sender.Send(html, params) {
		if sendErr != nil {
			return Result{}, errors.WithCategory(fmt.Errorf("email send failed: %w", sendErr), errors.CategoryTransport)
		}
	}
	return Result{}, nil
}

// ShoutrrrPush implements PushSender over any shoutrrr service URL
// (ntfy, gotify, etc.).
type ShoutrrrPush struct {
	serviceURL string
}

// NewShoutrrrPush creates a push transport. Returns nil for an empty URL.
func NewShoutrrrPush(serviceURL string) *ShoutrrrPush {
	if serviceURL == "" {
		return nil
	}
	return &ShoutrrrPush{serviceURL: serviceURL}
}

// SendPush implements PushSender.
func (s *ShoutrrrPush) SendPush(_ context.Context, title, body string) (Result, error) {
	sender, err := shoutrrr.CreateSender(s.serviceURL)
	if err != nil {
		return Result{}, errors.WithCategory(fmt.Errorf("invalid push service URL: %w", err), errors.CategoryConfiguration)
	}
	params := &types.Params{"title": title}
	for _, sendErr := range sender.Send(body, params) {
		if sendErr != nil {
			return Result{}, errors.WithCategory(fmt.Errorf("push send failed: %w", sendErr), errors.CategoryTransport)
		}
	}
	return Result{}, nil
}
