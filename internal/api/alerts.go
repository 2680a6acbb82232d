package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glucosense/glucosense-go/internal/alerting"
	"github.com/glucosense/glucosense-go/internal/datastore/repository"
	"github.com/glucosense/glucosense-go/internal/errors"
	"github.com/glucosense/glucosense-go/internal/logger"
)

// ackTwiML is returned to the voice keypress callback so the caller hears a
// confirmation before hangup.
const ackTwiML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Response><Say voice="alice">Alert acknowledged. Thank you.</Say></Response>`

// PostReading accepts a glucose reading and queues it for evaluation. The
// response does not wait for classification or fan-out.
func (c *Controller) PostReading(ctx echo.Context) error {
	var body struct {
		UserID       string  `json:"user_id"`
		GlucoseValue float64 `json:"glucose_value"`
		ReadingID    string  `json:"reading_id"`
		Timestamp    string  `json:"timestamp"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.UserID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}
	if body.GlucoseValue <= 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "glucose_value must be positive"})
	}

	event := &alerting.ReadingEvent{
		UserID:       body.UserID,
		GlucoseValue: body.GlucoseValue,
		ReadingID:    body.ReadingID,
	}
	if body.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, body.Timestamp)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid timestamp, expected RFC3339"})
		}
		event.Timestamp = ts
	}

	c.readings.Publish(event)
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

// GetAlert returns a single alert event with its notification attempts.
func (c *Controller) GetAlert(ctx echo.Context) error {
	event, err := c.service.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to get alert", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get alert"})
	}
	return ctx.JSON(http.StatusOK, event)
}

// ListUnacknowledged returns a user's open alerts, newest first.
func (c *Controller) ListUnacknowledged(ctx echo.Context) error {
	userID := ctx.QueryParam("user_id")
	if userID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	events, err := c.service.ListUnacknowledged(ctx.Request().Context(), userID)
	if err != nil {
		c.log.Error("failed to list unacknowledged alerts", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list alerts"})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": events,
		"count":  len(events),
	})
}

// AcknowledgeAlert marks an alert acknowledged on behalf of a caller.
func (c *Controller) AcknowledgeAlert(ctx echo.Context) error {
	var body struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.AcknowledgedBy == "" {
		body.AcknowledgedBy = "user"
	}

	event, err := c.service.Acknowledge(ctx.Request().Context(), ctx.Param("id"), body.AcknowledgedBy)
	if err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to acknowledge alert", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to acknowledge alert"})
	}
	return ctx.JSON(http.StatusOK, event)
}

// AcknowledgeFromCall is the voice keypress callback. The call's gather action
// URL carries the event id as a query parameter; any digit acknowledges.
// The response is TwiML, not JSON.
func (c *Controller) AcknowledgeFromCall(ctx echo.Context) error {
	eventID := ctx.QueryParam("event_id")
	if eventID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "event_id is required"})
	}

	if _, err := c.service.Acknowledge(ctx.Request().Context(), eventID, "voice"); err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to acknowledge alert from call",
			logger.String("event_id", eventID),
			logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to acknowledge alert"})
	}

	c.log.Info("alert acknowledged via voice keypress",
		logger.String("event_id", eventID),
		logger.String("digits", ctx.FormValue("Digits")))
	return ctx.Blob(http.StatusOK, "text/xml", []byte(ackTwiML))
}

// ResolveAlert marks an alert resolved.
func (c *Controller) ResolveAlert(ctx echo.Context) error {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	event, err := c.service.Resolve(ctx.Request().Context(), ctx.Param("id"), false, body.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrAlertEventNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to resolve alert", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve alert"})
	}
	return ctx.JSON(http.StatusOK, event)
}

// PostDeviceAlert raises a device or sensor condition alert for a user.
func (c *Controller) PostDeviceAlert(ctx echo.Context) error {
	var body struct {
		UserID    string `json:"user_id"`
		AlertType string `json:"alert_type"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.UserID == "" || body.AlertType == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and alert_type are required"})
	}

	event, err := c.service.RaiseDeviceAlert(ctx.Request().Context(), body.UserID, body.AlertType)
	if err != nil {
		c.log.Error("failed to raise device alert",
			logger.String("user_id", body.UserID),
			logger.String("alert_type", body.AlertType),
			logger.Error(err))
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if event == nil {
		// Suppressed by quiet hours.
		return ctx.JSON(http.StatusOK, map[string]string{"status": "suppressed"})
	}
	return ctx.JSON(http.StatusCreated, event)
}
