// Package api exposes the HTTP surface of the alert engine: reading intake,
// alert queries, acknowledgement (including the voice keypress callback), and
// device alerts.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glucosense/glucosense-go/internal/alerting"
	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/logger"
)

// AlertService is the engine surface the API depends on. *alerting.Orchestrator
// implements it.
type AlertService interface {
	Acknowledge(ctx context.Context, eventID, by string) (*entities.AlertEvent, error)
	Resolve(ctx context.Context, eventID string, autoResolved bool, notes string) (*entities.AlertEvent, error)
	ListUnacknowledged(ctx context.Context, userID string) ([]entities.AlertEvent, error)
	GetEvent(ctx context.Context, eventID string) (*entities.AlertEvent, error)
	RaiseDeviceAlert(ctx context.Context, userID, alertType string) (*entities.AlertEvent, error)
}

// ReadingPublisher accepts readings for async evaluation. *alerting.ReadingBus
// implements it.
type ReadingPublisher interface {
	Publish(event *alerting.ReadingEvent)
}

// Controller registers and serves the API routes.
type Controller struct {
	echo     *echo.Echo
	service  AlertService
	readings ReadingPublisher
	log      logger.Logger
}

// New creates the API controller and registers all routes on e.
func New(e *echo.Echo, service AlertService, readings ReadingPublisher, registry *prometheus.Registry, log logger.Logger) *Controller {
	c := &Controller{
		echo:     e,
		service:  service,
		readings: readings,
		log:      log,
	}

	e.Use(middleware.Recover())

	v1 := e.Group("/api/v1")
	v1.POST("/readings", c.PostReading)

	alerts := v1.Group("/alerts")
	alerts.GET("/unacknowledged", c.ListUnacknowledged)
	alerts.POST("/acknowledge", c.AcknowledgeFromCall)
	alerts.POST("/device", c.PostDeviceAlert)
	alerts.GET("/:id", c.GetAlert)
	alerts.POST("/:id/acknowledge", c.AcknowledgeAlert)
	alerts.POST("/:id/resolve", c.ResolveAlert)

	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return c
}
