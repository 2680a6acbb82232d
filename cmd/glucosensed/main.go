// glucosensed is the critical-alert escalation daemon: it evaluates glucose
// readings, fans out notifications, and escalates unacknowledged alerts.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/glucosense/glucosense-go/internal/alerting"
	"github.com/glucosense/glucosense-go/internal/api"
	"github.com/glucosense/glucosense-go/internal/conf"
	"github.com/glucosense/glucosense-go/internal/datastore"
	"github.com/glucosense/glucosense-go/internal/datastore/repository"
	"github.com/glucosense/glucosense-go/internal/directory"
	"github.com/glucosense/glucosense-go/internal/logger"
	"github.com/glucosense/glucosense-go/internal/observability/metrics"
	"github.com/glucosense/glucosense-go/internal/readings"
	"github.com/glucosense/glucosense-go/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configFile string

	root := &cobra.Command{
		Use:           "glucosensed",
		Short:         "GlucoSense critical-alert escalation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.NewSlogLogger(os.Stdout, logger.LogLevelInfo, nil)

	db, err := datastore.Open(settings.Database)
	if err != nil {
		return err
	}

	events := repository.NewAlertEventRepository(db)
	tasks := repository.NewEscalationTaskRepository(db)

	registry := prometheus.NewRegistry()
	m := metrics.NewAlertMetrics(registry)

	var dir directory.UserDirectory = directory.NewHTTPDirectory(
		settings.Directory.BaseURL,
		settings.Directory.APIToken,
		settings.Directory.Timeout.Std(),
	)
	if ttl := settings.Directory.CacheTTL.Std(); ttl > 0 {
		dir = directory.NewCachedDirectory(dir, ttl)
	}

	transports := buildTransports(settings, log)
	dispatcher := alerting.NewDispatcher(transports, settings.Alerting.DispatchTimeout.Std(), log)

	orchestrator := alerting.NewOrchestrator(events, tasks, dir, dispatcher, m, log, alerting.OrchestratorConfig{
		EscalationDelay: settings.Alerting.EscalationDelay.Std(),
		PushEnabled:     transports.Push != nil,
	})

	scheduler := alerting.NewEscalationScheduler(tasks, orchestrator, log,
		settings.Alerting.SchedulerInterval.Std(), settings.Alerting.SchedulerBatch)
	if err := scheduler.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start escalation scheduler: %w", err)
	}
	defer scheduler.Stop()

	bus := alerting.NewReadingBus()
	defer bus.Stop()
	bus.Subscribe(func(event *alerting.ReadingEvent) {
		if _, err := orchestrator.EvaluateReading(context.Background(), event.UserID, event.GlucoseValue, event.ReadingID); err != nil {
			log.Error("failed to evaluate reading",
				logger.String("user_id", event.UserID),
				logger.Error(err))
		}
	})

	if settings.MQTT.Enabled {
		source := readings.NewMQTTSource(settings.MQTT, bus, log)
		if err := source.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start mqtt reading source: %w", err)
		}
		defer source.Stop()
	}

	e := echo.New()
	e.HideBanner = true
	api.New(e, orchestrator, bus, registry, log)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.Info("glucosensed started", logger.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// buildTransports wires the configured providers. Unconfigured providers stay
// nil so their channels degrade to failed attempts instead of blocking alerts.
func buildTransports(settings *conf.Settings, log logger.Logger) alerting.Transports {
	var t alerting.Transports

	// Assign through concrete checks to avoid typed-nil interfaces.
	if twilio := transport.NewTwilioClient(settings.Twilio); twilio != nil {
		t.SMS = twilio
		t.Call = twilio
	} else {
		log.Warn("twilio not configured, sms and voice channels disabled")
	}
	if email := transport.NewShoutrrrEmail(settings.Email.ShoutrrrURL); email != nil {
		t.Email = email
	} else {
		log.Warn("email transport not configured")
	}
	if push := transport.NewShoutrrrPush(settings.Push.ShoutrrrURL); push != nil {
		t.Push = push
	}
	return t
}
