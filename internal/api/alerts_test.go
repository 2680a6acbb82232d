package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucosense/glucosense-go/internal/alerting"
	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/datastore/repository"
	"github.com/glucosense/glucosense-go/internal/errors"
	"github.com/glucosense/glucosense-go/internal/logger"
)

// mockService is a scripted AlertService for handler tests.
type mockService struct {
	events  map[string]*entities.AlertEvent
	ackBy   []string
	failAll bool
}

func newMockService(events ...*entities.AlertEvent) *mockService {
	m := &mockService{events: make(map[string]*entities.AlertEvent)}
	for _, event := range events {
		m.events[event.ID] = event
	}
	return m
}

func (m *mockService) get(id string) (*entities.AlertEvent, error) {
	if m.failAll {
		return nil, errors.New("database down")
	}
	event, ok := m.events[id]
	if !ok {
		return nil, repository.ErrAlertEventNotFound
	}
	return event, nil
}

func (m *mockService) Acknowledge(_ context.Context, eventID, by string) (*entities.AlertEvent, error) {
	event, err := m.get(eventID)
	if err != nil {
		return nil, err
	}
	m.ackBy = append(m.ackBy, by)
	event.Acknowledged = true
	event.AcknowledgedBy = by
	return event, nil
}

func (m *mockService) Resolve(_ context.Context, eventID string, _ bool, notes string) (*entities.AlertEvent, error) {
	event, err := m.get(eventID)
	if err != nil {
		return nil, err
	}
	event.Resolved = true
	event.Notes = notes
	return event, nil
}

func (m *mockService) ListUnacknowledged(_ context.Context, userID string) ([]entities.AlertEvent, error) {
	if m.failAll {
		return nil, errors.New("database down")
	}
	var out []entities.AlertEvent
	for _, event := range m.events {
		if event.UserID == userID && !event.Acknowledged {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (m *mockService) GetEvent(_ context.Context, eventID string) (*entities.AlertEvent, error) {
	return m.get(eventID)
}

func (m *mockService) RaiseDeviceAlert(_ context.Context, userID, alertType string) (*entities.AlertEvent, error) {
	if alertType == entities.AlertTypeBatteryLow {
		// Simulates quiet-hours suppression.
		return nil, nil
	}
	if alertType != entities.AlertTypeSensorError && alertType != entities.AlertTypeDeviceOffline {
		return nil, errors.New("unknown device alert type")
	}
	event := &entities.AlertEvent{ID: "dev-1", UserID: userID, AlertType: alertType}
	m.events[event.ID] = event
	return event, nil
}

// mockPublisher records published readings.
type mockPublisher struct {
	published []*alerting.ReadingEvent
}

func (m *mockPublisher) Publish(event *alerting.ReadingEvent) {
	m.published = append(m.published, event)
}

func newTestController(service *mockService, publisher *mockPublisher) *echo.Echo {
	e := echo.New()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	New(e, service, publisher, nil, log)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPostReading(t *testing.T) {
	t.Parallel()

	publisher := &mockPublisher{}
	e := newTestController(newMockService(), publisher)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/readings",
		`{"user_id":"user-1","glucose_value":45,"reading_id":"r-1"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "user-1", publisher.published[0].UserID)
	assert.Equal(t, 45.0, publisher.published[0].GlucoseValue)
}

func TestPostReading_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"glucose_value":45}`},
		{"zero glucose", `{"user_id":"user-1","glucose_value":0}`},
		{"negative glucose", `{"user_id":"user-1","glucose_value":-10}`},
		{"bad timestamp", `{"user_id":"user-1","glucose_value":45,"timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			publisher := &mockPublisher{}
			e := newTestController(newMockService(), publisher)

			rec := doJSON(t, e, http.MethodPost, "/api/v1/readings", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, publisher.published)
		})
	}
}

func TestGetAlert(t *testing.T) {
	t.Parallel()

	service := newMockService(&entities.AlertEvent{
		ID:        "evt-1",
		UserID:    "user-1",
		AlertType: entities.AlertTypeCriticalLow,
	})
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodGet, "/api/v1/alerts/evt-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.AlertEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, entities.AlertTypeCriticalLow, got.AlertType)
}

func TestGetAlert_NotFound(t *testing.T) {
	t.Parallel()

	e := newTestController(newMockService(), &mockPublisher{})
	rec := doJSON(t, e, http.MethodGet, "/api/v1/alerts/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUnacknowledged(t *testing.T) {
	t.Parallel()

	service := newMockService(
		&entities.AlertEvent{ID: "evt-1", UserID: "user-1"},
		&entities.AlertEvent{ID: "evt-2", UserID: "user-1", Acknowledged: true},
		&entities.AlertEvent{ID: "evt-3", UserID: "user-2"},
	)
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodGet, "/api/v1/alerts/unacknowledged?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Alerts []entities.AlertEvent `json:"alerts"`
		Count  int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, "evt-1", got.Alerts[0].ID)
}

func TestListUnacknowledged_RequiresUserID(t *testing.T) {
	t.Parallel()

	e := newTestController(newMockService(), &mockPublisher{})
	rec := doJSON(t, e, http.MethodGet, "/api/v1/alerts/unacknowledged", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcknowledgeAlert(t *testing.T) {
	t.Parallel()

	service := newMockService(&entities.AlertEvent{ID: "evt-1", UserID: "user-1"})
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/evt-1/acknowledge",
		`{"acknowledged_by":"maria"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"maria"}, service.ackBy)
}

func TestAcknowledgeAlert_DefaultsActor(t *testing.T) {
	t.Parallel()

	service := newMockService(&entities.AlertEvent{ID: "evt-1", UserID: "user-1"})
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/evt-1/acknowledge", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user"}, service.ackBy)
}

func TestAcknowledgeFromCall(t *testing.T) {
	t.Parallel()

	service := newMockService(&entities.AlertEvent{ID: "evt-1", UserID: "user-1"})
	e := newTestController(service, &mockPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/acknowledge?event_id=evt-1",
		strings.NewReader("Digits=5"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<Response>")
	assert.Contains(t, rec.Body.String(), "Alert acknowledged")
	assert.Equal(t, []string{"voice"}, service.ackBy)
}

func TestAcknowledgeFromCall_MissingEventID(t *testing.T) {
	t.Parallel()

	e := newTestController(newMockService(), &mockPublisher{})
	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/acknowledge", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAlert(t *testing.T) {
	t.Parallel()

	service := newMockService(&entities.AlertEvent{ID: "evt-1", UserID: "user-1"})
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/evt-1/resolve",
		`{"notes":"back in range"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.AlertEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Resolved)
	assert.Equal(t, "back in range", got.Notes)
}

func TestPostDeviceAlert(t *testing.T) {
	t.Parallel()

	service := newMockService()
	e := newTestController(service, &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/device",
		`{"user_id":"user-1","alert_type":"sensor_error"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got entities.AlertEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, entities.AlertTypeSensorError, got.AlertType)
}

func TestPostDeviceAlert_Suppressed(t *testing.T) {
	t.Parallel()

	e := newTestController(newMockService(), &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/device",
		`{"user_id":"user-1","alert_type":"battery_low"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "suppressed")
}

func TestPostDeviceAlert_Validation(t *testing.T) {
	t.Parallel()

	e := newTestController(newMockService(), &mockPublisher{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/alerts/device", `{"user_id":"user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/alerts/device",
		`{"user_id":"user-1","alert_type":"haunted"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
