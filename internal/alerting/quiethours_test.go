package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/directory"
)

func clockTime(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		t.Fatalf("bad clock value %q: %v", hhmm, err)
	}
	return time.Date(2026, 3, 10, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func TestSuppressed(t *testing.T) {
	t.Parallel()

	overnight := directory.QuietHours{Enabled: true, Start: "22:00", End: "06:00"}
	daytime := directory.QuietHours{Enabled: true, Start: "09:00", End: "17:00"}

	tests := []struct {
		name     string
		severity string
		qh       directory.QuietHours
		now      string
		want     bool
	}{
		{"critical never suppressed inside window", entities.SeverityCritical, overnight, "23:30", false},
		{"warning suppressed before midnight", entities.SeverityWarning, overnight, "23:30", true},
		{"warning suppressed after midnight", entities.SeverityWarning, overnight, "03:00", true},
		{"warning suppressed at window start", entities.SeverityWarning, overnight, "22:00", true},
		{"warning suppressed at window end", entities.SeverityWarning, overnight, "06:00", true},
		{"warning not suppressed at midday", entities.SeverityWarning, overnight, "12:00", false},
		{"info suppressed in same-day window", entities.SeverityInfo, daytime, "13:00", true},
		{"info not suppressed outside same-day window", entities.SeverityInfo, daytime, "18:00", false},
		{"disabled window never suppresses", entities.SeverityWarning, directory.QuietHours{Enabled: false, Start: "00:00", End: "23:59"}, "12:00", false},
		{"malformed start never suppresses", entities.SeverityWarning, directory.QuietHours{Enabled: true, Start: "2200", End: "06:00"}, "23:00", false},
		{"malformed end never suppresses", entities.SeverityWarning, directory.QuietHours{Enabled: true, Start: "22:00", End: "06:70"}, "23:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Suppressed(tt.severity, tt.qh, clockTime(t, tt.now))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"07:30", 450, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			minutes, ok := parseClock(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.minutes, minutes)
			}
		})
	}
}
