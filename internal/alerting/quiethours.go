package alerting

import (
	"strconv"
	"strings"
	"time"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/directory"
)

// Suppressed reports whether a classification should be dropped for quiet
// hours. Critical severity is never suppressed regardless of the window.
func Suppressed(severity string, qh directory.QuietHours, now time.Time) bool {
	if severity == entities.SeverityCritical {
		return false
	}
	if !qh.Enabled {
		return false
	}
	return inQuietWindow(qh, now)
}

// inQuietWindow evaluates the [start, end] window inclusive in local
// time-of-day minutes. A window with start > end wraps past midnight, so
// string comparison of clock values would break; minutes-of-day arithmetic
// handles both shapes.
func inQuietWindow(qh directory.QuietHours, now time.Time) bool {
	start, ok := parseClock(qh.Start)
	if !ok {
		return false
	}
	end, ok := parseClock(qh.End)
	if !ok {
		return false
	}

	current := now.Hour()*60 + now.Minute()
	if start <= end {
		return current >= start && current <= end
	}
	// Overnight wrap, e.g. 22:00 to 06:00.
	return current >= start || current <= end
}

// parseClock parses "HH:MM" into minutes past midnight.
func parseClock(value string) (int, bool) {
	hh, mm, found := strings.Cut(value, ":")
	if !found {
		return 0, false
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
