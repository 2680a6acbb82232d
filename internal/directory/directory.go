// Package directory provides read-only access to user and guardian
// configuration. The engine receives an immutable Profile snapshot per
// invocation so settings changed mid-pipeline cannot race the fan-out.
package directory

import "context"

// QuietHours is a user's do-not-disturb window in local time-of-day.
// A window with Start > End wraps past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "HH:MM"
	End     string `json:"end"`   // "HH:MM"
}

// AlertSettings are the user-configurable notification preferences.
type AlertSettings struct {
	CriticalHigh float64    `json:"criticalHigh"`
	CriticalLow  float64    `json:"criticalLow"`
	EnableSMS    bool       `json:"enableSMS"`
	EnableCall   bool       `json:"enableCall"`
	EnableEmail  bool       `json:"enableEmail"`
	QuietHours   QuietHours `json:"quietHours"`
}

// Guardian is an emergency contact. Only guardians with NotifyOnAlert and a
// non-empty phone number receive notifications.
type Guardian struct {
	Name          string `json:"name"`
	Relationship  string `json:"relationship"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	NotifyOnAlert bool   `json:"notifyOnAlert"`
	Priority      int    `json:"priority"`
}

// Profile is an immutable snapshot of one user's alerting configuration.
type Profile struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	PhoneNumber string        `json:"phoneNumber"`
	DoctorName  string        `json:"doctorName"`
	DoctorPhone string        `json:"doctorPhone"`
	Guardians   []Guardian    `json:"guardians"`
	Settings    AlertSettings `json:"alertSettings"`
}

// UserDirectory looks up user profiles by id.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (*Profile, error)
}
