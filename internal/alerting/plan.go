package alerting

import (
	"sort"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/directory"
)

// Leg is one planned (recipient, method) notification within a fan-out.
type Leg struct {
	Recipient     string
	RecipientType string
	Method        string
	Subject       string // email only
	Message       string
	EventRef      string // voice only; identifies the alert in the keypress callback
}

// planMessages carries the rendered bodies for one fan-out. The guardian
// body is shared by all guardians.
type planMessages struct {
	UserBody     string
	GuardianBody string
	EmailSubject string
	EmailHTML    string
}

// buildPlan produces the ordered recipient plan for an alert: the user's own
// SMS first (when enabled), then eligible guardians in priority order, then
// the user's email (when enabled). Severity never changes the recipient set;
// only quiet-hours suppression upstream does. Guardians are always attempted
// when present, independent of the user's own SMS toggle.
func buildPlan(profile *directory.Profile, m planMessages) []Leg {
	var legs []Leg

	if profile.Settings.EnableSMS && profile.PhoneNumber != "" {
		legs = append(legs, Leg{
			Recipient:     profile.PhoneNumber,
			RecipientType: entities.RecipientTypeUser,
			Method:        entities.MethodSMS,
			Message:       m.UserBody,
		})
	}

	for _, guardian := range eligibleGuardians(profile.Guardians) {
		legs = append(legs, Leg{
			Recipient:     guardian.Phone,
			RecipientType: entities.RecipientTypeGuardian,
			Method:        entities.MethodSMS,
			Message:       m.GuardianBody,
		})
	}

	if profile.Settings.EnableEmail && profile.Email != "" && m.EmailHTML != "" {
		legs = append(legs, Leg{
			Recipient:     profile.Email,
			RecipientType: entities.RecipientTypeUser,
			Method:        entities.MethodEmail,
			Subject:       m.EmailSubject,
			Message:       m.EmailHTML,
		})
	}

	return legs
}

// eligibleGuardians filters to guardians that opted into alerts and have a
// phone number, ordered by priority. The sort is stable so guardians sharing
// a priority keep their configured order.
func eligibleGuardians(guardians []directory.Guardian) []directory.Guardian {
	eligible := make([]directory.Guardian, 0, len(guardians))
	for _, g := range guardians {
		if g.NotifyOnAlert && g.Phone != "" {
			eligible = append(eligible, g)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority < eligible[j].Priority
	})
	return eligible
}
