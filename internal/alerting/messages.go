package alerting

import (
	"fmt"
	"strings"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
)

// Message templates for the notification fan-out. Variables are substituted
// with {{name}} placeholders.
const (
	userSMSTemplate = "CRITICAL ALERT: Your glucose level is {{glucose}} mg/dL ({{direction}}). " +
		"Please check immediately{{advice}}"

	guardianSMSTemplate = "ALERT: {{first_name}} {{last_name}}'s glucose is {{glucose}} mg/dL. " +
		"Please check on them."

	escalationCallTemplate = "This is an urgent alert from Gluco Sense. {{first_name}}'s glucose level is " +
		"{{glucose}} milligrams per deciliter. Immediate attention required."

	emailSubjectTemplate = "CRITICAL: Glucose Alert - {{glucose}} mg/dL"
)

// renderMessage substitutes {{key}} placeholders in a template.
func renderMessage(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func formatGlucose(glucose float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", glucose), "0"), ".")
}

// userAlertMessage is the SMS body sent to the user themselves.
func userAlertMessage(glucose float64, highSide bool) string {
	direction, advice := "LOW", " and consume fast-acting carbs!"
	if highSide {
		direction, advice = "HIGH", "!"
	}
	return renderMessage(userSMSTemplate, map[string]string{
		"glucose":   formatGlucose(glucose),
		"direction": direction,
		"advice":    advice,
	})
}

// guardianAlertMessage is the SMS body sent to each eligible guardian.
func guardianAlertMessage(firstName, lastName string, glucose float64) string {
	return renderMessage(guardianSMSTemplate, map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"glucose":    formatGlucose(glucose),
	})
}

// escalationCallScript is the voice script for the unacknowledged follow-up.
func escalationCallScript(firstName string, glucose float64) string {
	return renderMessage(escalationCallTemplate, map[string]string{
		"first_name": firstName,
		"glucose":    formatGlucose(glucose),
	})
}

// alertEmailSubject and alertEmailBody build the critical alert email.
func alertEmailSubject(glucose float64) string {
	return renderMessage(emailSubjectTemplate, map[string]string{"glucose": formatGlucose(glucose)})
}

func alertEmailBody(firstName string, glucose float64, highSide bool) string {
	direction := "LOW"
	actions := "<ul>" +
		"<li>Consume 15-20g of fast-acting carbs immediately</li>" +
		"<li>Wait 15 minutes and recheck glucose</li>" +
		"<li>If still low, repeat treatment</li>" +
		"<li>Contact emergency services if symptoms worsen</li>" +
		"</ul>"
	if highSide {
		direction = "HIGH"
		actions = "<ul>" +
			"<li>Check your blood glucose with a meter to confirm</li>" +
			"<li>Drink water</li>" +
			"<li>Contact your healthcare provider if levels remain high</li>" +
			"<li>Take medication if prescribed</li>" +
			"</ul>"
	}
	return fmt.Sprintf(
		"<h2>CRITICAL GLUCOSE ALERT</h2>"+
			"<p>Hi %s,</p>"+
			"<p><strong>Your glucose level is %s mg/dL (%s)</strong></p>"+
			"<p>Immediate action required:</p>%s"+
			"<p>Your emergency contacts have been notified.</p>",
		firstName, formatGlucose(glucose), direction, actions)
}

// deviceAlertMessage describes a device/sensor alert for notification bodies.
func deviceAlertMessage(alertType string) string {
	switch alertType {
	case entities.AlertTypeSensorError:
		return "Your glucose sensor reported an error. Readings may be unreliable until it recovers."
	case entities.AlertTypeDeviceOffline:
		return "Your glucose monitoring device has gone offline. Check its power and connection."
	case entities.AlertTypeBatteryLow:
		return "Your glucose monitoring device battery is low. Please charge it soon."
	default:
		return "Your glucose monitoring device needs attention."
	}
}
