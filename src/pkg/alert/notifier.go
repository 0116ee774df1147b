// Package alert mails security alerts raised at the gate.
package alert

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/access"
	"condo-plates/src/pkg/email"
	"condo-plates/src/pkg/vehicle"
)

const textBody = `{{.Alert.Title}}

{{.Alert.Description}}

Plate:      {{.Plate}}
Outcome:    {{.Outcome}}
Confidence: {{printf "%.3f" .Confidence}}
Source:     {{.Source}}
{{- if .Vehicle}}
Resident:   {{.Vehicle.Resident}} (unit {{.Vehicle.Unit}})
Status:     {{.Vehicle.Status}}
{{- end}}
Time:       {{.Time}}
Record:     {{.Alert.AccessRecordID}}
`

const htmlBody = `<h2>{{.Alert.Title}}</h2>
<p>{{.Alert.Description}}</p>
<table>
<tr><td>Plate</td><td><b>{{.Plate}}</b></td></tr>
<tr><td>Outcome</td><td>{{.Outcome}}</td></tr>
<tr><td>Confidence</td><td>{{printf "%.3f" .Confidence}}</td></tr>
<tr><td>Source</td><td>{{.Source}}</td></tr>
{{- if .Vehicle}}
<tr><td>Resident</td><td>{{.Vehicle.Resident}} (unit {{.Vehicle.Unit}})</td></tr>
<tr><td>Status</td><td>{{.Vehicle.Status}}</td></tr>
{{- end}}
<tr><td>Time</td><td>{{.Time}}</td></tr>
</table>
`

var (
	textTemplate = texttemplate.Must(texttemplate.New("alert.txt").Parse(textBody))
	htmlTemplate = htmltemplate.Must(htmltemplate.New("alert.html").Parse(htmlBody))
)

type templateData struct {
	Alert      vehicle.Alert
	Plate      string
	Outcome    vehicle.Outcome
	Confidence float64
	Source     string
	Vehicle    *vehicle.Vehicle
	Time       string
}

// sendFunc matches email.SendMessageContext.
type sendFunc func(
	ctx context.Context, provider email.Provider, sendEmails *bool, sender string, recipients []string,
	subject, text, html string, headers map[string]string,
) *xerr.Error

// EmailNotifier implements access.Notifier by mailing every alert to the configured recipients.
type EmailNotifier struct {
	cfg  Config
	send sendFunc
}

func NewEmailNotifier(cfg Config) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: email.SendMessageContext}
}

func (n *EmailNotifier) Notify(ctx context.Context, alert vehicle.Alert, decision access.Decision) (e *xerr.Error) {
	if len(n.cfg.Recipients) == 0 {
		tl.Log(tl.Verbose, palette.CyanDim, "Alert '%s' not mailed: %s", alert.ID, "no recipients configured")
		return nil
	}

	subject, text, html, e := Render(n.cfg.SubjectPrefix, alert, decision)
	if e != nil {
		return e
	}

	sendEmails := n.cfg.SendEmails
	headers := map[string]string{"X-Condo-Alert-Kind": alert.Kind, "X-Condo-Alert-Id": alert.ID}
	return n.send(ctx, email.Provider(n.cfg.Provider), &sendEmails, n.cfg.Sender, n.cfg.Recipients, subject, text, html, headers)
}

// Render builds the subject plus the text and HTML bodies of an alert e-mail.
func Render(subjectPrefix string, alert vehicle.Alert, decision access.Decision) (subject, text, html string, e *xerr.Error) {
	created := alert.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	data := templateData{
		Alert:      alert,
		Plate:      decision.Result.Plate,
		Outcome:    decision.Outcome,
		Confidence: decision.Result.Confidence,
		Source:     decision.Result.Source,
		Vehicle:    decision.Vehicle,
		Time:       created.Local().Format("2006-01-02 15:04:05 MST"),
	}

	var textBuffer, htmlBuffer bytes.Buffer
	err := textTemplate.Execute(&textBuffer, data)
	if err != nil {
		return "", "", "", xerr.NewError(err, "render alert text", alert.ID)
	}
	err = htmlTemplate.Execute(&htmlBuffer, data)
	if err != nil {
		return "", "", "", xerr.NewError(err, "render alert html", alert.ID)
	}

	subject = strings.TrimSpace(subjectPrefix + " " + alert.Title)
	return subject, textBuffer.String(), htmlBuffer.String(), nil
}
