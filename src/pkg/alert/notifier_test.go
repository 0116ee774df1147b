package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/access"
	"condo-plates/src/pkg/email"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/vehicle"
)

type sentMessage struct {
	provider   email.Provider
	sendEmails bool
	recipients []string
	subject    string
	text       string
	html       string
	headers    map[string]string
}

func recordingSender(sent *[]sentMessage, err *xerr.Error) sendFunc {
	return func(
		_ context.Context, provider email.Provider, sendEmails *bool, _ string, recipients []string,
		subject, text, html string, headers map[string]string,
	) *xerr.Error {
		*sent = append(*sent, sentMessage{provider, *sendEmails, recipients, subject, text, html, headers})
		return err
	}
}

var testAlert = vehicle.Alert{
	ID: "alert-1", Kind: vehicle.AlertKindUnauthorized, Severity: vehicle.SeverityMedium,
	Title: "Unregistered vehicle ABC1234", Description: "Plate ABC1234 is not in the vehicle registry.",
	AccessRecordID: "record-1", CreatedAt: time.Date(2026, 4, 2, 22, 15, 0, 0, time.UTC),
}

var testDecision = access.Decision{
	Result:  recognize.Result{Plate: "ABC1234", Found: true, Confidence: 0.93, Source: "azure"},
	Outcome: vehicle.OutcomeDenied,
}

func TestRender(t *testing.T) {
	subject, text, html, e := Render("[gate]", testAlert, testDecision)
	require.Nil(t, e)

	assert.Equal(t, "[gate] Unregistered vehicle ABC1234", subject)
	assert.Contains(t, text, "Plate:      ABC1234")
	assert.Contains(t, text, "Confidence: 0.930")
	assert.Contains(t, text, "Record:     record-1")
	assert.NotContains(t, text, "Resident")
	assert.Contains(t, html, "<b>ABC1234</b>")
}

func TestRenderWithVehicleEscapesHTML(t *testing.T) {
	decision := testDecision
	decision.Vehicle = &vehicle.Vehicle{Resident: "<script>x</script>", Unit: "4B", Status: vehicle.StatusSuspended}

	_, text, html, e := Render("", testAlert, decision)
	require.Nil(t, e)
	assert.Contains(t, text, "Status:     suspended")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestNotifySendsToRecipients(t *testing.T) {
	var sent []sentMessage
	notifier := NewEmailNotifier(Config{Provider: "sendgrid", Sender: "gate@example.com", Recipients: []string{"guard@example.com"}, SubjectPrefix: "[gate]"})
	notifier.send = recordingSender(&sent, nil)

	require.Nil(t, notifier.Notify(context.Background(), testAlert, testDecision))
	require.Len(t, sent, 1)
	assert.Equal(t, email.ProviderSendGrid, sent[0].provider)
	assert.False(t, sent[0].sendEmails)
	assert.Equal(t, []string{"guard@example.com"}, sent[0].recipients)
	assert.Equal(t, "alert-1", sent[0].headers["X-Condo-Alert-Id"])
}

func TestNotifyWithoutRecipientsIsNoop(t *testing.T) {
	var sent []sentMessage
	notifier := NewEmailNotifier(Config{SendEmails: true})
	notifier.send = recordingSender(&sent, nil)

	assert.Nil(t, notifier.Notify(context.Background(), testAlert, testDecision))
	assert.Empty(t, sent)
}

func TestNotifyReturnsSendError(t *testing.T) {
	var sent []sentMessage
	notifier := NewEmailNotifier(Config{SendEmails: true, Provider: "ses", Sender: "gate@example.com", Recipients: []string{"guard@example.com"}})
	notifier.send = recordingSender(&sent, xerr.NewError(errors.New("throttled"), "send", nil))

	assert.NotNil(t, notifier.Notify(context.Background(), testAlert, testDecision))
	require.Len(t, sent, 1)
	assert.True(t, sent[0].sendEmails)
}

func TestEmailNotifierIsAccessNotifier(t *testing.T) {
	var _ access.Notifier = NewEmailNotifier(DefaultValueConfig())
}
