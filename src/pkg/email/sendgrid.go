package email

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/tuumbleweed/xerr"
)

func sendGridMail(msg message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.sender))
	m.Subject = msg.subject

	personalization := mail.NewPersonalization()
	for _, recipient := range msg.recipients {
		personalization.AddTos(mail.NewEmail("", recipient))
	}
	m.AddPersonalizations(personalization)

	// SendGrid wants text/plain before text/html
	if msg.text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.text))
	}
	if msg.html != "" {
		m.AddContent(mail.NewContent("text/html", msg.html))
	}
	if len(msg.headers) > 0 {
		m.Headers = msg.headers
	}
	return m
}

func sendWithSendGrid(ctx context.Context, msg message) (messageID string, e *xerr.Error) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return "", xerr.NewError(errors.New("SENDGRID_API_KEY must be set"), "configure sendgrid", Cfg.SendGridHost)
	}

	request := sendgrid.GetRequest(apiKey, "/v3/mail/send", Cfg.SendGridHost)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(sendGridMail(msg))

	response, err := rest.SendWithContext(ctx, request)
	if err != nil {
		return "", xerr.NewError(err, "send email with sendgrid", msg.subject)
	}
	if response.StatusCode >= 300 {
		return "", xerr.NewError(fmt.Errorf("status %d: %s", response.StatusCode, response.Body), "send email with sendgrid", msg.subject)
	}
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}
