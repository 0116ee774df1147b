package email

import (
	"context"
	"errors"
	"os"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/tuumbleweed/xerr"
)

func sendWithMailgun(ctx context.Context, msg message) (messageID string, e *xerr.Error) {
	domain := os.Getenv("MAILGUN_DOMAIN")
	apiKey := os.Getenv("MAILGUN_API_KEY")
	if domain == "" || apiKey == "" {
		return "", xerr.NewError(errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY must be set"), "configure mailgun", domain)
	}

	mg := mailgun.NewMailgun(domain, apiKey)
	if Cfg.MailgunAPIBase != "" {
		mg.SetAPIBase(Cfg.MailgunAPIBase)
	}

	m := mg.NewMessage(msg.sender, msg.subject, msg.text, msg.recipients...)
	if msg.html != "" {
		m.SetHtml(msg.html)
	}
	for _, name := range sortedKeys(msg.headers) {
		m.AddHeader(name, msg.headers[name])
	}

	_, id, err := mg.Send(ctx, m)
	if err != nil {
		return "", xerr.NewError(err, "send email with mailgun", msg.subject)
	}
	return id, nil
}
