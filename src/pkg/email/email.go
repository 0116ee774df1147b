// Package email sends one message through Amazon SES, Mailgun or SendGrid.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type Provider string

const (
	ProviderSES      Provider = "ses"
	ProviderMailgun  Provider = "mailgun"
	ProviderSendGrid Provider = "sendgrid"
)

// EnvVars lists the credentials each provider reads from the environment.
var EnvVars = map[Provider][]string{
	ProviderSES:      {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
	ProviderMailgun:  {"MAILGUN_DOMAIN", "MAILGUN_API_KEY"},
	ProviderSendGrid: {"SENDGRID_API_KEY"},
}

type message struct {
	sender     string
	recipients []string
	subject    string
	text       string
	html       string
	headers    map[string]string
}

/*
SendMessage sends one message with the given provider.

sendEmails guards real delivery: when it is nil or false the message is only
logged (dry run) and nil is returned.
*/
func SendMessage(
	provider Provider, sendEmails *bool, sender string, recipients []string,
	subject, text, html string, headers map[string]string,
) (e *xerr.Error) {
	timeout := time.Duration(Cfg.RequestTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return SendMessageContext(ctx, provider, sendEmails, sender, recipients, subject, text, html, headers)
}

// SendMessageContext is SendMessage bounded by the caller's context.
func SendMessageContext(
	ctx context.Context, provider Provider, sendEmails *bool, sender string, recipients []string,
	subject, text, html string, headers map[string]string,
) (e *xerr.Error) {
	msg := message{sender: strings.TrimSpace(sender), subject: subject, text: text, html: html, headers: headers}
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			msg.recipients = append(msg.recipients, recipient)
		}
	}

	if msg.sender == "" {
		return xerr.NewError(errors.New("sender is empty"), "validate email", subject)
	}
	if len(msg.recipients) == 0 {
		return xerr.NewError(errors.New("no recipients"), "validate email", subject)
	}
	if text == "" && html == "" {
		return xerr.NewError(errors.New("message has neither text nor html body"), "validate email", subject)
	}

	var send func(context.Context, message) (string, *xerr.Error)
	switch provider {
	case ProviderSES:
		send = sendWithSES
	case ProviderMailgun:
		send = sendWithMailgun
	case ProviderSendGrid:
		send = sendWithSendGrid
	default:
		return xerr.NewError(fmt.Errorf("unknown email provider '%s'", provider), "pick email provider", provider)
	}

	if sendEmails == nil || !*sendEmails {
		tl.Log(
			tl.Notice, palette.Yellow, "Dry run: %s email '%s' from '%s' to '%s' via '%s'",
			"not sending", subject, msg.sender, strings.Join(msg.recipients, ", "), provider,
		)
		return nil
	}

	tl.Log(tl.Info, palette.Blue, "Sending email '%s' to '%d' recipients via '%s'", subject, len(msg.recipients), provider)
	messageID, e := send(ctx, msg)
	if e != nil {
		return e
	}
	tl.Log(tl.Info1, palette.Green, "Email '%s' %s via '%s', message id: '%s'", subject, "sent", provider, messageID)
	return nil
}
