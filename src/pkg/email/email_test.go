package email

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, cfg Config) {
	t.Helper()
	previous := Cfg
	Cfg = cfg
	t.Cleanup(func() { Cfg = previous })
}

func TestSendMessageValidation(t *testing.T) {
	send := true
	tests := []struct {
		name       string
		provider   Provider
		sender     string
		recipients []string
		text       string
	}{
		{"no sender", ProviderSendGrid, " ", []string{"guard@example.com"}, "body"},
		{"no recipients", ProviderSendGrid, "gate@example.com", []string{" ", ""}, "body"},
		{"no body", ProviderSendGrid, "gate@example.com", []string{"guard@example.com"}, ""},
		{"unknown provider", Provider("pigeon"), "gate@example.com", []string{"guard@example.com"}, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := SendMessage(tt.provider, &send, tt.sender, tt.recipients, "subject", tt.text, "", nil)
			assert.NotNil(t, e)
		})
	}
}

func TestSendMessageDryRun(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()
	withConfig(t, Config{SendGridHost: server.URL, RequestTimeoutSeconds: 5})
	t.Setenv("SENDGRID_API_KEY", "SG.test")

	assert.Nil(t, SendMessage(ProviderSendGrid, nil, "gate@example.com", []string{"guard@example.com"}, "subject", "body", "", nil))
	send := false
	assert.Nil(t, SendMessage(ProviderSendGrid, &send, "gate@example.com", []string{"guard@example.com"}, "subject", "body", "", nil))
	assert.Equal(t, 0, requests)
}

func TestSendWithSendGrid(t *testing.T) {
	var payload map[string]any
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		authorization = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &payload))
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()
	withConfig(t, Config{SendGridHost: server.URL, RequestTimeoutSeconds: 5})
	t.Setenv("SENDGRID_API_KEY", "SG.test")

	send := true
	e := SendMessage(ProviderSendGrid, &send, "gate@example.com", []string{"guard@example.com", " admin@example.com "},
		"Unauthorized vehicle", "plain", "<p>html</p>", map[string]string{"X-Alert-Kind": "unauthorized_vehicle"})
	require.Nil(t, e)

	assert.Equal(t, "Bearer SG.test", authorization)
	assert.Equal(t, "Unauthorized vehicle", payload["subject"])
	content := payload["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text/plain", content[0].(map[string]any)["type"])
	tos := payload["personalizations"].([]any)[0].(map[string]any)["to"].([]any)
	assert.Len(t, tos, 2)
	assert.Equal(t, "unauthorized_vehicle", payload["headers"].(map[string]any)["X-Alert-Kind"])
}

func TestSendWithSendGridRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"errors":[{"message":"bad key"}]}`)
	}))
	defer server.Close()
	withConfig(t, Config{SendGridHost: server.URL, RequestTimeoutSeconds: 5})
	t.Setenv("SENDGRID_API_KEY", "SG.wrong")

	send := true
	e := SendMessage(ProviderSendGrid, &send, "gate@example.com", []string{"guard@example.com"}, "s", "body", "", nil)
	assert.NotNil(t, e)
}

func TestSendWithSendGridMissingKey(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "")
	send := true
	assert.NotNil(t, SendMessage(ProviderSendGrid, &send, "gate@example.com", []string{"guard@example.com"}, "s", "body", "", nil))
}

func TestSendWithMailgun(t *testing.T) {
	var path, subject, html string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		subject = r.FormValue("subject")
		html = r.FormValue("html")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"<mg-123@condo.example.com>","message":"Queued. Thank you."}`)
	}))
	defer server.Close()
	withConfig(t, Config{MailgunAPIBase: server.URL + "/v3", RequestTimeoutSeconds: 5})
	t.Setenv("MAILGUN_DOMAIN", "condo.example.com")
	t.Setenv("MAILGUN_API_KEY", "key-test")

	send := true
	e := SendMessage(ProviderMailgun, &send, "gate@condo.example.com", []string{"guard@example.com"}, "Gate alert", "text", "<b>html</b>", nil)
	require.Nil(t, e)
	assert.True(t, strings.HasSuffix(path, "/condo.example.com/messages"), path)
	assert.Equal(t, "Gate alert", subject)
	assert.Equal(t, "<b>html</b>", html)
}

func TestSESInput(t *testing.T) {
	input := sesInput(message{
		sender: "gate@example.com", recipients: []string{"a@example.com"}, subject: "s", text: "t",
		headers: map[string]string{"X-B": "2", "X-A": "1"},
	})
	assert.Equal(t, "gate@example.com", *input.FromEmailAddress)
	assert.Nil(t, input.Content.Simple.Body.Html)
	require.Len(t, input.Content.Simple.Headers, 2)
	assert.Equal(t, "X-A", *input.Content.Simple.Headers[0].Name)
}
