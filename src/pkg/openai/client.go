package openai

import (
	"net/http"
	"os"
	"strings"
	"time"
)

/*
Client is a small REST client for the OpenAI Responses API.

  - POST /responses (createResponse): may return a finished or an in-progress response
  - GET  /responses/{id} (getResponseByID): fetch status, output and usage
*/
type Client struct {
	apiKey          string
	baseURL         string
	createClient    *http.Client
	getClient       *http.Client
	pollInterval    time.Duration
	completionLimit time.Duration
}

// NewClient builds a client from Cfg. An empty apiKey reads the configured env var.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv(Cfg.APIKeyEnvVar)
	}
	return &Client{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(Cfg.BaseURL, "/"),
		createClient:    &http.Client{Timeout: time.Duration(Cfg.CreateTimeoutSeconds) * time.Second},
		getClient:       &http.Client{Timeout: time.Duration(Cfg.GetTimeoutSeconds) * time.Second},
		pollInterval:    time.Duration(Cfg.PollIntervalMs) * time.Millisecond,
		completionLimit: time.Duration(Cfg.CompletionTimeoutSecs) * time.Second,
	}
}

// WithBaseURL points the client at another endpoint (proxies, tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) HasAPIKey() bool { return c.apiKey != "" }
