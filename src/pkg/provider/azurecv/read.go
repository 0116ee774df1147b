// Package azurecv reads text through the Azure Computer Vision Read API.
package azurecv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"gonum.org/v1/gonum/stat"

	"condo-plates/src/pkg/preprocess"
	"condo-plates/src/pkg/provider"
	"condo-plates/src/pkg/util"
)

// ----- Response types we parse -----

type readOperation struct {
	Status        string         `json:"status"` // notStarted, running, failed, succeeded
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
}

type analyzeResult struct {
	ReadResults []readResult `json:"readResults"`
}

type readResult struct {
	Page  int        `json:"page"`
	Lines []readLine `json:"lines"`
}

type readLine struct {
	Text       string     `json:"text"`
	Confidence *float64   `json:"confidence,omitempty"` // not always returned
	Words      []readWord `json:"words"`
}

type readWord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Client struct {
	endpoint          string
	subscriptionKey   string
	apiVersion        string
	httpClient        *http.Client
	maxPollAttempts   int
	pollInterval      time.Duration
	defaultConfidence float64
	preprocessUpload  bool
}

/*
New builds a client from Cfg and the endpoint and key env vars. It fails when
either is missing, so the caller can leave the provider out.
*/
func New() (client *Client, e *xerr.Error) {
	endpoint := strings.TrimSpace(os.Getenv(Cfg.EndpointEnvVar))
	subscriptionKey := strings.TrimSpace(os.Getenv(Cfg.SubscriptionKeyEnvVar))
	if endpoint == "" || subscriptionKey == "" {
		return nil, xerr.NewError(
			fmt.Errorf("missing credentials"), "Azure Computer Vision is not configured",
			[]string{Cfg.EndpointEnvVar, Cfg.SubscriptionKeyEnvVar},
		)
	}
	return NewClient(endpoint, subscriptionKey), nil
}

func NewClient(endpoint, subscriptionKey string) *Client {
	return &Client{
		endpoint:          strings.TrimRight(endpoint, "/"),
		subscriptionKey:   subscriptionKey,
		apiVersion:        Cfg.APIVersion,
		httpClient:        &http.Client{Timeout: time.Duration(Cfg.RequestTimeoutSeconds) * time.Second},
		maxPollAttempts:   Cfg.MaxPollAttempts,
		pollInterval:      time.Duration(Cfg.PollIntervalMs) * time.Millisecond,
		defaultConfidence: Cfg.DefaultConfidence,
		preprocessUpload:  Cfg.PreprocessUpload,
	}
}

func (c *Client) Name() string { return provider.NameAzure }

/*
DetectText submits the image to POST /vision/<version>/read/analyze, then polls
the Operation-Location until the analysis succeeds or fails, at most
maxPollAttempts times. All lines of all pages are returned in reading order.
*/
func (c *Client) DetectText(ctx context.Context, imageBytes []byte) (lines []provider.TextLine, e *xerr.Error) {
	upload := imageBytes
	if c.preprocessUpload {
		enhanced, enhanceErr := preprocess.EnhanceForUpload(imageBytes)
		if enhanceErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "Upload enhancement %s, sending original image", "failed")
		} else {
			upload = enhanced
		}
	}

	operationURL, e := c.submit(ctx, upload)
	if e != nil {
		return nil, e
	}

	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		operation, getErr := c.getResult(ctx, operationURL)
		if getErr != nil {
			return nil, getErr
		}
		tl.Log(tl.Verbose, palette.Cyan, "Read poll #%d: status is '%s'", attempt, operation.Status)

		switch operation.Status {
		case "succeeded":
			lines = c.collectLines(operation)
			tl.Log(tl.Info1, palette.Green, "%s returned %d line(s)", "Azure Read", len(lines))
			return lines, nil
		case "failed":
			return nil, xerr.NewError(fmt.Errorf("status is 'failed'"), "Azure Read operation failed", operationURL)
		}

		if !util.WaitOrDone(ctx, c.pollInterval) {
			return nil, xerr.NewError(ctx.Err(), "Azure Read polling cancelled", operationURL)
		}
	}

	return nil, xerr.NewError(
		fmt.Errorf("timeout"), fmt.Sprintf("Azure Read did not finish after %d polls", c.maxPollAttempts), operationURL,
	)
}

func (c *Client) submit(ctx context.Context, imageBytes []byte) (operationURL string, e *xerr.Error) {
	url := fmt.Sprintf("%s/vision/%s/read/analyze", c.endpoint, c.apiVersion)
	tl.Log(tl.Info, palette.Blue, "%s %d bytes to '%s'", "Submitting", len(imageBytes), url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imageBytes))
	if err != nil {
		return "", xerr.NewError(err, "Failed to create HTTP request", url)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", xerr.NewError(err, "HTTP error during read/analyze", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := util.GetBody(resp, url)
		return "", xerr.NewError(fmt.Errorf("status is '%s'", resp.Status), "API error from read/analyze", string(body))
	}

	operationURL = resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", xerr.NewError(fmt.Errorf("no Operation-Location header"), "API error from read/analyze", url)
	}
	return operationURL, nil
}

func (c *Client) getResult(ctx context.Context, operationURL string) (operation readOperation, e *xerr.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return operation, xerr.NewError(err, "Failed to create HTTP request", operationURL)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return operation, xerr.NewError(err, "HTTP error during read result", operationURL)
	}
	defer resp.Body.Close()

	body, e := util.GetBody(resp, operationURL)
	if e != nil {
		return operation, e
	}
	if resp.StatusCode != http.StatusOK {
		return operation, xerr.NewError(fmt.Errorf("status is '%s'", resp.Status), "API error from read result", string(body))
	}

	err = json.Unmarshal(body, &operation)
	if err != nil {
		return operation, xerr.NewError(err, "Failed to decode read result", string(body))
	}
	return operation, nil
}

/*
collectLines flattens the pages. A line confidence is taken from the line, else
the mean of its word confidences, else the configured default.
*/
func (c *Client) collectLines(operation readOperation) (lines []provider.TextLine) {
	if operation.AnalyzeResult == nil {
		return nil
	}
	for _, page := range operation.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			textLine := provider.TextLine{Text: text, Confidence: c.defaultConfidence}
			switch {
			case line.Confidence != nil:
				textLine.Confidence, textLine.HasConfidence = *line.Confidence, true
			case len(line.Words) > 0:
				confidences := make([]float64, len(line.Words))
				for i, word := range line.Words {
					confidences[i] = word.Confidence
				}
				textLine.Confidence, textLine.HasConfidence = stat.Mean(confidences, nil), true
			}
			lines = append(lines, textLine)
		}
	}
	return lines
}
