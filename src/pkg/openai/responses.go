package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/util"
)

/*
createResponse performs POST /responses and returns the parsed response object.
It may return a "completed" response immediately, or an "in_progress" one.
*/
func (c *Client) createResponse(ctx context.Context, payload requestPayload) (response responseObject, e *xerr.Error) {
	url := fmt.Sprintf("%s/responses", c.baseURL)
	tl.Log(tl.Info, palette.Blue, "%s %s to '%s'", "Creating", "response", url)

	encoded, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return responseObject{}, xerr.NewError(marshalErr, "Failed to marshal request payload", payload.Model)
	}

	req, newReqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(encoded))
	if newReqErr != nil {
		return responseObject{}, xerr.NewError(newReqErr, "Failed to create HTTP request", url)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(c.createClient, req, "POST /responses")
}

/*
getResponseByID performs GET /responses/{id} and returns the parsed response object.
*/
func (c *Client) getResponseByID(ctx context.Context, responseID string) (response responseObject, e *xerr.Error) {
	url := fmt.Sprintf("%s/responses/%s", c.baseURL, responseID)

	req, newReqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if newReqErr != nil {
		return responseObject{}, xerr.NewError(newReqErr, "Failed to create HTTP request", map[string]any{"response_id": responseID})
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(c.getClient, req, "GET /responses/{id}")
}

func (c *Client) do(httpClient *http.Client, req *http.Request, operation string) (parsed responseObject, e *xerr.Error) {
	url := req.URL.String()
	resp, httpErr := httpClient.Do(req)
	if httpErr != nil {
		return responseObject{}, xerr.NewError(httpErr, "HTTP error during "+operation, map[string]any{"url": url})
	}
	defer resp.Body.Close()

	respBody, e := util.GetBody(resp, url)
	if e != nil {
		return responseObject{}, e
	}
	if resp.StatusCode != http.StatusOK {
		return responseObject{}, xerr.NewError(fmt.Errorf("status is '%s'", resp.Status), "API error from "+operation, string(respBody))
	}
	tl.Log(tl.Debug, palette.CyanDim, "openai response body: %s", string(respBody))

	decodeErr := json.Unmarshal(respBody, &parsed)
	if decodeErr != nil {
		return responseObject{}, xerr.NewError(decodeErr, "Failed to decode response body", operation)
	}

	return parsed, nil
}

/*
extractOutputText collects all "output_text" fragments from the response into a single string.
*/
func extractOutputText(resp *responseObject) string {
	var builder bytes.Buffer
	for _, out := range resp.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type == "output_text" && c.Text != "" {
				_, _ = builder.WriteString(c.Text)
			}
		}
	}
	return builder.String()
}

/*
waitForResponseCompletion polls GET /responses/{id} every interval until a terminal
state, the timeout (if > 0) or the context ends. On failure, cancel, expiry or
timeout it returns a *xerr.Error with the API's error payload in context.
*/
func (c *Client) waitForResponseCompletion(ctx context.Context, responseID string, waitInterval, timeout time.Duration) (final responseObject, e *xerr.Error) {
	previousStatus := ""
	poll := 0

	var (
		useTimeout bool
		deadline   time.Time
	)
	if timeout > 0 {
		useTimeout = true
		deadline = time.Now().Add(timeout)
	}

	var lastResp responseObject

	for {
		if useTimeout && time.Now().After(deadline) {
			msg := fmt.Sprintf("Response polling timed out after %s", timeout)
			tl.Log(tl.Info1, palette.Purple, "%s; last known id='%s'", msg, responseID)
			lastResp.Status = "timeout"
			return lastResp, xerr.NewError(fmt.Errorf("timeout"), msg, timeout)
		}

		poll += 1

		resp, getErr := c.getResponseByID(ctx, responseID)
		if getErr != nil {
			return lastResp, getErr
		}
		lastResp = resp

		if resp.Status != previousStatus {
			tl.Log(tl.Verbose, palette.Cyan, "Response status changed: '%s'", resp.Status)
			previousStatus = resp.Status
		}
		tl.Log(tl.Verbose, palette.Cyan, "Poll #%v: status is '%s'", poll, resp.Status)

		switch resp.Status {
		case "completed", "incomplete", "":
			return resp, nil
		case "failed", "cancelled", "expired":
			msg := fmt.Sprintf("Response ended with status '%s'", resp.Status)
			tl.Log(tl.Info1, palette.Purple, "%s id is '%s'", msg, responseID)
			return resp, xerr.NewError(fmt.Errorf("%s", resp.Status), msg, resp.Error)
		default:
			if !util.WaitOrDone(ctx, waitInterval) {
				return lastResp, xerr.NewError(ctx.Err(), "Response polling cancelled", responseID)
			}
		}
	}
}
