package openai

import (
	"context"
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
SendPromptReturnResponse runs one background request against the Responses API
and returns the assistant text together with the run metadata.

A request that is not completed right away is polled until it reaches a terminal
status. Only "completed" counts as success.
*/
func (c *Client) SendPromptReturnResponse(ctx context.Context, inputParameters InputParameters) (responseText string, meta LLMRunMetadata, e *xerr.Error) {
	if !c.HasAPIKey() {
		return "", meta, xerr.NewError(fmt.Errorf("no api key"), "OpenAI API key is not set", Cfg.APIKeyEnvVar)
	}

	startTime := time.Now()
	tl.Log(tl.Detailed, palette.Blue, "Sending %s request to the Responses API", inputParameters.Model)

	final, e := c.createResponse(ctx, inputParameters.payload())
	if e != nil {
		return "", meta, e
	}
	if final.Status != "" && final.Status != "completed" {
		tl.Log(tl.Verbose, palette.Cyan, "Response '%s' is '%s', polling every %s", final.ID, final.Status, c.pollInterval)
		responseID := final.ID
		final, e = c.waitForResponseCompletion(ctx, responseID, c.pollInterval, c.completionLimit)
		if e != nil {
			return "", LLMRunMetadata{ResponseID: responseID}, e
		}
	}

	meta = ExtractLLMRunMetadata(final, startTime)
	logUsage(final.Usage)
	tl.Log(tl.Info1, palette.Green, "Response '%s' completed in %s", final.ID, time.Since(startTime))
	tl.Log(tl.Debug1, palette.GreenDim, "Logs at '%s'", meta.ResponseLogsUrl)

	return extractOutputText(&final), meta, nil
}

// Background mode is always on so long image requests can be polled.
func (p InputParameters) payload() requestPayload {
	return requestPayload{
		Model:              p.Model,
		Reasoning:          p.Reasoning,
		Store:              true,
		PreviousResponseID: p.PreviousResponseID,
		Instructions:       p.Instructions,
		Input:              p.Input,
		Temperature:        p.Temperature,
		MaxOutputTokens:    p.MaxOutputTokens,
		Background:         true,
		Text:               p.Text,
	}
}

func logUsage(usage *usageBlock) {
	if usage == nil {
		tl.Log(tl.Detailed, palette.PurpleDim, "Response carries no usage block")
		return
	}
	cached, reasoning := 0, 0
	if usage.InputTokensDetails != nil {
		cached = usage.InputTokensDetails.CachedTokens
	}
	if usage.OutputTokensDetails != nil {
		reasoning = usage.OutputTokensDetails.ReasoningTokens
	}
	tl.Log(tl.Detailed, palette.CyanDim, "Tokens in %d (cached %d), out %d (reasoning %d), total %d",
		usage.InputTokens, cached, usage.OutputTokens, reasoning, usage.TotalTokens)
}
