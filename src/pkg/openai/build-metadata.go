package openai

import (
	"regexp"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const logsURLPrefix = "https://platform.openai.com/logs/"

/*
ExtractLLMRunMetadata keeps what a plate transcription cost and which model
snapshot produced it. Timing uses startTime because created_at has second
resolution.
*/
func ExtractLLMRunMetadata(resp responseObject, startTime time.Time) (meta LLMRunMetadata) {
	finished := time.Now()
	meta = LLMRunMetadata{
		ResponseID:      resp.ID,
		ResponseLogsUrl: logsURLPrefix + resp.ID,
		Status:          resp.Status,
		Temperature:     resp.Temperature,
		StartedAt:       startTime.UnixMilli(),
		FinishedAt:      finished.UnixMilli(),
		Elapsed:         finished.Sub(startTime).Milliseconds(),
	}
	meta.Model, meta.ModelSnapshot = ParseModelSnapshot(resp.Model)

	if resp.Reasoning != nil && resp.Reasoning.Effort != nil {
		meta.ReasoningEffort = *resp.Reasoning.Effort
	}
	if usage := resp.Usage; usage != nil {
		meta.TokensIn, meta.TokensOut, meta.TokensTotal = usage.InputTokens, usage.OutputTokens, usage.TotalTokens
		if usage.InputTokensDetails != nil {
			meta.TokensCached = usage.InputTokensDetails.CachedTokens
		}
		if usage.OutputTokensDetails != nil {
			meta.TokensReasoning = usage.OutputTokensDetails.ReasoningTokens
		}
	}

	tl.Log(
		tl.Verbose, palette.Green, "Response '%s' (%s) used '%d' tokens in '%d' ms",
		meta.ResponseID, meta.Status, meta.TokensTotal, meta.Elapsed,
	)
	return meta
}

var snapshotSuffix = regexp.MustCompile(`^(.+)-(\d{4}-\d{2}-\d{2})$`)

/*
ParseModelSnapshot splits "gpt-5-nano-2025-08-07" into ("gpt-5-nano", "2025-08-07").
A model without a real date suffix comes back whole with an empty snapshot.
*/
func ParseModelSnapshot(model string) (base string, snapshot string) {
	model = strings.TrimSpace(model)
	match := snapshotSuffix.FindStringSubmatch(model)
	if match == nil {
		return model, ""
	}
	if _, err := time.Parse("2006-01-02", match[2]); err != nil {
		return model, ""
	}
	return match[1], match[2]
}
