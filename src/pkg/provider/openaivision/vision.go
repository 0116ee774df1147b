// Package openaivision reads plate text lines with an OpenAI vision model.
package openaivision

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/llm"
	"condo-plates/src/pkg/openai"
	"condo-plates/src/pkg/provider"
	"condo-plates/src/pkg/util"
)

type Client struct {
	client     *openai.Client
	formatHint string
}

// New uses the OpenAI key from the configured env var; formatHint lists the plate shapes expected.
func New(formatHint string) (client *Client, e *xerr.Error) {
	openAIClient := openai.NewClient("")
	if !openAIClient.HasAPIKey() {
		return nil, xerr.NewError(fmt.Errorf("no api key"), "OpenAI vision is not configured", openai.Cfg.APIKeyEnvVar)
	}
	return NewWithClient(openAIClient, formatHint), nil
}

func NewWithClient(client *openai.Client, formatHint string) *Client {
	return &Client{client: client, formatHint: formatHint}
}

func (c *Client) Name() string { return provider.NameOpenAI }

func (c *Client) DetectText(ctx context.Context, imageBytes []byte) (lines []provider.TextLine, e *xerr.Error) {
	transcription, e := llm.TranscribePlateLines(ctx, c.client, imageBytes, c.formatHint)
	if e != nil {
		return nil, e
	}
	for _, line := range transcription.Lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		lines = append(lines, provider.TextLine{
			Text:          text,
			Confidence:    util.Clamp(line.Confidence, 0, 1),
			HasConfidence: true,
		})
	}
	return lines, nil
}
