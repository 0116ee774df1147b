// Package llm holds the prompts and schemas sent to language models.
package llm

import (
	"context"
	"fmt"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/openai"
)

// PlateLine is one line of text the model read on the photo.
type PlateLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result type for TranscribePlateLines responses.
type PlateTranscription struct {
	Lines          []PlateLine            `json:"lines"`
	LLMRunMetadata *openai.LLMRunMetadata `json:"llm_run_metadata,omitempty"`
}

const plateInstructions = `
You read vehicle license plates from photos taken at a residential gate.

Your task:
- Transcribe every line of text visible on the license plate(s) in the image.
- Keep the characters exactly as printed: uppercase letters and digits, keep spaces and dashes as they appear.
- Ignore text that is not on a plate (stickers, dealer frames, signs, timestamps).
- For each line give a confidence between 0 and 1 that the transcription is exactly right.
- If no plate is visible return an empty list of lines.
%s`

const plateDeveloperMessage = `
Return only a single JSON object matching the provided schema.
Do not include any additional commentary or explanation outside the JSON.
Never guess characters that are not visible; lower the confidence instead.
`

func plateLinesSchema() map[string]any {
	return map[string]any{
		"lines": map[string]any{
			"type":        "array",
			"description": "Text lines read on the plate, most prominent first.",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The line exactly as printed on the plate.",
					},
					"confidence": map[string]any{
						"type":        "number",
						"description": "Confidence between 0 and 1.",
					},
				},
				"required":             []string{"text", "confidence"},
				"additionalProperties": false,
			},
		},
	}
}

/*
TranscribePlateLines sends the plate photo to the Responses API with vision and
returns the lines it reads. formatHint describes the expected plate formats of
the region (may be empty).
*/
func TranscribePlateLines(ctx context.Context, client *openai.Client, imageBytes []byte, formatHint string) (transcription PlateTranscription, e *xerr.Error) {
	tl.Log(
		tl.Notice, palette.BlueBold, "%s with %s model %s, reasoning effort is %s",
		"Transcribing plate lines", "OpenAI", openai.Cfg.Model, openai.Cfg.ReasoningEffort,
	)

	hint := ""
	if strings.TrimSpace(formatHint) != "" {
		hint = fmt.Sprintf("\nExpected plate formats in this region: %s\n", formatHint)
	}

	transcription, llmRunMetadata, e := openai.UseResponsesAPIWithImage[PlateTranscription](
		ctx,
		client,
		fmt.Sprintf(plateInstructions, hint),
		plateDeveloperMessage,
		"Read the license plate in this photo.",
		imageBytes,
		"plate_lines",
		plateLinesSchema(),
	)
	if e != nil {
		return transcription, e
	}
	transcription.LLMRunMetadata = llmRunMetadata

	tl.Log(tl.Notice1, palette.GreenBold, "%s: %d line(s)", "Transcribed plate lines", len(transcription.Lines))
	tl.LogJSON(tl.Verbose, palette.Cyan, "OpenAI plate lines", transcription.Lines)

	return transcription, nil
}
