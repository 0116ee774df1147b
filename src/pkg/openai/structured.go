package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/util"
)

// StrictObj builds a strict JSON Schema "object" where:
// - "properties" = props
// - "additionalProperties" = false
// - "required" = all keys from props (sorted for determinism)
func StrictObj(props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
		"required":             keys,
	}
}

/*
ImageDataURL wraps raw image bytes into a data URL usable as the image_url of
an input_image part. The mime type is sniffed from the bytes.
*/
func ImageDataURL(imageBytes []byte) string {
	mimeType := http.DetectContentType(imageBytes)
	if mimeType == "application/octet-stream" || mimeType == "text/plain; charset=utf-8" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
}

/*
UseResponsesAPIWithImage sends a developer message plus a user message made of
text and one image, asks for output matching the strict schema built from
schemaProperties and decodes it into T.
*/
func UseResponsesAPIWithImage[T any](
	ctx context.Context,
	client *Client,
	instructions string,
	developerMessage string,
	userText string,
	imageBytes []byte,
	schemaName string,
	schemaProperties map[string]any,
) (openAIResponse T, llmRunMetadata *LLMRunMetadata, e *xerr.Error) {
	schema := StrictObj(schemaProperties)
	textOptions := TextAsJSONSchema(schemaName, schema, true)

	userContent := []map[string]any{
		{
			"type": "input_text",
			"text": userText,
		},
		{
			"type":      "input_image",
			"image_url": ImageDataURL(imageBytes),
			"detail":    "high",
		},
	}

	maxOutputTokens := Cfg.MaxOutputTokens
	inputParameters := InputParameters{
		Model:        Cfg.Model,
		Reasoning:    &Reasoning{Effort: util.Ptr(Cfg.ReasoningEffort)},
		Instructions: instructions,
		Input: []InputItem{
			{Role: RoleDeveloper, Content: developerMessage},
			{Role: RoleUser, Content: userContent},
		},
		Temperature:     util.Ptr(1.0), // GPT-5 family: 1.0 or omit
		MaxOutputTokens: &maxOutputTokens,
		Text:            &textOptions,
	}

	responseText, runMetadata, e := client.SendPromptReturnResponse(ctx, inputParameters)
	if e != nil {
		return openAIResponse, nil, e
	}

	tl.Log(tl.Info1, palette.Green, "%s id is '%s'", "Received response", runMetadata.ResponseID)
	tl.Log(tl.Verbose, palette.Cyan, "Response text:\n```\n%s\n```", responseText)

	err := json.Unmarshal([]byte(responseText), &openAIResponse)
	if err != nil {
		return openAIResponse, &runMetadata, xerr.NewError(
			err,
			"Unable to json.Unmarshal([]byte(responseText), &openAIResponse)",
			responseText,
		)
	}

	return openAIResponse, &runMetadata, nil
}
