// Package provider defines the cloud text detection seam used before local OCR.
package provider

import (
	"context"
	"strings"

	"github.com/tuumbleweed/xerr"
)

// Provider names used in config order lists.
const (
	NameAzure       = "azure"
	NameRekognition = "rekognition"
	NameOpenAI      = "openai"
)

// TextLine is one line returned by a cloud detector, confidence in [0,1].
type TextLine struct {
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	HasConfidence bool    `json:"has_confidence"`
}

/*
PlateOcrProvider detects text lines on a photo. An error means the provider
is unavailable for this call; an empty slice means it saw no text.
*/
type PlateOcrProvider interface {
	Name() string
	DetectText(ctx context.Context, imageBytes []byte) ([]TextLine, *xerr.Error)
}

// Names lists provider names in order.
func Names(providers []PlateOcrProvider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}

// ParseOrder splits "azure, rekognition" into normalized names, dropping blanks and repeats.
func ParseOrder(order string) []string {
	seen := map[string]bool{}
	var names []string
	for _, field := range strings.Split(order, ",") {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
