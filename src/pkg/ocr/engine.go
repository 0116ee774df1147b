// Package ocr wraps the local OCR engine and the debug artifacts of a recognition run.
package ocr

import (
	"context"
	"image"

	"github.com/tuumbleweed/xerr"
	"gonum.org/v1/gonum/stat"
)

// Page segmentation modes used by the plate passes.
const (
	PSMSingleBlock = 6
	PSMSingleLine  = 7
	PSMSingleWord  = 8
	PSMRawLine     = 13
)

// Word is one recognised word with the engine confidence in the 0-100 range.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

/*
Engine reads text from a grayscale image with the given page segmentation
mode. Implementations must be safe for concurrent use.
*/
type Engine interface {
	Text(ctx context.Context, img *image.Gray, psm int) (string, *xerr.Error)
	Words(ctx context.Context, img *image.Gray, psm int) ([]Word, *xerr.Error)
}

// MeanConfidence averages word confidences, 0 for no words.
func MeanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	confidences := make([]float64, len(words))
	for i, word := range words {
		confidences[i] = word.Confidence
	}
	return stat.Mean(confidences, nil)
}
