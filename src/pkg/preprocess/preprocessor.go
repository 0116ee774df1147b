// Package preprocess turns a plate photo into OCR friendly grayscale variants.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	_ "golang.org/x/image/webp" // phone uploads
)

/*
Preprocessor produces one grayscale variant of an image per call.

Implementations never fail towards the caller: when a strategy breaks they
return the plain grayscale decode, and nil only when the bytes are not an
image at all.
*/
type Preprocessor interface {
	Name() string
	Preprocess(imageBytes []byte, aggressive bool, strategy Strategy) *image.Gray
	Grayscale(imageBytes []byte) *image.Gray
}

// New returns the preprocessor for the configured backend.
func New(backend string) Preprocessor {
	switch backend {
	case BackendOpenCV:
		return NewOpenCV()
	case BackendImaging, "":
		return NewImaging()
	default:
		tl.Log(tl.Warning, palette.Yellow, "Preprocessing backend '%s' is %s, using '%s'", backend, "unknown", BackendImaging)
		return NewImaging()
	}
}

// DecodeImage decodes bytes with EXIF orientation applied.
func DecodeImage(imageBytes []byte) (img image.Image, e *xerr.Error) {
	if len(imageBytes) == 0 {
		return nil, xerr.NewError(fmt.Errorf("empty image"), "decode image", 0)
	}
	img, err := imaging.Decode(bytes.NewReader(imageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, xerr.NewError(err, "decode image", len(imageBytes))
	}
	return img, nil
}

// ToGray converts any image to a compact *image.Gray (origin at 0,0, stride equal to width).
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok && gray.Rect.Min == (image.Point{}) && gray.Stride == gray.Rect.Dx() {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Rect, img, bounds.Min, draw.Src)
	return gray
}

// EncodePNG encodes a grayscale variant for engines that take bytes.
func EncodePNG(img *image.Gray) (encoded []byte, e *xerr.Error) {
	if img == nil {
		return nil, xerr.NewError(fmt.Errorf("nil image"), "encode PNG", nil)
	}
	var buffer bytes.Buffer
	err := png.Encode(&buffer, img)
	if err != nil {
		return nil, xerr.NewError(err, "encode PNG", img.Rect.String())
	}
	return buffer.Bytes(), nil
}

/*
scaleFactor applies the width rules: small images are enlarged by
ScaleFactorSmall, large ones shrunk to TargetWidth, the rest kept.
*/
func scaleFactor(width int) float64 {
	switch {
	case width < Cfg.MinWidthScale:
		return Cfg.ScaleFactorSmall
	case width > Cfg.MaxWidthScale:
		return float64(Cfg.TargetWidth) / float64(width)
	default:
		return 1.0
	}
}

// gaussianSigma matches OpenCV's sigma for a kernel size when sigma is 0.
func gaussianSigma(kernelSize int) float64 {
	return 0.3*(float64(kernelSize-1)*0.5-1) + 0.8
}
