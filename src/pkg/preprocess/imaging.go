package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// imagingPreprocessor is the pure Go backend built on disintegration/imaging.
type imagingPreprocessor struct{}

func NewImaging() Preprocessor {
	return &imagingPreprocessor{}
}

func (p *imagingPreprocessor) Name() string { return BackendImaging }

func (p *imagingPreprocessor) Grayscale(imageBytes []byte) *image.Gray {
	img, e := DecodeImage(imageBytes)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to decode image for grayscale: '%s'", e)
		return nil
	}
	return ToGray(img)
}

/*
Preprocess runs the plate pipeline:
  1. Resize by the width rules.
  2. Grayscale.
  3. Strategy branch (shadow, worn, otsu returns here, plate_detect).
  4. Edge preserving denoise, CLAHE, sharpen.
  5. Adaptive threshold and morphological cleanup.

A panic anywhere in the pipeline falls back to the plain grayscale decode.
*/
func (p *imagingPreprocessor) Preprocess(imageBytes []byte, aggressive bool, strategy Strategy) (result *image.Gray) {
	strategy, aggressive = strategy.Resolve(aggressive)
	if strategy == StrategyOriginal {
		return p.Grayscale(imageBytes)
	}

	defer func() {
		recovered := recover()
		if recovered != nil {
			tl.Log(tl.Warning, palette.Yellow, "Preprocessing strategy '%s' failed, using grayscale: '%v'", strategy, recovered)
			result = p.Grayscale(imageBytes)
		}
	}()

	img, e := DecodeImage(imageBytes)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to decode image for preprocessing: '%s'", e)
		return nil
	}

	gray := ToGray(resizeByWidth(img))

	switch strategy {
	case StrategyShadow:
		gray = divideNormalize(gray, gaussianBlur(gray, Cfg.ShadowBlurKernel))
	case StrategyWorn:
		gray = median(gray, Cfg.DenoiseMedianRadius)
	case StrategyOtsu:
		blurred := gaussianBlur(gray, Cfg.OtsuBlurKernel)
		return threshold(blurred, otsuValue(blurred))
	case StrategyPlateDetect:
		region, found := findPlateRegion(gray)
		if found {
			tl.Log(tl.Verbose, palette.Cyan, "Plate region found at '%s'", region)
			gray = crop(gray, region)
		} else {
			tl.Log(tl.Verbose, palette.CyanDim, "Plate region %s, using the whole image", "not found")
		}
	}

	return finish(gray, aggressive)
}

func resizeByWidth(img image.Image) image.Image {
	bounds := img.Bounds()
	factor := scaleFactor(bounds.Dx())
	if factor == 1.0 {
		return img
	}
	newWidth := int(float64(bounds.Dx()) * factor)
	newHeight := int(float64(bounds.Dy()) * factor)
	tl.Log(tl.Debug, palette.CyanDim, "Resized %dx%d to %dx%d (factor %.2f)", bounds.Dx(), bounds.Dy(), newWidth, newHeight, factor)
	return imaging.Resize(img, newWidth, newHeight, imaging.CatmullRom)
}

// finish applies the steps shared by every strategy except otsu.
func finish(gray *image.Gray, aggressive bool) *image.Gray {
	denoised := bilateral(gray, Cfg.BilateralDiameter, Cfg.BilateralSigmaColor, Cfg.BilateralSigmaSpace)

	clipLimit := Cfg.ClaheClipLimit
	if aggressive {
		clipLimit = Cfg.ClaheClipLimitAggressive
	}
	enhanced := clahe(denoised, clipLimit, Cfg.ClaheTileGrid)

	binary := adaptiveThreshold(sharpen(enhanced), Cfg.AdaptiveBlockSize, Cfg.AdaptiveC)

	processed := morphClose(binary, Cfg.MorphKernelSize)
	if aggressive {
		processed = morphOpen(processed, Cfg.MorphKernelSize)
	}
	return processed
}
