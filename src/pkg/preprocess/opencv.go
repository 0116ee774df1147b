//go:build opencv

package preprocess

import (
	"fmt"
	"image"
	"sort"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"gocv.io/x/gocv"
)

// opencvPreprocessor runs the same pipeline on OpenCV through gocv.
type opencvPreprocessor struct{}

func NewOpenCV() Preprocessor {
	return &opencvPreprocessor{}
}

func (p *opencvPreprocessor) Name() string { return BackendOpenCV }

func (p *opencvPreprocessor) Grayscale(imageBytes []byte) *image.Gray {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadGrayScale)
	if err != nil || mat.Empty() {
		mat.Close()
		tl.Log(tl.Warning, palette.Yellow, "Unable to decode image for grayscale: '%v'", err)
		return nil
	}
	defer mat.Close()

	gray, e := matToGray(mat)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to convert grayscale mat: '%s'", e)
		return nil
	}
	return gray
}

func (p *opencvPreprocessor) Preprocess(imageBytes []byte, aggressive bool, strategy Strategy) (result *image.Gray) {
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

	img, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil || img.Empty() {
		img.Close()
		tl.Log(tl.Warning, palette.Yellow, "Unable to decode image for preprocessing: '%v'", err)
		return nil
	}
	defer img.Close()

	factor := scaleFactor(img.Cols())
	if factor != 1.0 {
		gocv.Resize(img, &img, image.Point{}, factor, factor, gocv.InterpolationCubic)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	switch strategy {
	case StrategyShadow:
		normalizeIllumination(&gray)
	case StrategyWorn:
		gocv.FastNlMeansDenoisingWithParams(gray, &gray, float32(Cfg.DenoiseStrength), Cfg.DenoiseTemplateWindow, Cfg.DenoiseSearchWindow)
	case StrategyOtsu:
		binary := gocv.NewMat()
		defer binary.Close()
		gocv.GaussianBlur(gray, &gray, image.Pt(Cfg.OtsuBlurKernel, Cfg.OtsuBlurKernel), 0, 0, gocv.BorderDefault)
		gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return p.mustGray(binary, imageBytes)
	case StrategyPlateDetect:
		region, found := detectPlateContour(gray)
		if found {
			cropped := gray.Region(region)
			plate := cropped.Clone()
			cropped.Close()
			gray.Close()
			gray = plate
		}
	}

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(gray, &denoised, Cfg.BilateralDiameter, Cfg.BilateralSigmaColor, Cfg.BilateralSigmaSpace)

	clipLimit := Cfg.ClaheClipLimit
	if aggressive {
		clipLimit = Cfg.ClaheClipLimitAggressive
	}
	claheFilter := gocv.NewCLAHEWithParams(clipLimit, image.Pt(Cfg.ClaheTileGrid, Cfg.ClaheTileGrid))
	defer claheFilter.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	claheFilter.Apply(denoised, &enhanced)

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, -1)
		}
	}
	kernel.SetFloatAt(1, 1, 9)
	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.Filter2D(enhanced, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(sharpened, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, Cfg.AdaptiveBlockSize, float32(Cfg.AdaptiveC))

	morphKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(Cfg.MorphKernelSize, Cfg.MorphKernelSize))
	defer morphKernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, morphKernel)
	if aggressive {
		gocv.MorphologyEx(binary, &binary, gocv.MorphOpen, morphKernel)
	}

	return p.mustGray(binary, imageBytes)
}

func (p *opencvPreprocessor) mustGray(mat gocv.Mat, imageBytes []byte) *image.Gray {
	gray, e := matToGray(mat)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to convert processed mat, using grayscale: '%s'", e)
		return p.Grayscale(imageBytes)
	}
	return gray
}

// normalizeIllumination divides the image by a heavy blur of itself, scaled to 255.
func normalizeIllumination(gray *gocv.Mat) {
	background := gocv.NewMat()
	defer background.Close()
	gocv.GaussianBlur(*gray, &background, image.Pt(Cfg.ShadowBlurKernel, Cfg.ShadowBlurKernel), 0, 0, gocv.BorderDefault)

	numerator := gocv.NewMat()
	defer numerator.Close()
	denominator := gocv.NewMat()
	defer denominator.Close()
	gray.ConvertTo(&numerator, gocv.MatTypeCV32F)
	background.ConvertTo(&denominator, gocv.MatTypeCV32F)

	quotient := gocv.NewMat()
	defer quotient.Close()
	gocv.Divide(numerator, denominator, &quotient)
	quotient.MultiplyFloat(255)
	quotient.ConvertTo(gray, gocv.MatTypeCV8U)
}

// detectPlateContour finds the largest 4 vertex contour with a plate aspect ratio.
func detectPlateContour(gray gocv.Mat) (region image.Rectangle, found bool) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(Cfg.OtsuBlurKernel, Cfg.OtsuBlurKernel), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(Cfg.CannyLow), float32(Cfg.CannyHigh))

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	indexes := make([]int, contours.Size())
	areas := make([]float64, contours.Size())
	for i := range indexes {
		indexes[i] = i
		areas[i] = gocv.ContourArea(contours.At(i))
	}
	sort.SliceStable(indexes, func(a, b int) bool { return areas[indexes[a]] > areas[indexes[b]] })
	if len(indexes) > Cfg.PlateMaxContours {
		indexes = indexes[:Cfg.PlateMaxContours]
	}

	for _, index := range indexes {
		contour := contours.At(index)
		perimeter := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, 0.02*perimeter, true)
		vertices := approx.Size()
		box := gocv.BoundingRect(approx)
		approx.Close()

		if vertices != 4 || box.Dy() == 0 {
			continue
		}
		aspect := float64(box.Dx()) / float64(box.Dy())
		if aspect >= Cfg.PlateAspectMin && aspect <= Cfg.PlateAspectMax && box.Dx()*box.Dy() > Cfg.PlateMinArea {
			return box, true
		}
	}
	return image.Rectangle{}, false
}

func matToGray(mat gocv.Mat) (gray *image.Gray, e *xerr.Error) {
	if mat.Empty() {
		return nil, xerr.NewError(fmt.Errorf("empty mat"), "convert mat to image", nil)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, xerr.NewError(err, "convert mat to image", fmt.Sprintf("%dx%d", mat.Cols(), mat.Rows()))
	}
	return ToGray(img), nil
}
