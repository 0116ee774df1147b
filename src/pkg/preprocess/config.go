package preprocess

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

const (
	BackendImaging = "imaging"
	BackendOpenCV  = "opencv"
)

type Config struct {
	Backend string `json:"backend,omitempty"` // "imaging" (pure Go) or "opencv" (needs -tags opencv)

	TargetWidth      int     `json:"target_width,omitempty"`
	MinWidthScale    int     `json:"min_width_scale,omitempty"` // narrower images get ScaleFactorSmall
	MaxWidthScale    int     `json:"max_width_scale,omitempty"` // wider images are shrunk to TargetWidth
	ScaleFactorSmall float64 `json:"scale_factor_small,omitempty"`

	BilateralDiameter   int     `json:"bilateral_diameter,omitempty"`
	BilateralSigmaColor float64 `json:"bilateral_sigma_color,omitempty"`
	BilateralSigmaSpace float64 `json:"bilateral_sigma_space,omitempty"`

	ClaheClipLimit           float64 `json:"clahe_clip_limit,omitempty"`
	ClaheClipLimitAggressive float64 `json:"clahe_clip_limit_aggressive,omitempty"`
	ClaheTileGrid            int     `json:"clahe_tile_grid,omitempty"`

	AdaptiveBlockSize int     `json:"adaptive_block_size,omitempty"`
	AdaptiveC         float64 `json:"adaptive_c,omitempty"`
	MorphKernelSize   int     `json:"morph_kernel_size,omitempty"`

	ShadowBlurKernel int `json:"shadow_blur_kernel,omitempty"`
	OtsuBlurKernel   int `json:"otsu_blur_kernel,omitempty"`

	DenoiseStrength       float64 `json:"denoise_strength,omitempty"` // NL-means h (opencv backend)
	DenoiseTemplateWindow int     `json:"denoise_template_window,omitempty"`
	DenoiseSearchWindow   int     `json:"denoise_search_window,omitempty"`
	DenoiseMedianRadius   int     `json:"denoise_median_radius,omitempty"` // imaging backend

	CannyLow            float64 `json:"canny_low,omitempty"`
	CannyHigh           float64 `json:"canny_high,omitempty"`
	PlateAspectMin      float64 `json:"plate_aspect_min,omitempty"`
	PlateAspectMax      float64 `json:"plate_aspect_max,omitempty"`
	PlateMinArea        int     `json:"plate_min_area,omitempty"`
	PlateMaxContours    int     `json:"plate_max_contours,omitempty"`
	PlateBorderCoverage float64 `json:"plate_border_coverage,omitempty"` // imaging backend rectangle test
}

func DefaultValueConfig() Config {
	return Config{
		Backend:                  BackendImaging,
		TargetWidth:              400,
		MinWidthScale:            200,
		MaxWidthScale:            600,
		ScaleFactorSmall:         2.0,
		BilateralDiameter:        11,
		BilateralSigmaColor:      17,
		BilateralSigmaSpace:      17,
		ClaheClipLimit:           2.0,
		ClaheClipLimitAggressive: 3.0,
		ClaheTileGrid:            8,
		AdaptiveBlockSize:        11,
		AdaptiveC:                2,
		MorphKernelSize:          2,
		ShadowBlurKernel:         21,
		OtsuBlurKernel:           5,
		DenoiseStrength:          10,
		DenoiseTemplateWindow:    7,
		DenoiseSearchWindow:      21,
		DenoiseMedianRadius:      2,
		CannyLow:                 50,
		CannyHigh:                150,
		PlateAspectMin:           2.0,
		PlateAspectMax:           5.0,
		PlateMinArea:             1000,
		PlateMaxContours:         10,
		PlateBorderCoverage:      0.6,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "preprocess", "not provided", "default preprocess config")
		return
	}

	defaultConfig := DefaultValueConfig()
	Cfg = *localConfig

	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "preprocess", "provided", "local preprocess config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
