package recognize

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

// PassSpec is the config form of a Pass.
type PassSpec struct {
	Strategy   string  `json:"strategy" yaml:"strategy"`
	Aggressive bool    `json:"aggressive,omitempty" yaml:"aggressive,omitempty"`
	PSM        int     `json:"psm" yaml:"psm"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

/*
Confidence values are tunable heuristics, not probabilities. A validated
local read scores ValidatedConfidence, a forced reinterpretation
ForcedConfidence and an unvalidated fallback UnvalidatedConfidence.
*/
type Config struct {
	ValidatedConfidence    float64    `json:"validated_confidence,omitempty"`
	ForcedConfidence       float64    `json:"forced_confidence,omitempty"`
	UnvalidatedConfidence  float64    `json:"unvalidated_confidence,omitempty"`
	AcceptUnvalidated      bool       `json:"accept_unvalidated,omitempty"`
	CloudDefaultConfidence float64    `json:"cloud_default_confidence,omitempty"`
	FragmentThreshold      float64    `json:"fragment_threshold,omitempty"`
	FragmentMinLength      int        `json:"fragment_min_length,omitempty"`
	ForceMinLength         int        `json:"force_min_length,omitempty"`
	ForceMaxLength         int        `json:"force_max_length,omitempty"`
	UnvalidatedLength      int        `json:"unvalidated_length,omitempty"`
	Workers                int        `json:"workers,omitempty"`
	CloudTimeoutSeconds    int        `json:"cloud_timeout_seconds,omitempty"` // 0: caller's context only
	DebugDir               string     `json:"debug_dir,omitempty"`
	Passes                 []PassSpec `json:"passes,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		ValidatedConfidence:    0.7,
		ForcedConfidence:       0.65,
		UnvalidatedConfidence:  0.5,
		CloudDefaultConfidence: 0.9,
		FragmentThreshold:      20,
		FragmentMinLength:      5,
		ForceMinLength:         6,
		ForceMaxLength:         8,
		UnvalidatedLength:      7,
		Workers:                1,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "recognize", "not provided", "default recognize config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "recognize", "provided", "local recognize config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
