package plate

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

// ScoreConfig holds the scores attached to correction candidates.
type ScoreConfig struct {
	Uncorrected    int `json:"uncorrected,omitempty"`
	Positional     int `json:"positional,omitempty"`
	Interpretation int `json:"interpretation,omitempty"`
}

type Config struct {
	Region        string            `json:"region,omitempty"`         // default region used when callers pass none
	CustomRegions []RegionPlateRule `json:"custom_regions,omitempty"` // merged over the built-in regions
	Scores        ScoreConfig       `json:"scores,omitempty"`
	MinPoolLength int               `json:"min_pool_length,omitempty"` // shortest cleaned text kept as a fallback candidate
	MaxPoolLength int               `json:"max_pool_length,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Region: RegionBolivia,
		Scores: ScoreConfig{
			Uncorrected:    0,
			Positional:     90,
			Interpretation: 100,
		},
		MinPoolLength: 6,
		MaxPoolLength: 10,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "plate", "not provided", "default plate config")
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
	resetValidatorCache()

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "plate", "provided", "local plate config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
