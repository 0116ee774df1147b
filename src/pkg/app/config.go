package app

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

// Config is the "providers" section: which cloud readers to try and in what order.
type Config struct {
	Order            string `json:"order,omitempty"` // e.g. "azure,rekognition,openai"; "none" disables cloud reading
	OpenAIFormatHint string `json:"openai_format_hint,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Order: "azure",
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "providers", "not provided", "default providers config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "providers", "provided", "local providers config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
