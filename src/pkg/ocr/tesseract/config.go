package tesseract

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	Language        string `json:"language,omitempty"`
	Whitelist       string `json:"whitelist,omitempty"`
	UseDictionaries bool   `json:"use_dictionaries,omitempty"` // plates are not words, keep off
	TessdataPrefix  string `json:"tessdata_prefix,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Language:  "eng",
		Whitelist: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "ocr", "not provided", "default ocr config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "ocr", "provided", "local ocr config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
