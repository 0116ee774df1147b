package server

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	Address                string `json:"address,omitempty"`
	Port                   int    `json:"port,omitempty"`
	MaxUploadBytes         int64  `json:"max_upload_bytes,omitempty"`
	Region                 string `json:"region,omitempty"` // empty: plate.Cfg.Region
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds,omitempty"`
	WriteTimeoutSeconds    int    `json:"write_timeout_seconds,omitempty"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Address:                "127.0.0.1",
		Port:                   8401,
		MaxUploadBytes:         10 << 20,
		ReadTimeoutSeconds:     30,
		WriteTimeoutSeconds:    120,
		ShutdownTimeoutSeconds: 15,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "server", "not provided", "default server config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "server", "provided", "local server config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
