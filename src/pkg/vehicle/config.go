package vehicle

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	DatabasePath      string `json:"database_path,omitempty"`
	RecentAccessLimit int    `json:"recent_access_limit,omitempty"` // default page size for RecentAccess
	MaxRecentAccess   int    `json:"max_recent_access,omitempty"`   // upper bound callers can ask for
	BusyTimeoutMillis int    `json:"busy_timeout_millis,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		DatabasePath:      "./data/condo-plates.db",
		RecentAccessLimit: 20,
		MaxRecentAccess:   500,
		BusyTimeoutMillis: 5000,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "vehicle", "not provided", "default vehicle config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "vehicle", "provided", "local vehicle config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
