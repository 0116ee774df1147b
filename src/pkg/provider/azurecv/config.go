package azurecv

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	EndpointEnvVar        string  `json:"endpoint_env_var,omitempty"`
	SubscriptionKeyEnvVar string  `json:"subscription_key_env_var,omitempty"`
	APIVersion            string  `json:"api_version,omitempty"`
	MaxPollAttempts       int     `json:"max_poll_attempts,omitempty"`
	PollIntervalMs        int     `json:"poll_interval_ms,omitempty"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds,omitempty"`
	DefaultConfidence     float64 `json:"default_confidence,omitempty"`
	PreprocessUpload      bool    `json:"preprocess_upload,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		EndpointEnvVar:        "AZURE_CV_ENDPOINT",
		SubscriptionKeyEnvVar: "AZURE_CV_SUBSCRIPTION_KEY",
		APIVersion:            "v3.2",
		MaxPollAttempts:       10,
		PollIntervalMs:        500,
		RequestTimeoutSeconds: 15,
		DefaultConfidence:     0.9,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "azurecv", "not provided", "default azurecv config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "azurecv", "provided", "local azurecv config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
