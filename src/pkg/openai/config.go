package openai

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	BaseURL               string `json:"base_url,omitempty"`
	APIKeyEnvVar          string `json:"api_key_env_var,omitempty"`
	Model                 string `json:"model,omitempty"`
	ReasoningEffort       Effort `json:"reasoning_effort,omitempty"`
	MaxOutputTokens       int    `json:"max_output_tokens,omitempty"`
	PollIntervalMs        int    `json:"poll_interval_ms,omitempty"`
	CreateTimeoutSeconds  int    `json:"create_timeout_seconds,omitempty"`
	GetTimeoutSeconds     int    `json:"get_timeout_seconds,omitempty"`
	CompletionTimeoutSecs int    `json:"completion_timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		BaseURL:               "https://api.openai.com/v1",
		APIKeyEnvVar:          "OPENAI_API_KEY",
		Model:                 "gpt-5-mini",
		ReasoningEffort:       EffortLow,
		MaxOutputTokens:       2000,
		PollIntervalMs:        1000,
		CreateTimeoutSeconds:  120,
		GetTimeoutSeconds:     30,
		CompletionTimeoutSecs: 120,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "openai", "not provided", "default openai config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "openai", "provided", "local openai config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
