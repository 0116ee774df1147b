package email

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/config"
)

type Config struct {
	SendGridHost          string `json:"sendgrid_host,omitempty"`
	MailgunAPIBase        string `json:"mailgun_api_base,omitempty"` // empty: library default (US region)
	SESRegion             string `json:"ses_region,omitempty"`       // empty: AWS_REGION
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		SendGridHost:          "https://api.sendgrid.com",
		RequestTimeoutSeconds: 20,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "email", "not provided", "default email config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "email", "provided", "local email config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
