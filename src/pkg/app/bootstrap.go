// Package app wires configuration, providers, the OCR engine and storage for the programs.
package app

import (
	"context"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/access"
	"condo-plates/src/pkg/alert"
	"condo-plates/src/pkg/config"
	echomw "condo-plates/src/pkg/echo-middleware"
	"condo-plates/src/pkg/email"
	"condo-plates/src/pkg/ocr/tesseract"
	"condo-plates/src/pkg/openai"
	"condo-plates/src/pkg/plate"
	"condo-plates/src/pkg/preprocess"
	"condo-plates/src/pkg/provider"
	"condo-plates/src/pkg/provider/azurecv"
	"condo-plates/src/pkg/provider/openaivision"
	"condo-plates/src/pkg/provider/rekognition"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/server"
	"condo-plates/src/pkg/vehicle"
)

// InitializeConfigs loads configPath and hands every package its section.
func InitializeConfigs(configPath string) {
	config.InitializeConfig(configPath)

	plate.InitializeConfig(config.LoadSection[plate.Config]("plate"))
	preprocess.InitializeConfig(config.LoadSection[preprocess.Config]("preprocess"))
	tesseract.InitializeConfig(config.LoadSection[tesseract.Config]("ocr"))
	recognize.InitializeConfig(config.LoadSection[recognize.Config]("recognize"))
	InitializeConfig(config.LoadSection[Config]("providers"))
	azurecv.InitializeConfig(config.LoadSection[azurecv.Config]("azure_cv"))
	rekognition.InitializeConfig(config.LoadSection[rekognition.Config]("rekognition"))
	openai.InitializeConfig(config.LoadSection[openai.Config]("openai"))
	vehicle.InitializeConfig(config.LoadSection[vehicle.Config]("vehicle"))
	alert.InitializeConfig(config.LoadSection[alert.Config]("alert"))
	email.InitializeConfig(config.LoadSection[email.Config]("email"))
	echomw.InitializeConfig(config.LoadSection[echomw.Config]("echo_middleware"))
	server.InitializeConfig(config.LoadSection[server.Config]("server"))
}

/*
BuildProviders constructs the named providers in order. A provider whose
credentials are missing is left out with a warning, so a gate without cloud
keys still runs on local OCR.
*/
func BuildProviders(order []string) (providers []provider.PlateOcrProvider) {
	for _, name := range order {
		var built provider.PlateOcrProvider
		var e *xerr.Error

		switch name {
		case "none":
			continue
		case provider.NameAzure:
			var client *azurecv.Client
			client, e = azurecv.New()
			if e == nil {
				built = client
			}
		case provider.NameRekognition:
			var client *rekognition.Client
			client, e = rekognition.New()
			if e == nil {
				built = client
			}
		case provider.NameOpenAI:
			var client *openaivision.Client
			client, e = openaivision.New(formatHint())
			if e == nil {
				built = client
			}
		default:
			tl.Log(tl.Warning, palette.Yellow, "Cloud provider '%s' is %s, skipping it", name, "unknown")
			continue
		}

		if e != nil {
			tl.Log(tl.Warning, palette.Yellow, "Cloud provider '%s' is %s: %v", name, "not available", e)
			continue
		}
		providers = append(providers, built)
	}

	tl.Log(tl.Info, palette.Green, "Cloud providers in use: '%v'", provider.Names(providers))
	return providers
}

func formatHint() string {
	if Cfg.OpenAIFormatHint != "" {
		return Cfg.OpenAIFormatHint
	}
	rule, found := plate.LookupRegion(plate.Cfg.Region)
	if !found {
		return ""
	}
	return rule.Description
}

// BuildRecognizer assembles the recognizer from the loaded configuration.
func BuildRecognizer(cloud bool) (recognizer *recognize.Recognizer, e *xerr.Error) {
	var providers []provider.PlateOcrProvider
	if cloud {
		providers = BuildProviders(provider.ParseOrder(Cfg.Order))
	}

	engine := tesseract.New()
	if !engine.Available() {
		tl.Log(tl.Warning, palette.YellowBold, "Tesseract is %s, local OCR passes will fail", "not available")
	}

	return recognize.NewRecognizer(recognize.Cfg, recognize.Dependencies{
		Providers:    providers,
		Engine:       engine,
		Preprocessor: preprocess.New(preprocess.Cfg.Backend),
	})
}

// OpenStore opens the vehicle database at the configured path.
func OpenStore(ctx context.Context) (store *vehicle.Store, e *xerr.Error) {
	return vehicle.Open(ctx, vehicle.Cfg.DatabasePath)
}

// BuildGate wires the gate with the e-mail notifier from the alert section.
func BuildGate(recognizer access.Recognizer, store *vehicle.Store, region string) *access.Gate {
	return access.NewGate(recognizer, store, alert.NewEmailNotifier(alert.Cfg), region)
}

// CheckEnvVars warns about the credentials the configured providers and alerting need.
func CheckEnvVars() {
	var names []string
	for _, name := range provider.ParseOrder(Cfg.Order) {
		switch name {
		case provider.NameAzure:
			names = append(names, azurecv.Cfg.EndpointEnvVar, azurecv.Cfg.SubscriptionKeyEnvVar)
		case provider.NameRekognition:
			names = append(names, "AWS_REGION")
		case provider.NameOpenAI:
			names = append(names, openai.Cfg.APIKeyEnvVar)
		}
	}
	if alert.Cfg.SendEmails {
		names = append(names, email.EnvVars[email.Provider(alert.Cfg.Provider)]...)
	}
	config.CheckIfEnvVarsPresent(names...)
}
