package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/app"
	echomw "condo-plates/src/pkg/echo-middleware"
	"condo-plates/src/pkg/config"
	"condo-plates/src/pkg/server"
)

/*
main serves the plate API until SIGINT/SIGTERM, then shuts down gracefully.
*/
func main() {
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	address := flag.String("address", "", "Listen address. Default is server.address from config.")
	port := flag.Int("port", 0, "Listen port. Default is server.port from config.")
	noCloud := flag.Bool("no-cloud", false, "Skip cloud providers and use local OCR only.")

	flag.Parse()
	app.InitializeConfigs(*configPath)
	app.CheckEnvVars()
	config.CheckIfEnvVarsPresent(echomw.EnvBearerToken)

	if *address != "" {
		server.Cfg.Address = *address
	}
	if *port != 0 {
		server.Cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recognizer, e := app.BuildRecognizer(!*noCloud)
	e.QuitIf(xerr.ErrorTypeError)

	store, e := app.OpenStore(ctx)
	e.QuitIf(xerr.ErrorTypeError)
	defer store.Close()

	gate := app.BuildGate(recognizer, store, server.Cfg.Region)

	api, e := server.New(server.Cfg, server.Dependencies{Reader: recognizer, Gate: gate, Registry: store})
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'", "Running plate server", *configPath)
	tl.LogJSON(tl.Verbose, palette.CyanDim, "Recognizer status", recognizer.Status())

	e = api.Run(ctx)
	e.QuitIf(xerr.ErrorTypeError)
}
