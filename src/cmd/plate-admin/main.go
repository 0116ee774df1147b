// plate-admin manages the vehicle registry and inspects the access log.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/access"
	"condo-plates/src/pkg/alert"
	"condo-plates/src/pkg/app"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/util"
	"condo-plates/src/pkg/vehicle"
)

func printJSON(value any) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	xerr.QuitIfError(err, "Unable to encode output")
	fmt.Println(string(encoded))
}

func openStore(subprogramCmd *flag.FlagSet, flags []string, configPath *string) *vehicle.Store {
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	util.EnsureFlags()
	app.InitializeConfigs(*configPath)

	store, e := app.OpenStore(context.Background())
	e.QuitIf(xerr.ErrorTypeError)
	return store
}

/*
Register a vehicle or update the one with the same plate.
*/
func registerVehicle(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	plateText := subprogramCmd.String("plate", "", "Plate, e.g. 1852PHD (spaces and dashes are ignored)")
	kind := subprogramCmd.String("kind", "car", "car, motorcycle, truck, van...")
	vehicleMake := subprogramCmd.String("make", "", "Vehicle make")
	vehicleModel := subprogramCmd.String("model", "", "Vehicle model")
	color := subprogramCmd.String("color", "", "Vehicle color")
	year := subprogramCmd.Int("year", 0, "Model year")
	resident := subprogramCmd.String("resident", "", "Owner's name")
	unit := subprogramCmd.String("unit", "", "Apartment / unit")
	status := subprogramCmd.String("status", "active", "active, inactive or suspended")
	expires := subprogramCmd.String("expires", "", "Authorization end date, YYYY-MM-DD (empty: never)")
	notes := subprogramCmd.String("notes", "", "Free text notes")

	util.RequiredFlag(plateText, "plate")
	store := openStore(subprogramCmd, flags, configPath)
	defer store.Close()

	parsedStatus, err := vehicle.ParseStatus(*status)
	xerr.QuitIfError(err, "Invalid -status")

	v := vehicle.Vehicle{
		Plate: *plateText, Kind: *kind, Make: *vehicleMake, Model: *vehicleModel, Color: *color, Year: *year,
		Resident: *resident, Unit: *unit, Status: parsedStatus, Notes: *notes,
	}
	if *expires != "" {
		expiresAt, err := time.ParseInLocation("2006-01-02", *expires, time.Local)
		xerr.QuitIfError(err, "Invalid -expires, expected YYYY-MM-DD")
		v.ExpiresAt = &expiresAt
	}

	stored, e := store.UpsertVehicle(context.Background(), v)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Notice1, palette.GreenBold, "Vehicle '%s' saved with id '%s'", stored.Plate, stored.ID)
	printJSON(stored)
}

func listVehicles(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")
	store := openStore(subprogramCmd, flags, configPath)
	defer store.Close()

	vehicles, e := store.ListVehicles(context.Background())
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Notice, palette.Green, "'%d' vehicles registered", len(vehicles))
	printJSON(vehicles)
}

func recentAccess(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")
	limit := subprogramCmd.Int("limit", 0, "How many records to show. Default is vehicle.recent_access_limit from config.")
	alerts := subprogramCmd.Bool("alerts", false, "Show recent alerts instead of access records.")
	store := openStore(subprogramCmd, flags, configPath)
	defer store.Close()

	if *alerts {
		recent, e := store.RecentAlerts(context.Background(), *limit)
		e.QuitIf(xerr.ErrorTypeError)
		printJSON(recent)
		return
	}
	records, e := store.RecentAccess(context.Background(), *limit)
	e.QuitIf(xerr.ErrorTypeError)
	printJSON(records)
}

/*
Send a sample unauthorized-vehicle alert through the configured alert e-mail
settings. Use -send to actually deliver it, otherwise it is a dry run.
*/
func testAlert(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")
	plateText := subprogramCmd.String("plate", "ABC1234", "Plate to put in the sample alert")
	provider := subprogramCmd.String("provider", "", "ses, mailgun or sendgrid. Default is alert.provider from config.")
	recipient := subprogramCmd.String("recipient", "", "Comma separated recipients. Default is alert.recipients from config.")
	send := subprogramCmd.Bool("send", false, "Really send the e-mail")

	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	app.InitializeConfigs(*configPath)

	cfg := alert.Cfg
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *recipient != "" {
		cfg.Recipients = strings.Split(*recipient, ",")
	}
	cfg.SendEmails = *send
	app.CheckEnvVars()

	decision := access.Decision{
		Result:  recognize.Result{Plate: *plateText, Found: true, Confidence: 0.9, Source: "plate-admin"},
		Outcome: vehicle.OutcomeDenied,
	}
	sample := vehicle.Alert{
		ID: "test-alert", Kind: vehicle.AlertKindUnauthorized, Severity: vehicle.SeverityMedium,
		Title:       fmt.Sprintf("Test alert for %s", *plateText),
		Description: "This is a test of the gate alert e-mail.",
		CreatedAt:   time.Now(),
	}

	e := alert.NewEmailNotifier(cfg).Notify(context.Background(), sample, decision)
	e.QuitIf(xerr.ErrorTypeError)
	outcome := "rendered (dry run)"
	if *send {
		outcome = "sent"
	}
	tl.Log(tl.Notice1, palette.GreenBold, "Test alert %s via '%s'", outcome, cfg.Provider)
}

func main() {
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/plate-admin/main.go subprogram_name (register-vehicle, list-vehicles, recent-access, test-alert)")
		os.Exit(1)
	}
	subprogram := os.Args[1]
	flags := os.Args[2:]

	switch subprogram {
	case "register-vehicle":
		registerVehicle(subprogram, flags)
	case "list-vehicles":
		listVehicles(subprogram, flags)
	case "recent-access":
		recentAccess(subprogram, flags)
	case "test-alert":
		testAlert(subprogram, flags)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(1)
	}
}
