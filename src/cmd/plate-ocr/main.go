package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/app"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/util"
)

type imageResult struct {
	Image string `json:"image"`
	recognize.Result
}

/*
main reads the plate on one image or on every image in a directory.

-image can be:
  - a single image file (.jpg/.jpeg/.png/.webp)
  - a directory containing images (.jpg/.jpeg/.png/.webp)

One JSON result per image is printed to stdout, logs go to stderr.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to a plate image OR a directory with images (.jpg/.jpeg/.png/.webp).")
	region := flag.String("region", "", "Plate region, e.g. BOLIVIA or ARGENTINA. Default is plate.region from config.")
	debugDir := flag.String("debug-dir", "", "Directory for per-run debug artifacts (preprocessed variants, candidates). Empty disables them.")
	noCloud := flag.Bool("no-cloud", false, "Skip cloud providers and use local OCR only.")
	workers := flag.Int("workers", 0, "Parallel OCR passes. 0 keeps recognize.workers from config.")

	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	app.InitializeConfigs(*configPath)
	if !*noCloud {
		app.CheckEnvVars()
	}

	if *debugDir != "" {
		recognize.Cfg.DebugDir = *debugDir
	}
	if *workers > 0 {
		recognize.Cfg.Workers = *workers
	}

	tl.Log(tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'", "Running plate OCR", *configPath)

	imagesToProcess, e := resolveImagesToProcess(*imagePath)
	e.QuitIf(xerr.ErrorTypeError)
	if len(imagesToProcess) == 0 {
		tl.Log(tl.Warning, palette.PurpleBold, "No .jpg/.jpeg/.png/.webp files found at: '%s'", *imagePath)
		os.Exit(0)
	}

	recognizer, e := app.BuildRecognizer(!*noCloud)
	e.QuitIf(xerr.ErrorTypeError)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	foundCount := 0
	for _, imgPath := range imagesToProcess {
		if ctx.Err() != nil {
			tl.Log(tl.Warning, palette.Yellow, "%s, stopping", "Interrupted")
			break
		}
		tl.Log(tl.Notice, palette.BlueBold, "%s '%s'", "Processing image", imgPath)

		imageBytes, err := os.ReadFile(imgPath)
		if err != nil {
			tl.Log(tl.Error, palette.RedBold, "Failed reading '%s': '%s'", imgPath, err)
			continue
		}

		result := recognizer.Recognize(ctx, imageBytes, *region)
		if result.Found {
			foundCount++
		}

		encoded, err := json.Marshal(imageResult{Image: imgPath, Result: result})
		xerr.QuitIfError(err, "Unable to encode result")
		fmt.Println(string(encoded))
	}

	tl.Log(tl.Notice, palette.GreenBold, "Done. Plates found: '%d' of '%d'", foundCount, len(imagesToProcess))
}

func resolveImagesToProcess(inputPath string) (images []string, e *xerr.Error) {
	trimmed := strings.TrimSpace(inputPath)
	if trimmed == "" {
		err := fmt.Errorf("input path is empty")
		e = xerr.NewError(err, "missing -image input", inputPath)
		return
	}

	info, statErr := os.Stat(trimmed)
	if statErr != nil {
		e = xerr.NewError(statErr, "stat -image input path", trimmed)
		return
	}

	if info.IsDir() {
		return listImagesInDir(trimmed)
	}

	ext := strings.ToLower(filepath.Ext(trimmed))
	if !isAllowedImageExt(ext) {
		err := fmt.Errorf("unsupported image extension: %s", ext)
		e = xerr.NewError(err, "input file is not .jpg/.jpeg/.png/.webp", trimmed)
		return
	}

	return []string{trimmed}, nil
}

func listImagesInDir(dirPath string) (images []string, e *xerr.Error) {
	entries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read directory", dirPath)
		return
	}

	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if !isAllowedImageExt(filepath.Ext(ent.Name())) {
			continue
		}
		images = append(images, filepath.Join(dirPath, ent.Name()))
	}

	sort.Strings(images)
	return
}

func isAllowedImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}
