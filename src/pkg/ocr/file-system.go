package ocr

import (
	"encoding/json"
	"image"
	"net/http"
	"os"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
ensureOutputDirectory creates the target directory (and parents) if needed.

It uses os.MkdirAll and returns a *xerr.Error if creation fails.
*/
func ensureOutputDirectory(outputDirPath string) (e *xerr.Error) {
	err := os.MkdirAll(outputDirPath, 0o755)
	if err != nil {
		e = xerr.NewError(err, "create output directory", outputDirPath)
		return e
	}

	tl.Log(
		tl.Info1, palette.Blue, "Ensured output directory '%s'",
		outputDirPath,
	)

	return e
}

// imageExtension sniffs the uploaded bytes, ".jpg" when unknown.
func imageExtension(imageBytes []byte) string {
	switch http.DetectContentType(imageBytes) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

/*
writeOriginalImage stores the uploaded bytes as they were received.
*/
func writeOriginalImage(destinationPath string, imageBytes []byte) (e *xerr.Error) {
	writeErr := os.WriteFile(destinationPath, imageBytes, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write original image", destinationPath)
		return e
	}

	tl.Log(
		tl.Info1, palette.Green, "Saved original image to '%s'",
		destinationPath,
	)

	return e
}

// saveImage writes a preprocessed variant, format picked from the extension.
func saveImage(destinationPath string, img image.Image) (e *xerr.Error) {
	err := imaging.Save(img, destinationPath)
	if err != nil {
		e = xerr.NewError(err, "save preprocessed image", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved image to '%s'", destinationPath)
	return e
}

/*
saveOcrTextToFile writes the OCR text into a .txt file at the given path.

It overwrites any existing file at that location. If writing fails, it
returns a *xerr.Error.
*/
func saveOcrTextToFile(destinationPath string, ocrText string) (e *xerr.Error) {
	writeErr := os.WriteFile(destinationPath, []byte(ocrText), 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write OCR text file", destinationPath)
		return e
	}

	tl.Log(
		tl.Info1, palette.Green, "Saved OCR text to '%s'",
		destinationPath,
	)

	return e
}

/*
saveJSONToFile marshals the given value to pretty-printed JSON and writes it
to a .json file at the given path.
*/
func saveJSONToFile(destinationPath string, value any) (e *xerr.Error) {
	jsonBytes, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal value to JSON", destinationPath)
		return e
	}

	writeErr := os.WriteFile(destinationPath, jsonBytes, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write JSON file", destinationPath)
		return e
	}

	tl.Log(
		tl.Info1, palette.Green, "Saved JSON data to '%s'",
		destinationPath,
	)

	return e
}
