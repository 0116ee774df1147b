package ocr

import (
	"image"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

/*
DebugRun collects the artifacts of one recognition: the original upload,
every preprocessed variant, the raw text of each pass and the final result.

A nil *DebugRun is valid and discards everything, so callers do not need to
check whether debug output is enabled. Saving failures are logged, never
returned: debug output must not break a recognition.
*/
type DebugRun struct {
	dirPath string
	mu      sync.Mutex
}

/*
StartDebugRun creates <root>/<timestamp>_<short id> and stores the original
image in it as orig.<ext>. An empty root disables debug output and returns nil.
*/
func StartDebugRun(outputDirPath string, imageBytes []byte) (run *DebugRun, e *xerr.Error) {
	normalizedOutputDirPath := strings.TrimSpace(outputDirPath)
	if normalizedOutputDirPath == "" {
		return nil, nil
	}

	e = ensureOutputDirectory(normalizedOutputDirPath)
	if e != nil {
		return nil, e
	}

	// Example: 2025-11-26_16-35-31_1f0e3c2a
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runDirPath := filepath.Join(normalizedOutputDirPath, timestamp+"_"+uuid.NewString()[:8])

	e = ensureOutputDirectory(runDirPath)
	if e != nil {
		return nil, e
	}

	e = writeOriginalImage(filepath.Join(runDirPath, "orig"+imageExtension(imageBytes)), imageBytes)
	if e != nil {
		return nil, e
	}

	tl.Log(tl.Notice, palette.BlueBold, "%s debug run in '%s'", "Started", runDirPath)
	return &DebugRun{dirPath: runDirPath}, nil
}

func (r *DebugRun) Path() string {
	if r == nil {
		return ""
	}
	return r.dirPath
}

func fileLabel(label string) string {
	return strings.Trim(unsafeFileChars.ReplaceAllString(label, "_"), "_")
}

// SaveVariant stores a preprocessed image as <label>.png, once per label.
func (r *DebugRun) SaveVariant(label string, img image.Image) {
	if r == nil || img == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := saveImage(filepath.Join(r.dirPath, fileLabel(label)+".png"), img)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to save variant '%s': %v", label, e)
	}
}

// SaveText stores the raw OCR text of one pass as <label>.txt.
func (r *DebugRun) SaveText(label string, text string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := saveOcrTextToFile(filepath.Join(r.dirPath, fileLabel(label)+".txt"), text)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to save OCR text '%s': %v", label, e)
	}
}

// SaveJSON stores any marshalable value as <name>.json.
func (r *DebugRun) SaveJSON(name string, value any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := saveJSONToFile(filepath.Join(r.dirPath, fileLabel(name)+".json"), value)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to save '%s': %v", name, e)
	}
}

// Finish logs where the artifacts are.
func (r *DebugRun) Finish(summary string) {
	if r == nil {
		return
	}
	tl.Log(
		tl.Info1, palette.Green, "%s debug run '%s': %s",
		"Finished", r.dirPath, summary,
	)
}
