package ocr

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-plates/src/pkg/platetest"
)

func TestMeanConfidence(t *testing.T) {
	assert.Equal(t, 0.0, MeanConfidence(nil))
	assert.InDelta(t, 60.0, MeanConfidence([]Word{{"AB", 40}, {"12", 80}}), 1e-9)
}

func TestImageExtension(t *testing.T) {
	img := platetest.RenderPlate("1234ABC", 1)
	assert.Equal(t, ".png", imageExtension(platetest.EncodePNG(img)))
	assert.Equal(t, ".jpg", imageExtension(platetest.EncodeJPEG(img)))
	assert.Equal(t, ".jpg", imageExtension([]byte("garbage")))
}

func TestFileLabel(t *testing.T) {
	assert.Equal(t, "normal_psm7", fileLabel("normal+psm7"))
	assert.Equal(t, "plate_detect", fileLabel("plate_detect"))
}

func TestNilDebugRunDiscards(t *testing.T) {
	var run *DebugRun
	assert.NotPanics(t, func() {
		run.SaveVariant("normal", platetest.RenderPlate("1234ABC", 1))
		run.SaveText("normal+psm7", "1234ABC")
		run.SaveJSON("result", map[string]string{"plate": "1234ABC"})
		run.Finish("done")
	})
	assert.Empty(t, run.Path())
}

func TestStartDebugRunDisabled(t *testing.T) {
	run, e := StartDebugRun("  ", []byte("x"))
	assert.Nil(t, e)
	assert.Nil(t, run)
}

func TestDebugRunWritesArtifacts(t *testing.T) {
	root := t.TempDir()
	img := platetest.RenderPlate("1234ABC", 2)

	run, e := StartDebugRun(root, platetest.EncodePNG(img))
	require.Nil(t, e)
	require.NotNil(t, run)

	run.SaveVariant("normal", img)
	run.SaveText("normal+psm7", "1234ABC\n")
	run.SaveJSON("result", map[string]any{"plate": "1234ABC", "found": true})

	for _, name := range []string{"orig.png", "normal.png", "normal_psm7.txt", "result.json"} {
		_, err := os.Stat(filepath.Join(run.Path(), name))
		assert.NoError(t, err, name)
	}

	text, err := os.ReadFile(filepath.Join(run.Path(), "normal_psm7.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1234ABC\n", string(text))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// Packages that only need the Engine seam must build without cgo OCR libraries.
func TestPackageHasNoNativeImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, spec := range file.Imports {
			path := strings.Trim(spec.Path.Value, `"`)
			assert.NotContains(t, path, "gosseract", name)
			assert.NotContains(t, path, "gocv", name)
		}
	}
}
