package tesseract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/platetest"
)

func TestNewUsesConfig(t *testing.T) {
	previous := Cfg
	t.Cleanup(func() { Cfg = previous })
	Cfg = Config{Language: "spa", Whitelist: "0123456789", TessdataPrefix: "/opt/tessdata"}

	engine := New()
	assert.Equal(t, "spa", engine.language)
	assert.Equal(t, "0123456789", engine.whitelist)
	assert.Equal(t, "/opt/tessdata", engine.tessdataPrefix)
	assert.False(t, engine.useDictionaries)
}

func TestEngineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New()
	_, e := engine.Text(ctx, platetest.RenderPlate("1234ABC", 3), ocr.PSMSingleLine)
	assert.NotNil(t, e)

	_, e = engine.Words(ctx, platetest.RenderPlate("1234ABC", 3), ocr.PSMSingleLine)
	assert.NotNil(t, e)
}

func TestEngineReadsRenderedPlate(t *testing.T) {
	if testing.Short() {
		t.Skip("needs tesseract language data")
	}
	engine := New()
	if !engine.Available() {
		t.Skip("tesseract not available")
	}

	_, e := engine.Text(context.Background(), platetest.RenderPlate("1234ABC", 4), ocr.PSMSingleLine)
	assert.Nil(t, e)
}
