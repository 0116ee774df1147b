package recognize

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/preprocess"
	"condo-plates/src/pkg/provider"
)

// fakePreprocessor hands out a distinct tiny image per variant and remembers its label.
type fakePreprocessor struct {
	mu              sync.Mutex
	labels          map[*image.Gray]string
	preprocessCalls atomic.Int32
	grayscaleCalls  atomic.Int32
	fail            bool
}

func newFakePreprocessor() *fakePreprocessor {
	return &fakePreprocessor{labels: map[*image.Gray]string{}}
}

func (f *fakePreprocessor) Name() string { return "fake" }

func (f *fakePreprocessor) image(label string) *image.Gray {
	if f.fail {
		return nil
	}
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	f.mu.Lock()
	f.labels[img] = label
	f.mu.Unlock()
	return img
}

func (f *fakePreprocessor) label(img *image.Gray) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labels[img]
}

func (f *fakePreprocessor) Preprocess(_ []byte, aggressive bool, strategy preprocess.Strategy) *image.Gray {
	f.preprocessCalls.Add(1)
	return f.image(variantKey{strategy: strategy, aggressive: aggressive}.label())
}

func (f *fakePreprocessor) Grayscale(_ []byte) *image.Gray {
	f.grayscaleCalls.Add(1)
	return f.image(string(preprocess.StrategyOriginal))
}

// fakeEngine answers by pass label, e.g. "normal+psm7".
type fakeEngine struct {
	preprocessor *fakePreprocessor
	texts        map[string]string
	words        map[string][]ocr.Word
	failing      map[string]bool
	delay        func(label string) time.Duration
	textCalls    atomic.Int32
	wordCalls    atomic.Int32
}

func newFakeEngine(preprocessor *fakePreprocessor, texts map[string]string) *fakeEngine {
	return &fakeEngine{preprocessor: preprocessor, texts: texts, words: map[string][]ocr.Word{}, failing: map[string]bool{}}
}

func (f *fakeEngine) passLabel(img *image.Gray, psm int) string {
	variant := "unknown"
	if f.preprocessor != nil {
		variant = f.preprocessor.label(img)
	}
	return fmt.Sprintf("%s+psm%d", variant, psm)
}

func (f *fakeEngine) Text(ctx context.Context, img *image.Gray, psm int) (string, *xerr.Error) {
	f.textCalls.Add(1)
	label := f.passLabel(img, psm)
	if f.delay != nil {
		time.Sleep(f.delay(label))
	}
	if f.failing[label] {
		return "", xerr.NewError(fmt.Errorf("engine crashed"), "fake OCR failure", label)
	}
	if text, ok := f.texts[label]; ok {
		return text, nil
	}
	return f.texts["*"], nil
}

func (f *fakeEngine) Words(ctx context.Context, img *image.Gray, psm int) ([]ocr.Word, *xerr.Error) {
	f.wordCalls.Add(1)
	return f.words[f.passLabel(img, psm)], nil
}

type fakeProvider struct {
	name  string
	lines []provider.TextLine
	err   bool
	block bool
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) DetectText(ctx context.Context, _ []byte) ([]provider.TextLine, *xerr.Error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, xerr.NewError(ctx.Err(), "fake provider timed out", f.name)
	}
	if f.err {
		return nil, xerr.NewError(fmt.Errorf("dial tcp: connection refused"), "fake provider unavailable", f.name)
	}
	return f.lines, nil
}
