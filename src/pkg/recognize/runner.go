package recognize

import (
	"context"
	"image"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"golang.org/x/sync/errgroup"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/plate"
	"condo-plates/src/pkg/preprocess"
)

// PassOutput is what one pass read. RawText may be empty.
type PassOutput struct {
	Index     int         `json:"index"`
	Pass      Pass        `json:"pass"`
	Label     string      `json:"label"`
	RawText   string      `json:"raw_text"`
	CleanText string      `json:"clean_text"`
	Image     *image.Gray `json:"-"`
}

/*
Runner preprocesses the image once per distinct variant and OCRs every pass.
With more than one worker the passes run concurrently, but outputs keep the
pass order so the outcome never depends on scheduling.
*/
type Runner struct {
	engine       ocr.Engine
	preprocessor preprocess.Preprocessor
	passes       []Pass
	workers      int
}

func NewRunner(engine ocr.Engine, preprocessor preprocess.Preprocessor, passes []Pass, workers int) *Runner {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: engine, preprocessor: preprocessor, passes: passes, workers: workers}
}

func (r *Runner) Passes() []Pass { return r.passes }

/*
prepareVariants builds every distinct preprocessed image the passes need.
A variant that cannot be produced is nil and its passes are skipped.
*/
func (r *Runner) prepareVariants(ctx context.Context, imageBytes []byte, debug *ocr.DebugRun) map[variantKey]*image.Gray {
	var keys []variantKey
	seen := map[variantKey]bool{}
	for _, pass := range r.passes {
		key := pass.variant()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	images := make([]*image.Gray, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, key := range keys {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if key.strategy == preprocess.StrategyOriginal {
				images[i] = r.preprocessor.Grayscale(imageBytes)
			} else {
				images[i] = r.preprocessor.Preprocess(imageBytes, key.aggressive, key.strategy)
			}
			return nil
		})
	}
	_ = g.Wait()

	variants := make(map[variantKey]*image.Gray, len(keys))
	for i, key := range keys {
		variants[key] = images[i]
		if images[i] == nil {
			tl.Log(tl.Warning, palette.Yellow, "Variant '%s' %s, its passes are skipped", key.label(), "could not be produced")
			continue
		}
		debug.SaveVariant(key.label(), images[i])
	}
	return variants
}

/*
RunPasses runs every pass and returns the outputs of those that ran, in pass
order. No pass short-circuits the others and failed passes are not retried.
*/
func (r *Runner) RunPasses(ctx context.Context, imageBytes []byte, debug *ocr.DebugRun) (outputs []PassOutput) {
	variants := r.prepareVariants(ctx, imageBytes, debug)

	results := make([]*PassOutput, len(r.passes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, pass := range r.passes {
		img := variants[pass.variant()]
		if img == nil {
			continue
		}
		g.Go(func() error {
			label := pass.Label()
			text, e := r.engine.Text(gctx, img, pass.PSM)
			if e != nil {
				tl.Log(tl.Warning, palette.Yellow, "Pass '%s' %s: %v", label, "failed", e)
				return nil
			}
			output := PassOutput{
				Index:     i,
				Pass:      pass,
				Label:     label,
				RawText:   strings.TrimSpace(text),
				CleanText: plate.CleanOCRText(text),
				Image:     img,
			}
			if output.CleanText != "" {
				tl.Log(tl.Info1, palette.Cyan, "Pass '%s': RAW='%s'", label, output.CleanText)
			}
			debug.SaveText(label, text)
			results[i] = &output
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range results {
		if result != nil {
			outputs = append(outputs, *result)
		}
	}
	return outputs
}
