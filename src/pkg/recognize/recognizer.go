// Package recognize turns a photo into a validated plate: cloud providers
// first, then the local multi-pass OCR with correction and fallbacks.
package recognize

import (
	"context"
	"fmt"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/plate"
	"condo-plates/src/pkg/preprocess"
	"condo-plates/src/pkg/provider"
	"condo-plates/src/pkg/util"
)

// Dependencies are built once at startup and shared by every call.
type Dependencies struct {
	Providers    []provider.PlateOcrProvider
	Engine       ocr.Engine
	Preprocessor preprocess.Preprocessor
}

type Recognizer struct {
	cfg          Config
	providers    []provider.PlateOcrProvider
	engine       ocr.Engine
	preprocessor preprocess.Preprocessor
	runner       *Runner
}

func NewRecognizer(cfg Config, deps Dependencies) (recognizer *Recognizer, e *xerr.Error) {
	if deps.Engine == nil {
		return nil, xerr.NewError(fmt.Errorf("nil engine"), "a local OCR engine is required", nil)
	}
	if deps.Preprocessor == nil {
		deps.Preprocessor = preprocess.NewImaging()
	}

	passes, e := PassesFromSpecs(cfg.Passes)
	if e != nil {
		return nil, e
	}

	recognizer = &Recognizer{
		cfg:          cfg,
		providers:    deps.Providers,
		engine:       deps.Engine,
		preprocessor: deps.Preprocessor,
		runner:       NewRunner(deps.Engine, deps.Preprocessor, passes, cfg.Workers),
	}

	tl.Log(
		tl.Info, palette.Green, "%s: providers %v, %d local passes, %d worker(s), preprocessor '%s'",
		"Recognizer ready", provider.Names(deps.Providers), len(passes), recognizer.runner.workers, deps.Preprocessor.Name(),
	)
	return recognizer, nil
}

/*
Recognize reads the plate on imageBytes for regionID (empty: the configured
default region). It never fails: every problem ends as a Result with Found
false and a Failure reason.

Stages, first success wins:
 1. cloud providers in order; an erroring provider counts as no result
 2. local multi-pass OCR with correction and fragment search
 3. forced reinterpretation of the 6-8 char candidates
 4. unvalidated 7-char mixed candidate, only with accept_unvalidated
*/
func (r *Recognizer) Recognize(ctx context.Context, imageBytes []byte, regionID string) (result Result) {
	startTime := time.Now()

	validator, region, e := plate.ValidatorFor(regionID)
	if e != nil {
		tl.Log(tl.Error, palette.Red, "No validator for region '%s': %v", regionID, e)
		result = notFound(regionID, FailureRegionUnavailable, nil)
		result.Elapsed = time.Since(startTime)
		return result
	}
	corrector := plate.NewCorrector(validator, plate.Cfg.Scores)

	debug, e := ocr.StartDebugRun(r.cfg.DebugDir, imageBytes)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Debug artifacts %s: %v", "disabled for this call", e)
	}

	tl.Log(tl.Notice, palette.BlueBold, "%s plate in %d bytes (region %s)", "Recognizing", len(imageBytes), region)

	cloudResult, cloudFound, cloudPool, cloudSawText := r.tryCloud(ctx, corrector, imageBytes)
	if cloudFound {
		cloudResult.Region = region
		return r.finish(cloudResult, startTime, debug)
	}

	outputs := r.runner.RunPasses(ctx, imageBytes, debug)

	evaluations := make([]passEvaluation, 0, len(outputs))
	var candidates, pool []plate.Candidate
	sawText := cloudSawText
	for _, output := range outputs {
		evaluation := r.evaluatePass(ctx, corrector, output)
		evaluations = append(evaluations, evaluation)
		candidates = append(candidates, evaluation.valid...)
		pool = append(pool, evaluation.pool...)
		if output.CleanText != "" || len(evaluation.valid) > 0 {
			sawText = true
		}
	}
	pool = dedupeCandidates(append(pool, cloudPool...))
	candidates = append(candidates, pool...)
	debug.SaveJSON("candidates", candidates)

	best, found := bestEvaluation(evaluations)
	if found {
		return r.finish(Result{
			Plate:      best.best.CorrectedText,
			Found:      true,
			Confidence: best.confidence,
			Source:     SourceLocal + ":" + best.output.Label,
			Region:     region,
			Candidates: candidates,
		}, startTime, debug)
	}

	tl.Log(tl.Warning, palette.Yellow, "No valid plate in %d pass(es), %d candidate(s) left for fallbacks", len(outputs), len(pool))

	if forced, ok := r.tryForced(corrector, pool); ok {
		forced.Region, forced.Candidates = region, candidates
		return r.finish(forced, startTime, debug)
	}

	if r.cfg.AcceptUnvalidated {
		if unvalidated, ok := r.tryUnvalidated(pool); ok {
			unvalidated.Region, unvalidated.Candidates = region, candidates
			return r.finish(unvalidated, startTime, debug)
		}
	}

	failure := FailureNoValidFormat
	switch {
	case len(outputs) == 0 && !cloudSawText && !r.decodes(imageBytes):
		failure = FailureImageDecode
	case !sawText:
		failure = FailureNoTextDetected
	}
	return r.finish(notFound(region, failure, candidates), startTime, debug)
}

func (r *Recognizer) decodes(imageBytes []byte) bool {
	_, e := preprocess.DecodeImage(imageBytes)
	return e == nil
}

func (r *Recognizer) finish(result Result, startTime time.Time, debug *ocr.DebugRun) Result {
	result.Elapsed = time.Since(startTime)
	if result.Found {
		result.Confidence = util.Clamp(result.Confidence, 0, 1)
		tl.Log(
			tl.Notice1, palette.GreenBold, "%s '%s' (confidence %.2f, source %s) in %s",
			"Plate recognized", result.Plate, result.Confidence, result.Source, result.Elapsed,
		)
	} else {
		result.Plate, result.Confidence = "", 0
		tl.Log(tl.Notice1, palette.Purple, "%s: %s in %s", "No plate recognized", result.Failure, result.Elapsed)
	}
	debug.SaveJSON("result", result)
	debug.Finish(fmt.Sprintf("found=%v plate='%s'", result.Found, result.Plate))
	return result
}

/*
tryCloud asks the providers in order. A provider wins when one of its lines
validates directly or after correction; among the lines of that provider
the most confident wins. Whole lines that never validate are returned as
pool candidates for the forced stage.
*/
func (r *Recognizer) tryCloud(ctx context.Context, corrector *plate.Corrector, imageBytes []byte) (result Result, found bool, pool []plate.Candidate, sawText bool) {
	for _, p := range r.providers {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.cfg.CloudTimeoutSeconds > 0 {
			callCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.CloudTimeoutSeconds)*time.Second)
		}
		lines, e := p.DetectText(callCtx, imageBytes)
		cancel()
		if e != nil {
			tl.Log(tl.Warning, palette.Yellow, "Provider '%s' %s, continuing: %v", p.Name(), "unavailable", e)
			continue
		}
		if len(lines) > 0 {
			sawText = true
		}

		match, confidence, matched, linePool := r.evaluateCloudLines(corrector, p.Name(), lines)
		pool = append(pool, linePool...)
		if matched {
			return Result{
				Plate:      match.CorrectedText,
				Found:      true,
				Confidence: confidence,
				Source:     p.Name(),
				Candidates: []plate.Candidate{match},
			}, true, pool, sawText
		}
		tl.Log(tl.Info1, palette.Purple, "Provider '%s' returned %d line(s), none is a valid plate", p.Name(), len(lines))
	}
	return result, false, pool, sawText
}

func (r *Recognizer) lineConfidence(line provider.TextLine) float64 {
	confidence := line.Confidence
	if !line.HasConfidence && confidence == 0 {
		confidence = r.cfg.CloudDefaultConfidence
	}
	return util.Clamp(confidence, 0, 1)
}

// cloudTexts lists the compacted line first, then every whitespace token.
func cloudTexts(lineText string) (texts []string) {
	seen := map[string]bool{}
	add := func(text string) {
		cleaned := plate.CleanOCRText(text)
		if cleaned != "" && !seen[cleaned] {
			seen[cleaned] = true
			texts = append(texts, cleaned)
		}
	}
	add(lineText)
	for _, token := range strings.Fields(lineText) {
		add(token)
	}
	return texts
}

// evaluateCloudLines returns the most confident validating line, the first one on ties.
func (r *Recognizer) evaluateCloudLines(corrector *plate.Corrector, providerName string, lines []provider.TextLine) (match plate.Candidate, bestConfidence float64, matched bool, pool []plate.Candidate) {
	for _, line := range lines {
		for j, text := range cloudTexts(line.Text) {
			plateText, score, ok := validateCloudText(corrector, text)
			if !ok {
				// whole lines only, tokens never join the pool
				if j == 0 && len(text) >= plate.Cfg.MinPoolLength && len(text) <= plate.Cfg.MaxPoolLength {
					pool = append(pool, plate.Candidate{RawText: line.Text, StrategyLabel: providerName, CorrectedText: text})
				}
				continue
			}
			confidence := r.lineConfidence(line)
			if !matched || confidence > bestConfidence {
				bestConfidence = confidence
				match = plate.Candidate{RawText: line.Text, StrategyLabel: providerName, CorrectedText: plateText, IsValid: true, Score: score}
				matched = true
			}
			break
		}
	}
	return match, bestConfidence, matched, pool
}

func validateCloudText(corrector *plate.Corrector, text string) (plateText string, score int, ok bool) {
	validator := corrector.Validator()
	if validator.IsValidPlate(text) {
		return text, plate.Cfg.Scores.Uncorrected, true
	}
	for _, correction := range corrector.Correct(text) {
		if validator.IsValidPlate(correction.Text) {
			return correction.Text, correction.Score, true
		}
	}
	return "", 0, false
}

func (r *Recognizer) tryForced(corrector *plate.Corrector, pool []plate.Candidate) (result Result, found bool) {
	for _, candidate := range pool {
		length := len(candidate.CorrectedText)
		if length < r.cfg.ForceMinLength || length > r.cfg.ForceMaxLength {
			continue
		}
		forced, ok := corrector.ForceRegionalFormat(candidate.CorrectedText)
		if !ok {
			tl.Log(tl.Verbose, palette.Purple, "Could not force '%s' (from %s)", candidate.CorrectedText, candidate.StrategyLabel)
			continue
		}
		tl.Log(tl.Warning, palette.Yellow, "Forced plate '%s' (original '%s')", forced, candidate.CorrectedText)
		return Result{
			Plate:      forced,
			Found:      true,
			Confidence: r.cfg.ForcedConfidence,
			Source:     SourceForced + ":" + candidate.StrategyLabel,
		}, true
	}
	return result, false
}

func (r *Recognizer) tryUnvalidated(pool []plate.Candidate) (result Result, found bool) {
	for _, candidate := range pool {
		if len(candidate.CorrectedText) != r.cfg.UnvalidatedLength || !plate.HasLettersAndDigits(candidate.CorrectedText) {
			continue
		}
		tl.Log(tl.Warning, palette.Yellow, "Returning unvalidated candidate '%s' (mixed format)", candidate.CorrectedText)
		return Result{
			Plate:      candidate.CorrectedText,
			Found:      true,
			Confidence: r.cfg.UnvalidatedConfidence,
			Source:     SourceUnvalidated + ":" + candidate.StrategyLabel,
		}, true
	}
	return result, false
}

// dedupeCandidates keeps the first candidate per corrected text.
func dedupeCandidates(candidates []plate.Candidate) (unique []plate.Candidate) {
	seen := map[string]bool{}
	for _, candidate := range candidates {
		if seen[candidate.CorrectedText] {
			continue
		}
		seen[candidate.CorrectedText] = true
		unique = append(unique, candidate)
	}
	return unique
}
