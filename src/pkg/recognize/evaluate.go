package recognize

import (
	"context"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/plate"
)

// passEvaluation holds the candidates one pass produced.
type passEvaluation struct {
	output     PassOutput
	valid      []plate.Candidate
	pool       []plate.Candidate
	best       plate.Candidate
	found      bool
	confidence float64
}

/*
evaluatePass corrects and validates one pass. When nothing validates, the
words the engine is reasonably sure of are tried one by one as fragments.
*/
func (r *Recognizer) evaluatePass(ctx context.Context, corrector *plate.Corrector, output PassOutput) (evaluation passEvaluation) {
	evaluation.output = output
	evaluation.confidence = output.Pass.Confidence
	if evaluation.confidence == 0 {
		evaluation.confidence = r.cfg.ValidatedConfidence
	}

	evaluation.valid, evaluation.pool = corrector.Evaluate(output.RawText, output.Label)
	if len(evaluation.valid) == 0 && output.Image != nil {
		evaluation.valid = r.fragmentCandidates(ctx, corrector, output)
	}

	evaluation.best, evaluation.found = plate.Best(evaluation.valid)
	if evaluation.found {
		tl.Log(tl.Info1, palette.Green, "Pass '%s': VALID '%s' (score %d)", output.Label, evaluation.best.CorrectedText, evaluation.best.Score)
	}
	return evaluation
}

func (r *Recognizer) fragmentCandidates(ctx context.Context, corrector *plate.Corrector, output PassOutput) (valid []plate.Candidate) {
	words, e := r.engine.Words(ctx, output.Image, output.Pass.PSM)
	if e != nil {
		tl.Log(tl.Verbose, palette.Purple, "Fragment search for '%s' %s: %v", output.Label, "failed", e)
		return nil
	}

	tl.Log(tl.Verbose, palette.Cyan, "Fragment search for '%s': %d word(s), mean confidence %.1f", output.Label, len(words), ocr.MeanConfidence(words))

	seen := map[string]bool{}
	for _, word := range words {
		if word.Confidence <= r.cfg.FragmentThreshold {
			continue
		}
		text := corrector.FixCommonErrors(plate.CleanOCRText(word.Text))
		if len(text) < r.cfg.FragmentMinLength || seen[text] || !corrector.Validator().IsValidPlate(text) {
			continue
		}
		seen[text] = true
		tl.Log(tl.Debug, palette.Cyan, "Fragment '%s' valid (conf %.0f)", text, word.Confidence)
		valid = append(valid, plate.Candidate{
			RawText:       word.Text,
			StrategyLabel: output.Label + " (fragment)",
			CorrectedText: text,
			IsValid:       true,
			Score:         plate.Cfg.Scores.Uncorrected,
		})
	}
	return valid
}

/*
bestEvaluation picks the winning pass: highest pass confidence, then the
longer plate, then the earlier pass.
*/
func bestEvaluation(evaluations []passEvaluation) (best passEvaluation, found bool) {
	for _, evaluation := range evaluations {
		if !evaluation.found {
			continue
		}
		if !found || evaluation.confidence > best.confidence ||
			(evaluation.confidence == best.confidence && len(evaluation.best.CorrectedText) > len(best.best.CorrectedText)) {
			best = evaluation
			found = true
		}
	}
	return best, found
}
