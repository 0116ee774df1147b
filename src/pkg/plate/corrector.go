package plate

import (
	"slices"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const (
	shapeDigitsFirst  = "DDDDLLL"
	shapeLettersFirst = "LLLDDDD"
	maxCorrections    = 3
)

/*
Corrector turns noisy OCR readings into plates of one region using the
confusion tables. It holds no mutable state.
*/
type Corrector struct {
	validator *Validator
	scores    ScoreConfig
}

func NewCorrector(validator *Validator, scores ScoreConfig) *Corrector {
	return &Corrector{validator: validator, scores: scores}
}

func (c *Corrector) Validator() *Validator { return c.validator }

/*
FixCommonErrors applies the conservative positional fix to 7 character text.

With two or more digits among the first four characters the text is read as
1234ABC, otherwise with two or more digits among the last four it is read as
ABC1234. Text that already validates in the region, any other length, or text
matching neither layout is returned as is.
*/
func (c *Corrector) FixCommonErrors(text string) string {
	text = strings.ToUpper(strings.TrimSpace(text))
	if len(text) != 7 || c.validator.IsValidPlate(text) {
		return text
	}

	switch {
	case countDigits(text[:4]) >= 2:
		return digitFirstFixTable.Apply(text, shapeDigitsFirst)
	case countDigits(text[3:]) >= 2:
		return letterFirstFixTable.Apply(text, shapeLettersFirst)
	default:
		return text
	}
}

/*
Correct returns the plausible corrections of rawText with their scores.

Text that already validates comes back unchanged with the uncorrected score.
Only 7 character text with at least three digits and two letters is
reinterpreted; the two full interpretations (1234ABC and ABC1234) score
highest, the positional variant slightly lower. When nothing validates the
input itself is returned with the uncorrected score.
*/
func (c *Corrector) Correct(rawText string) (corrections []Scored) {
	text := strings.ToUpper(strings.TrimSpace(rawText))
	uncorrected := []Scored{{Text: text, Score: c.scores.Uncorrected}}

	if c.validator.IsValidPlate(text) {
		return uncorrected
	}
	if len(text) != 7 || countDigits(text) < 3 || countLetters(text) < 2 {
		return uncorrected
	}

	add := func(candidate string, score int) {
		if candidate == text || !c.validator.IsValidPlate(candidate) {
			return
		}
		for _, existing := range corrections {
			if existing.Text == candidate {
				return
			}
		}
		corrections = append(corrections, Scored{Text: candidate, Score: score})
	}

	if allIn(text[:4], positionalTable.ToDigit) {
		add(interpretationTable.Apply(text, shapeDigitsFirst), c.scores.Interpretation)
	}
	if allIn(text[4:], map[rune]rune{'O': '0', 'I': '1'}) || countLetters(text) >= 3 {
		add(interpretationTable.Apply(text, shapeLettersFirst), c.scores.Interpretation)
	}
	add(positionalTable.Apply(text, shapeDigitsFirst), c.scores.Positional)

	if len(corrections) == 0 {
		return uncorrected
	}
	if len(corrections) > maxCorrections {
		corrections = corrections[:maxCorrections]
	}
	tl.Log(tl.Debug, palette.CyanDim, "Corrections for '%s': '%v'", text, corrections)
	return corrections
}

// allIn reports whether every rune of text is a digit or a key of substitutions.
func allIn(text string, substitutions map[rune]rune) bool {
	for _, r := range text {
		if isDigit(r) {
			continue
		}
		if _, ok := substitutions[r]; !ok {
			return false
		}
	}
	return true
}

/*
ForceRegionalFormat coerces a fragment into one of the region shapes using the
widest confusion table. Fragments are matched against shapes of their own
length, except 8 character fragments which are tried through both of their
7 character windows. Returns the first reading that validates.
*/
func (c *Corrector) ForceRegionalFormat(text string) (forced string, ok bool) {
	text = CleanOCRText(text)

	for _, shape := range forcedShapeOrder(c.validator.Shapes()) {
		for _, window := range windowsFor(text, len(shape)) {
			candidate := forceTable.Apply(window, shape)
			if fitsShape(candidate, shape) && c.validator.IsValidPlate(candidate) {
				tl.Log(tl.Verbose, palette.Purple, "Forced '%s' into '%s' as '%s'", text, shape, candidate)
				return candidate, true
			}
		}
	}
	return "", false
}

// digit first, then letter first, then the 3 letter + 3 digit layout
var forcedShapePriority = []string{shapeDigitsFirst, shapeLettersFirst, "LLLDDD"}

func forcedShapeOrder(shapes []string) []string {
	rank := func(shape string) int {
		if i := slices.Index(forcedShapePriority, shape); i >= 0 {
			return i
		}
		return len(forcedShapePriority)
	}
	ordered := slices.Clone(shapes)
	slices.SortStableFunc(ordered, func(a, b string) int { return rank(a) - rank(b) })
	return ordered
}

func windowsFor(text string, size int) []string {
	switch {
	case len(text) == size:
		return []string{text}
	case len(text) == 8 && size == 7:
		return []string{text[:size], text[1:]}
	default:
		return nil
	}
}

/*
Evaluate runs the per-reading flow on one OCR output: clean, positional fix,
corrections, then gathers every reading that validates. pool receives the
readings worth keeping for forced correction later.
*/
func (c *Corrector) Evaluate(rawText string, strategyLabel string) (valid []Candidate, pool []Candidate) {
	cleaned := CleanOCRText(rawText)
	if cleaned == "" {
		return nil, nil
	}
	fixed := c.FixCommonErrors(cleaned)

	if len(fixed) >= Cfg.MinPoolLength && len(fixed) <= Cfg.MaxPoolLength {
		pool = append(pool, Candidate{RawText: cleaned, StrategyLabel: strategyLabel, CorrectedText: fixed})
	}

	seen := map[string]bool{}
	addValid := func(text string, score int) {
		if seen[text] || !c.validator.IsValidPlate(text) {
			return
		}
		seen[text] = true
		valid = append(valid, Candidate{RawText: cleaned, StrategyLabel: strategyLabel, CorrectedText: text, IsValid: true, Score: score})
	}

	for _, correction := range c.Correct(fixed) {
		if correction.Text != fixed && len(correction.Text) >= Cfg.MinPoolLength {
			pool = append(pool, Candidate{RawText: cleaned, StrategyLabel: strategyLabel + " (corr)", CorrectedText: correction.Text, Score: correction.Score})
		}
		addValid(correction.Text, correction.Score)
	}
	addValid(fixed, c.scores.Uncorrected)
	addValid(cleaned, c.scores.Uncorrected)

	return valid, pool
}

/*
Best returns the strongest valid candidate: highest score, then the longest,
then the earliest.
*/
func Best(candidates []Candidate) (best Candidate, found bool) {
	for _, candidate := range candidates {
		if !candidate.IsValid {
			continue
		}
		if !found || candidate.Score > best.Score ||
			(candidate.Score == best.Score && len(candidate.CorrectedText) > len(best.CorrectedText)) {
			best = candidate
			found = true
		}
	}
	return best, found
}
