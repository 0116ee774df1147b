package recognize

import (
	"fmt"

	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/ocr"
	"condo-plates/src/pkg/preprocess"
)

/*
Pass is one OCR attempt: a preprocessing variant read with one page
segmentation mode. Confidence is what a valid read from this pass is worth;
zero means Config.ValidatedConfidence.
*/
type Pass struct {
	Strategy   preprocess.Strategy `json:"strategy"`
	Aggressive bool                `json:"aggressive"`
	PSM        int                 `json:"psm"`
	Confidence float64             `json:"confidence,omitempty"`
}

// Label names the pass in logs and debug files, e.g. "normal+psm7".
func (p Pass) Label() string {
	return fmt.Sprintf("%s+psm%d", p.variant().label(), p.PSM)
}

type variantKey struct {
	strategy   preprocess.Strategy
	aggressive bool
}

func (p Pass) variant() variantKey {
	strategy, aggressive := p.Strategy.Resolve(p.Aggressive)
	return variantKey{strategy: strategy, aggressive: aggressive}
}

func (k variantKey) label() string {
	switch {
	case k.aggressive && k.strategy == preprocess.StrategyNormal:
		return string(preprocess.StrategyAggressive)
	case k.aggressive:
		return string(k.strategy) + "-aggressive"
	default:
		return string(k.strategy)
	}
}

// DefaultPasses is the ordered pass list used when none is configured.
func DefaultPasses() []Pass {
	return []Pass{
		{Strategy: preprocess.StrategyNormal, PSM: ocr.PSMSingleLine},
		{Strategy: preprocess.StrategyNormal, PSM: ocr.PSMSingleWord},
		{Strategy: preprocess.StrategyNormal, PSM: ocr.PSMSingleBlock},
		{Strategy: preprocess.StrategyNormal, Aggressive: true, PSM: ocr.PSMSingleLine},
		{Strategy: preprocess.StrategyNormal, Aggressive: true, PSM: ocr.PSMSingleWord},
		{Strategy: preprocess.StrategyOtsu, PSM: ocr.PSMSingleLine},
		{Strategy: preprocess.StrategyOriginal, PSM: ocr.PSMSingleLine},
		{Strategy: preprocess.StrategyOriginal, PSM: ocr.PSMSingleWord},
	}
}

var supportedPSM = map[int]bool{
	ocr.PSMSingleBlock: true,
	ocr.PSMSingleLine:  true,
	ocr.PSMSingleWord:  true,
	ocr.PSMRawLine:     true,
}

// PassesFromSpecs converts configured passes, DefaultPasses when specs is empty.
func PassesFromSpecs(specs []PassSpec) (passes []Pass, e *xerr.Error) {
	if len(specs) == 0 {
		return DefaultPasses(), nil
	}
	for i, spec := range specs {
		strategy, err := preprocess.ParseStrategy(spec.Strategy)
		if err != nil {
			return nil, xerr.NewError(err, fmt.Sprintf("invalid strategy in pass #%d", i+1), spec)
		}
		if !supportedPSM[spec.PSM] {
			return nil, xerr.NewError(fmt.Errorf("unsupported psm %d", spec.PSM), fmt.Sprintf("invalid psm in pass #%d", i+1), spec)
		}
		if spec.Confidence < 0 || spec.Confidence > 1 {
			return nil, xerr.NewError(fmt.Errorf("confidence out of range"), fmt.Sprintf("invalid confidence in pass #%d", i+1), spec)
		}
		passes = append(passes, Pass{Strategy: strategy, Aggressive: spec.Aggressive, PSM: spec.PSM, Confidence: spec.Confidence})
	}
	return passes, nil
}
