package preprocess

import (
	"fmt"
	"strings"
)

// Strategy selects the preprocessing branch applied before the common cleanup steps.
type Strategy string

const (
	StrategyNormal      Strategy = "normal"
	StrategyAggressive  Strategy = "aggressive" // normal with the aggressive flag set
	StrategyShadow      Strategy = "shadow"     // illumination normalisation
	StrategyWorn        Strategy = "worn"       // heavy denoise for scratched plates
	StrategyOtsu        Strategy = "otsu"       // global Otsu binarisation, skips the common steps
	StrategyPlateDetect Strategy = "plate_detect"
	StrategyOriginal    Strategy = "original" // plain grayscale decode, no preprocessing
)

func ParseStrategy(s string) (strategy Strategy, e error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyNormal, "":
		return StrategyNormal, nil
	case StrategyAggressive:
		return StrategyAggressive, nil
	case StrategyShadow:
		return StrategyShadow, nil
	case StrategyWorn:
		return StrategyWorn, nil
	case StrategyOtsu:
		return StrategyOtsu, nil
	case StrategyPlateDetect:
		return StrategyPlateDetect, nil
	case StrategyOriginal:
		return StrategyOriginal, nil
	default:
		return StrategyNormal, fmt.Errorf("unknown preprocessing strategy '%s'", s)
	}
}

/*
Resolve folds the aggressive alias into (normal, true) so callers that cache
variants see a single key for both spellings.
*/
func (s Strategy) Resolve(aggressive bool) (Strategy, bool) {
	if s == StrategyAggressive {
		return StrategyNormal, true
	}
	if s == "" {
		return StrategyNormal, aggressive
	}
	return s, aggressive
}
