package plate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const (
	RegionBolivia   = "BOLIVIA"
	RegionArgentina = "ARGENTINA"
)

/*
RegionPlateRule describes the accepted plate formats of one region.

Shapes lists the letter/digit layouts ('L' and 'D') that forced correction may
coerce a fragment into, in order of preference. When empty they are derived
from Patterns.
*/
type RegionPlateRule struct {
	RegionID    string   `json:"region_id"`
	Patterns    []string `json:"patterns"`
	MinLength   int      `json:"min_length"`
	MaxLength   int      `json:"max_length"`
	Shapes      []string `json:"shapes,omitempty"`
	Description string   `json:"description,omitempty"`
}

var builtinRegions = map[string]RegionPlateRule{
	RegionBolivia: {
		RegionID: RegionBolivia,
		Patterns: []string{
			`^[A-Z]{3}\d{4}$`,      // ABC1234 traditional
			`^\d{4}[A-Z]{3}$`,      // 1234ABC current
			`^[A-Z]{2}\d{3}[A-Z]$`, // AB123C motorcycles
			`^[A-Z]{3}\d{3}$`,      // ABC123 taxis and others
		},
		MinLength:   6,
		MaxLength:   7,
		Shapes:      []string{"DDDDLLL", "LLLDDDD", "LLDDDL", "LLLDDD"},
		Description: "Bolivian plates",
	},
	RegionArgentina: {
		RegionID: RegionArgentina,
		Patterns: []string{
			`^[A-Z]{3}\d{3}$`,         // ABC123 old
			`^[A-Z]{2}\d{3}[A-Z]{2}$`, // AB123CD Mercosur
		},
		MinLength:   6,
		MaxLength:   7,
		Description: "Argentinian plates",
	},
}

/*
LookupRegion returns the rule for regionID. Regions declared in the
configuration take precedence over the built-in ones.
*/
func LookupRegion(regionID string) (rule RegionPlateRule, found bool) {
	regionID = strings.ToUpper(strings.TrimSpace(regionID))
	for _, custom := range Cfg.CustomRegions {
		if strings.EqualFold(custom.RegionID, regionID) {
			return custom, true
		}
	}
	rule, found = builtinRegions[regionID]
	return rule, found
}

// Regions lists every known region id, sorted.
func Regions() (regionIDs []string) {
	seen := map[string]bool{}
	for id := range builtinRegions {
		seen[id] = true
	}
	for _, custom := range Cfg.CustomRegions {
		seen[strings.ToUpper(custom.RegionID)] = true
	}
	for id := range seen {
		regionIDs = append(regionIDs, id)
	}
	sort.Strings(regionIDs)
	return regionIDs
}

// Validator checks text against one region's compiled rule. Safe for concurrent use.
type Validator struct {
	rule     RegionPlateRule
	patterns []*regexp.Regexp
	shapes   []string
}

func NewValidator(rule RegionPlateRule) (validator *Validator, e *xerr.Error) {
	if len(rule.Patterns) == 0 {
		return nil, xerr.NewError(fmt.Errorf("no patterns"), "region rule has no patterns", rule.RegionID)
	}
	if rule.MinLength <= 0 || rule.MaxLength < rule.MinLength {
		return nil, xerr.NewError(fmt.Errorf("bad length bounds %d..%d", rule.MinLength, rule.MaxLength), "region rule has invalid length bounds", rule.RegionID)
	}

	validator = &Validator{rule: rule}
	for _, pattern := range rule.Patterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, xerr.NewError(err, "compile region pattern", pattern)
		}
		validator.patterns = append(validator.patterns, compiled)
	}

	validator.shapes = rule.Shapes
	if len(validator.shapes) == 0 {
		for _, pattern := range rule.Patterns {
			shape, ok := shapeFromPattern(pattern)
			if ok {
				validator.shapes = append(validator.shapes, shape)
			}
		}
	}
	return validator, nil
}

func (v *Validator) Rule() RegionPlateRule { return v.rule }

// Shapes returns the letter/digit layouts used for forced correction.
func (v *Validator) Shapes() []string { return v.shapes }

/*
IsValidPlate normalizes text (trim, uppercase, no spaces or dashes), checks the
length bounds and returns true when any of the region patterns match.
*/
func (v *Validator) IsValidPlate(text string) bool {
	if v == nil {
		return false
	}
	normalized := NormalizePlate(text)
	if len(normalized) < v.rule.MinLength || len(normalized) > v.rule.MaxLength {
		return false
	}
	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return true
		}
	}
	return false
}

var (
	validatorCacheMu sync.Mutex
	validatorCache   = map[string]*Validator{}
)

func resetValidatorCache() {
	validatorCacheMu.Lock()
	validatorCache = map[string]*Validator{}
	validatorCacheMu.Unlock()
}

/*
ValidatorFor returns the cached validator for regionID.

An empty or unknown region falls back to the configured default region; the
returned id is the region actually used.
*/
func ValidatorFor(regionID string) (validator *Validator, usedRegionID string, e *xerr.Error) {
	usedRegionID = strings.ToUpper(strings.TrimSpace(regionID))
	if usedRegionID == "" {
		usedRegionID = strings.ToUpper(Cfg.Region)
	}

	rule, found := LookupRegion(usedRegionID)
	if !found {
		tl.Log(tl.Warning, palette.Yellow, "Region '%s' is %s, falling back to '%s'", usedRegionID, "unknown", Cfg.Region)
		usedRegionID = strings.ToUpper(Cfg.Region)
		rule, found = LookupRegion(usedRegionID)
		if !found {
			return nil, usedRegionID, xerr.NewError(fmt.Errorf("unknown region"), "default region is not defined", usedRegionID)
		}
	}

	validatorCacheMu.Lock()
	defer validatorCacheMu.Unlock()
	cached, ok := validatorCache[usedRegionID]
	if ok {
		return cached, usedRegionID, nil
	}
	validator, e = NewValidator(rule)
	if e != nil {
		return nil, usedRegionID, e
	}
	validatorCache[usedRegionID] = validator
	return validator, usedRegionID, nil
}

var shapeTokenRegexp = regexp.MustCompile(`\[A-Z\](?:\{(\d)\})?|\\d(?:\{(\d)\})?`)

/*
shapeFromPattern turns simple anchored patterns such as ^[A-Z]{3}\d{4}$ into
"LLLDDDD". Anything beyond letter and digit runs is not a shape.
*/
func shapeFromPattern(pattern string) (shape string, ok bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$")
	if body == "" {
		return "", false
	}

	var builder strings.Builder
	consumed := 0
	for _, match := range shapeTokenRegexp.FindAllStringSubmatchIndex(body, -1) {
		if match[0] != consumed {
			return "", false
		}
		consumed = match[1]

		token := body[match[0]:match[1]]
		class := "D"
		countIndex := match[4]
		if strings.HasPrefix(token, "[A-Z]") {
			class = "L"
			countIndex = match[2]
		}
		count := 1
		if countIndex >= 0 {
			count = int(body[countIndex] - '0')
		}
		builder.WriteString(strings.Repeat(class, count))
	}
	if consumed != len(body) {
		return "", false
	}
	return builder.String(), true
}
