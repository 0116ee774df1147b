package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPlateBolivia(t *testing.T) {
	validator, _, e := ValidatorFor(RegionBolivia)
	require.Nil(t, e)

	tests := []struct {
		text  string
		valid bool
	}{
		{"ABC1234", true},
		{"1234ABC", true},
		{"AB123C", true},
		{"ABC123", true},
		{"abc-1234", true},
		{" 1852 PHD ", true},
		{"AB1234", false},
		{"ABCD123", false},
		{"12345678", false},
		{"1234ABCD", false},
		{"", false},
		{"A1B2C3D", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.valid, validator.IsValidPlate(tt.text))
		})
	}
}

func TestIsValidPlateArgentina(t *testing.T) {
	validator, region, e := ValidatorFor("argentina")
	require.Nil(t, e)
	assert.Equal(t, RegionArgentina, region)

	assert.True(t, validator.IsValidPlate("AB123CD"))
	assert.True(t, validator.IsValidPlate("ABC123"))
	assert.False(t, validator.IsValidPlate("1234ABC"))
}

func TestValidatorForUnknownRegionFallsBack(t *testing.T) {
	validator, region, e := ValidatorFor("ATLANTIS")
	require.Nil(t, e)
	assert.Equal(t, RegionBolivia, region)
	assert.True(t, validator.IsValidPlate("1234ABC"))
}

func TestCustomRegionOverridesBuiltins(t *testing.T) {
	previous := Cfg
	t.Cleanup(func() {
		Cfg = previous
		resetValidatorCache()
	})

	Cfg.CustomRegions = []RegionPlateRule{{
		RegionID:  "PERU",
		Patterns:  []string{`^[A-Z]{3}\d{3}$`, `^[A-Z]\d[A-Z]\d{3}$`},
		MinLength: 6,
		MaxLength: 6,
	}}
	resetValidatorCache()

	assert.Contains(t, Regions(), "PERU")
	validator, region, e := ValidatorFor("peru")
	require.Nil(t, e)
	assert.Equal(t, "PERU", region)
	assert.True(t, validator.IsValidPlate("A1B234"))
	assert.False(t, validator.IsValidPlate("ABC1234"))
	assert.Equal(t, []string{"LLLDDD", "LDLDDD"}, validator.Shapes())
}

func TestNewValidatorRejectsBadRules(t *testing.T) {
	_, e := NewValidator(RegionPlateRule{RegionID: "EMPTY", MinLength: 6, MaxLength: 7})
	assert.NotNil(t, e)

	_, e = NewValidator(RegionPlateRule{RegionID: "BOUNDS", Patterns: []string{`^\d+$`}, MinLength: 7, MaxLength: 6})
	assert.NotNil(t, e)

	_, e = NewValidator(RegionPlateRule{RegionID: "REGEX", Patterns: []string{`^[A-Z`}, MinLength: 6, MaxLength: 7})
	assert.NotNil(t, e)
}

func TestShapeFromPattern(t *testing.T) {
	tests := []struct {
		pattern string
		shape   string
		ok      bool
	}{
		{`^[A-Z]{3}\d{4}$`, "LLLDDDD", true},
		{`^\d{4}[A-Z]{3}$`, "DDDDLLL", true},
		{`^[A-Z]{2}\d{3}[A-Z]$`, "LLDDDL", true},
		{`^[A-Z]\d[A-Z]\d{3}$`, "LDLDDD", true},
		{`^[A-Z]+\d*$`, "", false},
		{`^$`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			shape, ok := shapeFromPattern(tt.pattern)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.shape, shape)
		})
	}
}

func TestNormalizeAndClean(t *testing.T) {
	assert.Equal(t, "ABC1234", NormalizePlate(" abc-12 34 "))
	assert.Equal(t, "1852PHD", CleanOCRText("1852-phd\n"))
	assert.Equal(t, "", CleanOCRText("  --  "))
	assert.True(t, HasLettersAndDigits("12B4"))
	assert.False(t, HasLettersAndDigits("1234"))
}
