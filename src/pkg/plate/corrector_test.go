package plate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoliviaCorrector(t *testing.T) *Corrector {
	t.Helper()
	validator, _, e := ValidatorFor(RegionBolivia)
	require.Nil(t, e)
	return NewCorrector(validator, DefaultValueConfig().Scores)
}

func TestFixCommonErrors(t *testing.T) {
	corrector := newBoliviaCorrector(t)

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"digit first letters in digit run", "1O5SPHD", "1055PHD"},
		{"digit first digits in letter run", "18520HD", "1852OHD"},
		{"trailing U becomes D", "18S2PHU", "1852PHD"},
		{"leading B only in first two digit slots", "B2B4ABC", "82B4ABC"},
		{"leading A only at position zero", "A23AABC", "423AABC"},
		{"letter first", "5BCI2O4", "SBC1204"},
		{"letter first only maps its short table", "6BCI234", "6BC1234"},
		{"too few digits", "ABCDEFG", "ABCDEFG"},
		{"not seven characters", "1O5SPH", "1O5SPH"},
		{"lowercase is uppercased", "1o52phd", "1052PHD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, corrector.FixCommonErrors(tt.in))
		})
	}
}

func TestCorrect(t *testing.T) {
	corrector := newBoliviaCorrector(t)

	tests := []struct {
		name string
		in   string
		want []Scored
	}{
		{"B read for 8", "12B4ABC", []Scored{{Text: "1284ABC", Score: 100}}},
		{"already valid is untouched", "1852PHD", []Scored{{Text: "1852PHD", Score: 0}}},
		{"letter first interpretation", "ABC12O4", []Scored{{Text: "ABC1204", Score: 100}}},
		{"too few digits", "ABCDEF1", []Scored{{Text: "ABCDEF1", Score: 0}}},
		{"wrong length", "12B4ABCD", []Scored{{Text: "12B4ABCD", Score: 0}}},
		{"nothing validates", "1X2Y3ZW", []Scored{{Text: "1X2Y3ZW", Score: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := corrector.Correct(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Correct(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestCorrectIsIdempotentOnValidPlates(t *testing.T) {
	corrector := newBoliviaCorrector(t)
	for _, valid := range []string{"1234ABC", "ABC1234", "AB123C", "ABC123", "1852PHD", "1234SOB"} {
		got := corrector.Correct(valid)
		require.Len(t, got, 1)
		assert.Equal(t, valid, got[0].Text)
		assert.Equal(t, valid, corrector.FixCommonErrors(valid))
	}
}

func TestCorrectNeverReturnsMoreThanThree(t *testing.T) {
	corrector := newBoliviaCorrector(t)
	for _, in := range []string{"12B4ABC", "SO5O8BB", "O1S5ABC", "ABCO1S5"} {
		assert.LessOrEqual(t, len(corrector.Correct(in)), 3, in)
	}
}

func TestForceRegionalFormat(t *testing.T) {
	corrector := newBoliviaCorrector(t)

	tests := []struct {
		in     string
		forced string
		ok     bool
	}{
		{"SZB4PHD", "5284PHD", true},
		{"ABCTZ1O", "ABC7210", true},
		{"XSZB4PHD", "5284PHD", true},
		{"A8C123", "ABC123", true},
		{"AB1234", "ABI234", true},
		{"ABC123K", "", false},
		{"XAB123C", "", false},
		{"KABC123", "", false},
		{"WXYZQRS", "", false},
		{"12", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			forced, ok := corrector.ForceRegionalFormat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.forced, forced)
		})
	}
}

func TestFixCommonErrorsKeepsValidPlates(t *testing.T) {
	argentina, _, e := ValidatorFor(RegionArgentina)
	require.Nil(t, e)
	corrector := NewCorrector(argentina, DefaultValueConfig().Scores)

	assert.Equal(t, "AB123CD", corrector.FixCommonErrors("AB123CD"))
	assert.Equal(t, "1234ABU", newBoliviaCorrector(t).FixCommonErrors("1234abu"))
}

func TestEvaluateKeepsValidReading(t *testing.T) {
	valid, _ := newBoliviaCorrector(t).Evaluate("1234ABU", "normal+psm7")
	best, found := Best(valid)
	require.True(t, found)
	assert.Equal(t, "1234ABU", best.CorrectedText)
}

func TestEvaluate(t *testing.T) {
	corrector := newBoliviaCorrector(t)

	valid, pool := corrector.Evaluate(" 12B4-ABC\n", "normal+psm7")
	require.NotEmpty(t, valid)
	best, found := Best(valid)
	require.True(t, found)
	assert.Equal(t, "1284ABC", best.CorrectedText)
	assert.Equal(t, "normal+psm7", best.StrategyLabel)
	assert.Equal(t, 100, best.Score)
	assert.NotEmpty(t, pool)

	valid, pool = corrector.Evaluate("SZB4PHD", "otsu+psm7")
	assert.Empty(t, valid)
	require.Len(t, pool, 1)
	assert.Equal(t, "SZB4PHD", pool[0].CorrectedText)

	valid, pool = corrector.Evaluate("|||", "original+psm8")
	assert.Empty(t, valid)
	assert.Empty(t, pool)
}

func TestBestPrefersScoreThenLength(t *testing.T) {
	candidates := []Candidate{
		{CorrectedText: "ABC123", IsValid: true, Score: 90},
		{CorrectedText: "ABC1234", IsValid: true, Score: 90},
		{CorrectedText: "1234ABC", IsValid: true, Score: 100},
		{CorrectedText: "XXXXXXX", IsValid: false, Score: 100},
	}
	best, found := Best(candidates)
	require.True(t, found)
	assert.Equal(t, "1234ABC", best.CorrectedText)

	_, found = Best(nil)
	assert.False(t, found)
}
