package recognize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-plates/src/pkg/preprocess"
)

func TestPassLabels(t *testing.T) {
	var labels []string
	for _, pass := range DefaultPasses() {
		labels = append(labels, pass.Label())
	}
	assert.Equal(t, []string{
		"normal+psm7", "normal+psm8", "normal+psm6",
		"aggressive+psm7", "aggressive+psm8",
		"otsu+psm7",
		"original+psm7", "original+psm8",
	}, labels)

	assert.Equal(t, "aggressive+psm7", Pass{Strategy: preprocess.StrategyAggressive, PSM: 7}.Label())
	assert.Equal(t, "shadow-aggressive+psm13", Pass{Strategy: preprocess.StrategyShadow, Aggressive: true, PSM: 13}.Label())
}

func TestPassesFromSpecs(t *testing.T) {
	passes, e := PassesFromSpecs(nil)
	require.Nil(t, e)
	assert.Equal(t, DefaultPasses(), passes)

	passes, e = PassesFromSpecs([]PassSpec{{Strategy: "plate_detect", PSM: 7}, {Strategy: "worn", Aggressive: true, PSM: 13, Confidence: 0.6}})
	require.Nil(t, e)
	assert.Equal(t, []Pass{
		{Strategy: preprocess.StrategyPlateDetect, PSM: 7},
		{Strategy: preprocess.StrategyWorn, Aggressive: true, PSM: 13, Confidence: 0.6},
	}, passes)

	for _, bad := range []PassSpec{
		{Strategy: "sepia", PSM: 7},
		{Strategy: "normal", PSM: 3},
		{Strategy: "normal", PSM: 7, Confidence: 1.5},
	} {
		_, e = PassesFromSpecs([]PassSpec{bad})
		assert.NotNil(t, e, "%+v", bad)
	}
}

func TestRunPassesPreprocessesEachVariantOnce(t *testing.T) {
	pre := newFakePreprocessor()
	engine := newFakeEngine(pre, map[string]string{"normal+psm7": " 1852 phd ", "otsu+psm7": "ABC-1234"})

	outputs := NewRunner(engine, pre, DefaultPasses(), 1).RunPasses(context.Background(), anyImage, nil)

	assert.Equal(t, int32(3), pre.preprocessCalls.Load()) // normal, aggressive, otsu
	assert.Equal(t, int32(1), pre.grayscaleCalls.Load())  // original
	require.Len(t, outputs, len(DefaultPasses()))

	for i, output := range outputs {
		assert.Equal(t, i, output.Index)
		assert.Equal(t, DefaultPasses()[i].Label(), output.Label)
	}
	assert.Equal(t, "1852 phd", outputs[0].RawText)
	assert.Equal(t, "1852PHD", outputs[0].CleanText)
	assert.Equal(t, "ABC1234", outputs[5].CleanText)
	assert.Empty(t, outputs[1].CleanText)
}

func TestRunPassesSkipsMissingVariantsAndFailures(t *testing.T) {
	pre := newFakePreprocessor()
	pre.fail = true
	engine := newFakeEngine(pre, nil)

	outputs := NewRunner(engine, pre, nil, 2).RunPasses(context.Background(), anyImage, nil)
	assert.Empty(t, outputs)
	assert.Equal(t, int32(0), engine.textCalls.Load())

	pre = newFakePreprocessor()
	engine = newFakeEngine(pre, nil)
	engine.failing["normal+psm8"] = true
	outputs = NewRunner(engine, pre, nil, 3).RunPasses(context.Background(), anyImage, nil)
	require.Len(t, outputs, len(DefaultPasses())-1)
	for _, output := range outputs {
		assert.NotEqual(t, "normal+psm8", output.Label)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	runner := NewRunner(newFakeEngine(nil, nil), newFakePreprocessor(), nil, 0)
	assert.Equal(t, 1, runner.workers)
	assert.Len(t, runner.Passes(), len(DefaultPasses()))
}
