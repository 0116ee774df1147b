package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-plates/src/pkg/platetest"
)

func assertBinary(t *testing.T, img *image.Gray) {
	t.Helper()
	for _, value := range img.Pix {
		if value != 0 && value != 255 {
			t.Fatalf("pixel value %d is not binary", value)
		}
	}
}

func blackShare(img *image.Gray) float64 {
	black := 0
	for _, value := range img.Pix {
		if value == 0 {
			black++
		}
	}
	return float64(black) / float64(len(img.Pix))
}

func TestPreprocessNormalAndAggressive(t *testing.T) {
	plate := platetest.RenderPlate("1852PHD", 3) // 183x75, enlarged x2
	imageBytes := platetest.EncodePNG(plate)
	preprocessor := NewImaging()

	for _, aggressive := range []bool{false, true} {
		result := preprocessor.Preprocess(imageBytes, aggressive, StrategyNormal)
		require.NotNil(t, result)
		assert.Equal(t, 366, result.Rect.Dx())
		assert.Equal(t, 150, result.Rect.Dy())
		assertBinary(t, result)

		share := blackShare(result)
		assert.Greater(t, share, 0.02, "glyphs should survive thresholding")
		assert.Less(t, share, 0.6, "background should stay white")
	}
}

func TestPreprocessAggressiveAliasMatchesFlag(t *testing.T) {
	imageBytes := platetest.EncodePNG(platetest.RenderPlate("ABC1234", 4))
	preprocessor := NewImaging()

	viaAlias := preprocessor.Preprocess(imageBytes, false, StrategyAggressive)
	viaFlag := preprocessor.Preprocess(imageBytes, true, StrategyNormal)
	require.NotNil(t, viaAlias)
	assert.Equal(t, viaFlag.Pix, viaAlias.Pix)
}

func TestPreprocessResizeRules(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantWidth     int
	}{
		{"small images are doubled", 150, 60, 300},
		{"large images shrink to target", 800, 320, 400},
		{"mid sized images are kept", 300, 120, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, _ := platetest.RenderScene("12", 1, tt.width, tt.height)
			result := NewImaging().Preprocess(platetest.EncodePNG(scene), false, StrategyOtsu)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantWidth, result.Rect.Dx())
		})
	}
}

func TestPreprocessStrategies(t *testing.T) {
	imageBytes := platetest.EncodeJPEG(platetest.RenderPlate("1234ABC", 4))
	preprocessor := NewImaging()

	for _, strategy := range []Strategy{StrategyShadow, StrategyWorn, StrategyOtsu, StrategyPlateDetect} {
		t.Run(string(strategy), func(t *testing.T) {
			result := preprocessor.Preprocess(imageBytes, false, strategy)
			require.NotNil(t, result)
			assertBinary(t, result)
		})
	}
}

func TestPreprocessPlateDetectCrops(t *testing.T) {
	scene, plateBounds := platetest.RenderScene("1852PHD", 4, 500, 300)
	result := NewImaging().Preprocess(platetest.EncodePNG(scene), false, StrategyPlateDetect)
	require.NotNil(t, result)

	assert.InDelta(t, plateBounds.Dx(), result.Rect.Dx(), 10)
	assert.InDelta(t, plateBounds.Dy(), result.Rect.Dy(), 10)
}

func TestPreprocessOriginalIsPlainGrayscale(t *testing.T) {
	plate := platetest.RenderPlate("ABC123", 2)
	result := NewImaging().Preprocess(platetest.EncodePNG(plate), true, StrategyOriginal)
	require.NotNil(t, result)
	assert.Equal(t, plate.Pix, result.Pix)
}

func TestPreprocessUndecodableInput(t *testing.T) {
	preprocessor := NewImaging()
	garbage := []byte("definitely not an image")

	for _, strategy := range []Strategy{StrategyNormal, StrategyOtsu, StrategyOriginal} {
		assert.Nil(t, preprocessor.Preprocess(garbage, false, strategy))
	}
	assert.Nil(t, preprocessor.Grayscale(nil))
}

func TestParseStrategy(t *testing.T) {
	strategy, err := ParseStrategy(" Plate_Detect ")
	require.NoError(t, err)
	assert.Equal(t, StrategyPlateDetect, strategy)

	strategy, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyNormal, strategy)

	_, err = ParseStrategy("sepia")
	assert.Error(t, err)

	resolved, aggressive := StrategyAggressive.Resolve(false)
	assert.Equal(t, StrategyNormal, resolved)
	assert.True(t, aggressive)
}

func TestNewSelectsBackend(t *testing.T) {
	assert.Equal(t, BackendImaging, New("").Name())
	assert.Equal(t, BackendImaging, New("nope").Name())
}

func TestEncodePNG(t *testing.T) {
	encoded, e := EncodePNG(platetest.RenderPlate("AB", 1))
	require.Nil(t, e)
	assert.NotEmpty(t, encoded)

	_, e = EncodePNG(nil)
	assert.NotNil(t, e)
}

func TestEnhanceForUpload(t *testing.T) {
	img := platetest.RenderPlate("1852PHD", 3)
	enhanced, e := EnhanceForUpload(platetest.EncodePNG(img))
	require.Nil(t, e)

	decoded, e := DecodeImage(enhanced)
	require.Nil(t, e)
	assert.Equal(t, img.Bounds().Dx(), decoded.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), decoded.Bounds().Dy())

	_, e = EnhanceForUpload([]byte("not an image"))
	assert.NotNil(t, e)
}
