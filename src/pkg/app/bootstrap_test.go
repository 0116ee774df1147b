package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-plates/src/pkg/provider"
	"condo-plates/src/pkg/vehicle"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"AZURE_CV_ENDPOINT", "AZURE_CV_SUBSCRIPTION_KEY", "AWS_REGION", "OPENAI_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestBuildProvidersSkipsUnconfigured(t *testing.T) {
	clearProviderEnv(t)
	providers := BuildProviders([]string{"azure", "rekognition", "openai", "carrier-pigeon", "none"})
	assert.Empty(t, providers)
}

func TestBuildProvidersKeepsOrder(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AZURE_CV_ENDPOINT", "https://example.cognitiveservices.azure.com")
	t.Setenv("AZURE_CV_SUBSCRIPTION_KEY", "key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	providers := BuildProviders(provider.ParseOrder("openai, azure"))
	assert.Equal(t, []string{provider.NameOpenAI, provider.NameAzure}, provider.Names(providers))
}

func TestBuildRecognizerWithoutCloud(t *testing.T) {
	recognizer, e := BuildRecognizer(false)
	require.Nil(t, e)
	status := recognizer.Status()
	assert.False(t, status.CloudEnabled)
	assert.NotEmpty(t, status.Passes)
}

func TestInitializeConfigsMissingFileKeepsDefaults(t *testing.T) {
	InitializeConfigs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, DefaultValueConfig(), Cfg)
}

func TestBuildGate(t *testing.T) {
	recognizer, e := BuildRecognizer(false)
	require.Nil(t, e)
	store, e := vehicle.Open(context.Background(), ":memory:")
	require.Nil(t, e)
	defer store.Close()

	assert.NotNil(t, BuildGate(recognizer, store, ""))
}
