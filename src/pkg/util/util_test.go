package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.2, 0.0, 1.0))
	assert.Equal(t, 1.0, Clamp(1.7, 0.0, 1.0))
	assert.Equal(t, 0.42, Clamp(0.42, 0.0, 1.0))
	assert.Equal(t, 7, Clamp(7, 6, 10))
}

func TestMissingFlags(t *testing.T) {
	RequiredFlags = map[*string]string{}
	image := ""
	region := "BOLIVIA"
	config := " "
	RequiredFlag(&image, "image")
	RequiredFlag(&region, "-region")
	RequiredFlag(&config, "--config")

	assert.Equal(t, []string{"--config", "--image"}, MissingFlags())
}

func TestWaitOrDone(t *testing.T) {
	assert.True(t, WaitOrDone(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, WaitOrDone(ctx, time.Hour))
}

func TestPtr(t *testing.T) {
	p := Ptr(3)
	assert.Equal(t, 3, *p)
}
