package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveImagesToProcess(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.jpeg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	images, e := resolveImagesToProcess(dir)
	require.Nil(t, e)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"), filepath.Join(dir, "b.JPG"), filepath.Join(dir, "c.jpeg"),
	}, images)

	images, e = resolveImagesToProcess(" " + filepath.Join(dir, "a.png") + " ")
	require.Nil(t, e)
	assert.Len(t, images, 1)

	_, e = resolveImagesToProcess(filepath.Join(dir, "notes.txt"))
	assert.NotNil(t, e)
	_, e = resolveImagesToProcess(filepath.Join(dir, "missing.png"))
	assert.NotNil(t, e)
	_, e = resolveImagesToProcess("  ")
	assert.NotNil(t, e)
}
