//go:build !opencv

package preprocess

import (
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// NewOpenCV falls back to the imaging backend in builds without the opencv tag.
func NewOpenCV() Preprocessor {
	tl.Log(tl.Warning, palette.Yellow, "Backend '%s' needs a build with %s, using '%s'", BackendOpenCV, "-tags opencv", BackendImaging)
	return NewImaging()
}
