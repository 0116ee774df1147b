package preprocess

import (
	"bytes"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
EnhanceForUpload prepares a photo for a cloud text detector: grayscale, 5x5
blur, CLAHE and a gaussian adaptive threshold, JPEG encoded. The image keeps
its original size.
*/
func EnhanceForUpload(imageBytes []byte) (enhanced []byte, e *xerr.Error) {
	img, e := DecodeImage(imageBytes)
	if e != nil {
		return nil, e
	}

	gray := gaussianBlur(ToGray(img), 5)
	gray = clahe(gray, Cfg.ClaheClipLimit, Cfg.ClaheTileGrid)
	gray = adaptiveThreshold(gray, Cfg.AdaptiveBlockSize, Cfg.AdaptiveC)

	var buffer bytes.Buffer
	err := imaging.Encode(&buffer, gray, imaging.JPEG, imaging.JPEGQuality(95))
	if err != nil {
		return nil, xerr.NewError(err, "encode enhanced upload", gray.Rect.String())
	}

	tl.Log(tl.Verbose, palette.Cyan, "Enhanced upload: %d bytes -> %d bytes", len(imageBytes), buffer.Len())
	return buffer.Bytes(), nil
}
