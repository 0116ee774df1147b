// Package platetest renders synthetic plate photos for tests.
package platetest

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphWidth  = 7
	glyphHeight = 13
	padding     = 6
)

/*
RenderPlate draws text in black on a white plate with a black outline, then
scales it up by scale with nearest neighbour so glyph edges stay sharp.
*/
func RenderPlate(text string, scale int) *image.Gray {
	width := glyphWidth*len(text) + 2*padding
	height := glyphHeight + 2*padding
	plate := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(plate, plate.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)

	for x := 0; x < width; x++ {
		plate.SetGray(x, 0, color.Gray{Y: 0})
		plate.SetGray(x, height-1, color.Gray{Y: 0})
	}
	for y := 0; y < height; y++ {
		plate.SetGray(0, y, color.Gray{Y: 0})
		plate.SetGray(width-1, y, color.Gray{Y: 0})
	}

	drawer := &font.Drawer{
		Dst:  plate,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(padding, padding+basicfont.Face7x13.Ascent),
	}
	drawer.DrawString(text)

	if scale <= 1 {
		return plate
	}
	scaled := imaging.Resize(plate, width*scale, height*scale, imaging.NearestNeighbor)
	gray := image.NewGray(scaled.Bounds())
	draw.Draw(gray, gray.Rect, scaled, image.Point{}, draw.Src)
	return gray
}

/*
RenderScene places a plate rendered at scale in the middle of a darker
canvas of canvasWidth x canvasHeight, as a camera would see it on a car.
*/
func RenderScene(text string, scale, canvasWidth, canvasHeight int) (scene *image.Gray, plateBounds image.Rectangle) {
	plate := RenderPlate(text, scale)
	scene = image.NewGray(image.Rect(0, 0, canvasWidth, canvasHeight))
	draw.Draw(scene, scene.Rect, image.NewUniform(color.Gray{Y: 90}), image.Point{}, draw.Src)

	offset := image.Pt((canvasWidth-plate.Rect.Dx())/2, (canvasHeight-plate.Rect.Dy())/2)
	plateBounds = plate.Rect.Add(offset)
	draw.Draw(scene, plateBounds, plate, image.Point{}, draw.Src)
	return scene, plateBounds
}

func EncodePNG(img image.Image) []byte {
	var buffer bytes.Buffer
	_ = png.Encode(&buffer, img)
	return buffer.Bytes()
}

func EncodeJPEG(img image.Image) []byte {
	var buffer bytes.Buffer
	_ = jpeg.Encode(&buffer, img, &jpeg.Options{Quality: 92})
	return buffer.Bytes()
}
