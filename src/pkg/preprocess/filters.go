package preprocess

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"condo-plates/src/pkg/util"
)

func toUint8(v float64) uint8 {
	return uint8(util.Clamp(math.Round(v), 0, 255))
}

// gaussianBlur blurs with the sigma OpenCV would pick for kernelSize.
func gaussianBlur(src *image.Gray, kernelSize int) *image.Gray {
	return ToGray(imaging.Blur(src, gaussianSigma(kernelSize)))
}

// sharpen applies [-1 -1 -1; -1 9 -1; -1 -1 -1].
func sharpen(src *image.Gray) *image.Gray {
	kernel := [9]float64{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	}
	return ToGray(imaging.Convolve3x3(src, kernel, nil))
}

// divideNormalize computes src*255/background, flattening uneven lighting.
func divideNormalize(src, background *image.Gray) *image.Gray {
	dst := image.NewGray(src.Rect)
	for i, value := range src.Pix {
		divisor := background.Pix[i]
		if divisor == 0 {
			continue
		}
		dst.Pix[i] = toUint8(float64(value) * 255 / float64(divisor))
	}
	return dst
}

/*
bilateral smooths flat areas while keeping character edges: each neighbour is
weighted by its distance and by how close its intensity is to the centre.
*/
func bilateral(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	radius := diameter / 2
	if radius < 1 {
		return src
	}
	width, height := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)

	type offset struct {
		dx, dy int
		weight float64
	}
	var offsets []offset
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			distance2 := float64(dx*dx + dy*dy)
			if distance2 > float64(radius*radius) {
				continue
			}
			offsets = append(offsets, offset{dx, dy, math.Exp(-distance2 / (2 * sigmaSpace * sigmaSpace))})
		}
	}
	var colorWeights [256]float64
	for diff := range colorWeights {
		colorWeights[diff] = math.Exp(-float64(diff*diff) / (2 * sigmaColor * sigmaColor))
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := int(src.Pix[y*src.Stride+x])
			var sum, norm float64
			for _, o := range offsets {
				nx, ny := x+o.dx, y+o.dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				neighbour := int(src.Pix[ny*src.Stride+nx])
				diff := neighbour - center
				if diff < 0 {
					diff = -diff
				}
				weight := o.weight * colorWeights[diff]
				sum += weight * float64(neighbour)
				norm += weight
			}
			dst.Pix[y*dst.Stride+x] = toUint8(sum / norm)
		}
	}
	return dst
}

// median replaces each pixel with the median of its (2r+1)^2 window.
func median(src *image.Gray, radius int) *image.Gray {
	if radius < 1 {
		return src
	}
	width, height := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	window := make([]int, 0, (2*radius+1)*(2*radius+1))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				ny := util.Clamp(y+dy, 0, height-1)
				for dx := -radius; dx <= radius; dx++ {
					nx := util.Clamp(x+dx, 0, width-1)
					window = append(window, int(src.Pix[ny*src.Stride+nx]))
				}
			}
			sort.Ints(window)
			dst.Pix[y*dst.Stride+x] = uint8(window[len(window)/2])
		}
	}
	return dst
}

/*
clahe equalises contrast per tile of a grid x grid layout with clipped
histograms, then blends neighbouring tile mappings bilinearly.
*/
func clahe(src *image.Gray, clipLimit float64, grid int) *image.Gray {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	if width == 0 || height == 0 {
		return src
	}
	grid = util.Clamp(grid, 1, min(width, height))
	tileWidth := (width + grid - 1) / grid
	tileHeight := (height + grid - 1) / grid
	tilesX := (width + tileWidth - 1) / tileWidth
	tilesY := (height + tileHeight - 1) / tileHeight

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileWidth, ty*tileHeight
			x1, y1 := min(x0+tileWidth, width), min(y0+tileHeight, height)
			luts[ty*tilesX+tx] = tileMapping(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(src.Rect)
	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)/float64(tileHeight) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		if ty0 < 0 {
			ty0, wy = 0, 0
		}
		if ty1 > tilesY-1 {
			ty1 = tilesY - 1
		}
		if ty0 > tilesY-1 {
			ty0 = tilesY - 1
		}

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/float64(tileWidth) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			if tx0 < 0 {
				tx0, wx = 0, 0
			}
			if tx1 > tilesX-1 {
				tx1 = tilesX - 1
			}
			if tx0 > tilesX-1 {
				tx0 = tilesX - 1
			}

			value := src.Pix[y*src.Stride+x]
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][value]) + wx*float64(luts[ty0*tilesX+tx1][value])
			bottom := (1-wx)*float64(luts[ty1*tilesX+tx0][value]) + wx*float64(luts[ty1*tilesX+tx1][value])
			dst.Pix[y*dst.Stride+x] = toUint8((1-wy)*top + wy*bottom)
		}
	}
	return dst
}

func tileMapping(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) (lut [256]uint8) {
	var histogram [256]int
	area := (x1 - x0) * (y1 - y0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			histogram[src.Pix[y*src.Stride+x]]++
		}
	}

	if clipLimit > 0 {
		clip := max(1, int(clipLimit*float64(area)/256))
		excess := 0
		for i, count := range histogram {
			if count > clip {
				excess += count - clip
				histogram[i] = clip
			}
		}
		share, remainder := excess/256, excess%256
		for i := range histogram {
			histogram[i] += share
			if i < remainder {
				histogram[i]++
			}
		}
	}

	cumulative := 0
	for i, count := range histogram {
		cumulative += count
		lut[i] = toUint8(float64(cumulative) * 255 / float64(area))
	}
	return lut
}

// adaptiveThreshold is a Gaussian weighted local threshold: white where pixel > mean - c.
func adaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	mean := gaussianBlur(src, blockSize)
	dst := image.NewGray(src.Rect)
	for i, value := range src.Pix {
		if float64(value) > float64(mean.Pix[i])-c {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// otsuValue picks the global threshold that maximises between-class variance.
func otsuValue(src *image.Gray) uint8 {
	var histogram [256]int
	for _, value := range src.Pix {
		histogram[value]++
	}
	total := len(src.Pix)
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, count := range histogram {
		sumAll += float64(i * count)
	}

	var sumBackground, bestVariance float64
	weightBackground := 0
	best := 0
	for t, count := range histogram {
		weightBackground += count
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(t * count)
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sumAll - sumBackground) / float64(weightForeground)
		variance := float64(weightBackground) * float64(weightForeground) * (meanBackground - meanForeground) * (meanBackground - meanForeground)
		if variance > bestVariance {
			bestVariance = variance
			best = t
		}
	}
	return uint8(best)
}

func threshold(src *image.Gray, level uint8) *image.Gray {
	dst := image.NewGray(src.Rect)
	for i, value := range src.Pix {
		if value > level {
			dst.Pix[i] = 255
		}
	}
	return dst
}

/*
morph runs a size x size rectangular dilation (max) or erosion (min) with the
anchor at size/2. Out of image pixels are ignored.
*/
func morph(src *image.Gray, size int, dilate bool) *image.Gray {
	if size < 2 {
		return src
	}
	width, height := src.Rect.Dx(), src.Rect.Dy()
	anchor := size / 2
	dst := image.NewGray(src.Rect)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			result := src.Pix[y*src.Stride+x]
			for ky := 0; ky < size; ky++ {
				ny := y + ky - anchor
				if ny < 0 || ny >= height {
					continue
				}
				for kx := 0; kx < size; kx++ {
					nx := x + kx - anchor
					if nx < 0 || nx >= width {
						continue
					}
					value := src.Pix[ny*src.Stride+nx]
					if (dilate && value > result) || (!dilate && value < result) {
						result = value
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = result
		}
	}
	return dst
}

func morphClose(src *image.Gray, size int) *image.Gray {
	return morph(morph(src, size, true), size, false)
}

func morphOpen(src *image.Gray, size int) *image.Gray {
	return morph(morph(src, size, false), size, true)
}

func crop(src *image.Gray, rect image.Rectangle) *image.Gray {
	return ToGray(src.SubImage(rect.Intersect(src.Rect)))
}
