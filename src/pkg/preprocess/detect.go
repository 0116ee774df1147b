package preprocess

import (
	"image"
	"sort"
)

type edgeComponent struct {
	label  int32
	bounds image.Rectangle
}

/*
findPlateRegion looks for the plate outline in a grayscale scene: blur, edge
map with hysteresis, connected edge components, then the largest component
box with a plate like aspect ratio, enough area and edges along most of its
border.
*/
func findPlateRegion(gray *image.Gray) (region image.Rectangle, found bool) {
	blurred := gaussianBlur(gray, Cfg.OtsuBlurKernel)
	edges := edgeMap(blurred, Cfg.CannyLow, Cfg.CannyHigh)
	labels, components := labelComponents(edges, gray.Rect.Dx())

	sort.SliceStable(components, func(i, j int) bool {
		return area(components[i].bounds) > area(components[j].bounds)
	})
	if len(components) > Cfg.PlateMaxContours {
		components = components[:Cfg.PlateMaxContours]
	}

	width := gray.Rect.Dx()
	for _, component := range components {
		box := component.bounds
		if box.Dy() == 0 {
			continue
		}
		aspect := float64(box.Dx()) / float64(box.Dy())
		if aspect < Cfg.PlateAspectMin || aspect > Cfg.PlateAspectMax {
			continue
		}
		if area(box) <= Cfg.PlateMinArea {
			continue
		}
		if borderCoverage(labels, width, component) < Cfg.PlateBorderCoverage {
			continue
		}
		return box, true
	}
	return image.Rectangle{}, false
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }

/*
edgeMap marks pixels whose L1 Sobel magnitude is above high, plus pixels above
low that connect to them.
*/
func edgeMap(src *image.Gray, low, high float64) []bool {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	magnitude := make([]float64, width*height)
	at := func(x, y int) float64 { return float64(src.Pix[y*src.Stride+x]) }

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) + at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			magnitude[y*width+x] = gx + gy
		}
	}

	edges := make([]bool, width*height)
	var stack []int
	for i, m := range magnitude {
		if m > high {
			edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if !edges[j] && magnitude[j] > low {
					edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

// labelComponents groups 8-connected edge pixels. Labels start at 1, 0 means background.
func labelComponents(edges []bool, width int) (labels []int32, components []edgeComponent) {
	labels = make([]int32, len(edges))
	height := len(edges) / width
	var stack []int

	for start, isEdge := range edges {
		if !isEdge || labels[start] != 0 {
			continue
		}
		label := int32(len(components) + 1)
		x, y := start%width, start/width
		bounds := image.Rect(x, y, x+1, y+1)

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := i%width, i/width
			bounds = bounds.Union(image.Rect(px, py, px+1, py+1))
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					j := ny*width + nx
					if edges[j] && labels[j] == 0 {
						labels[j] = label
						stack = append(stack, j)
					}
				}
			}
		}
		components = append(components, edgeComponent{label: label, bounds: bounds})
	}
	return labels, components
}

/*
borderCoverage is the share of positions along the four sides of the
component box that have a pixel of the component within a 2 pixel band.
*/
func borderCoverage(labels []int32, width int, component edgeComponent) float64 {
	const band = 2
	box := component.bounds
	height := len(labels) / width
	hasPixel := func(x0, y0, x1, y1 int) bool {
		for y := max(y0, 0); y <= min(y1, height-1); y++ {
			for x := max(x0, 0); x <= min(x1, width-1); x++ {
				if labels[y*width+x] == component.label {
					return true
				}
			}
		}
		return false
	}

	hits, samples := 0, 0
	top, bottom := box.Min.Y, box.Max.Y-1
	left, right := box.Min.X, box.Max.X-1
	for x := left; x <= right; x++ {
		samples += 2
		if hasPixel(x, top, x, top+band) {
			hits++
		}
		if hasPixel(x, bottom-band, x, bottom) {
			hits++
		}
	}
	for y := top; y <= bottom; y++ {
		samples += 2
		if hasPixel(left, y, left+band, y) {
			hits++
		}
		if hasPixel(right-band, y, right, y) {
			hits++
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(hits) / float64(samples)
}
