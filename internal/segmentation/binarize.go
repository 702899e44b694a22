package segmentation

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"
)

// binaryMask is a dense foreground grid in image-relative coordinates.
type binaryMask struct {
	width, height int
	pix           []bool
}

func newBinaryMask(w, h int) *binaryMask {
	return &binaryMask{width: w, height: h, pix: make([]bool, w*h)}
}

func (m *binaryMask) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.pix[y*m.width+x]
}

// luminance returns 8-bit gray values, row-major, relative to the image bounds.
func luminance(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
		}
	}
	return out
}

// otsuThreshold returns the gray level maximizing between-class variance, or
// -1 when the histogram has a single populated level.
func otsuThreshold(gray []uint8) int {
	hist := make([]float64, 256)
	for _, v := range gray {
		hist[v]++
	}
	levels := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}

	total := float64(len(gray))
	best, bestVar := -1, 0.0
	var w0 float64
	for t := 0; t < 255; t++ {
		w0 += hist[t]
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		mu0 := stat.Mean(levels[:t+1], hist[:t+1])
		mu1 := stat.Mean(levels[t+1:], hist[t+1:])
		v := w0 * w1 * (mu0 - mu1) * (mu0 - mu1)
		if v > bestVar {
			bestVar = v
			best = t
		}
	}
	return best
}

// binarize marks pixels darker than or equal to threshold as foreground.
// A negative threshold yields an empty mask.
func binarize(gray []uint8, w, h, threshold int) *binaryMask {
	m := newBinaryMask(w, h)
	if threshold < 0 {
		return m
	}
	for i, v := range gray {
		m.pix[i] = int(v) <= threshold
	}
	return m
}

// open applies n erosions then n dilations with a 3x3 square kernel.
// Out-of-image neighbors are ignored, so objects are not eroded from the frame edge.
func (m *binaryMask) open(n int) *binaryMask {
	out := m
	for i := 0; i < n; i++ {
		out = out.morph(true)
	}
	for i := 0; i < n; i++ {
		out = out.morph(false)
	}
	return out
}

func (m *binaryMask) morph(erode bool) *binaryMask {
	out := newBinaryMask(m.width, m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			out.pix[y*m.width+x] = m.window(x, y, erode)
		}
	}
	return out
}

// window reports whether every (all) or any (!all) in-bounds 3x3 neighbor is set.
func (m *binaryMask) window(x, y int, all bool) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= m.width || ny >= m.height {
				continue
			}
			v := m.pix[ny*m.width+nx]
			if all && !v {
				return false
			}
			if !all && v {
				return true
			}
		}
	}
	return all
}
