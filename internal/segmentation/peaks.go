package segmentation

import (
	"math"
	"sort"
)

type peak struct {
	pixels []int
	value  float64
	cx, cy float64
	comp   int32
}

// findMarkers labels watershed seeds 1..n. A seed is a plateau of pixels
// whose distance equals the maximum over a (2r+1)^2 window of the same
// component. Low peaks are dropped by ratio, and a peak lying inside the
// inscribed disk of a higher kept peak of the same component is dropped too.
func findMarkers(dist []float64, components []int32, nComponents, w, h int, cfg Config) ([]int32, int) {
	compMax := make([]float64, nComponents+1)
	for i, c := range components {
		if c > 0 && dist[i] > compMax[c] {
			compMax[c] = dist[i]
		}
	}

	r := cfg.PeakRadius
	isPeak := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := components[i]
			if c == 0 || dist[i] < cfg.PeakMinRatio*compMax[c] {
				continue
			}
			isPeak[i] = windowMax(dist, components, w, h, x, y, r, c) == dist[i]
		}
	}

	peaks := groupPeaks(isPeak, dist, components, w)
	sort.SliceStable(peaks, func(a, b int) bool { return peaks[a].value > peaks[b].value })

	markers := make([]int32, w*h)
	var kept []*peak
	for _, p := range peaks {
		if covered(p, kept) {
			continue
		}
		kept = append(kept, p)
		label := int32(len(kept))
		for _, i := range p.pixels {
			markers[i] = label
		}
	}
	return markers, len(kept)
}

func windowMax(dist []float64, components []int32, w, h, x, y, r int, c int32) float64 {
	best := 0.0
	for ny := y - r; ny <= y+r; ny++ {
		if ny < 0 || ny >= h {
			continue
		}
		for nx := x - r; nx <= x+r; nx++ {
			if nx < 0 || nx >= w {
				continue
			}
			j := ny*w + nx
			if components[j] == c && dist[j] > best {
				best = dist[j]
			}
		}
	}
	return best
}

// groupPeaks merges 8-connected peak pixels into plateaus, in raster order.
func groupPeaks(isPeak []bool, dist []float64, components []int32, w int) []*peak {
	h := len(isPeak) / w
	seen := make([]bool, len(isPeak))
	var peaks []*peak

	for start, ok := range isPeak {
		if !ok || seen[start] {
			continue
		}
		p := &peak{value: dist[start], comp: components[start]}
		seen[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			p.pixels = append(p.pixels, i)
			x, y := i%w, i/w
			p.cx += float64(x)
			p.cy += float64(y)
			for _, d := range neighbors8 {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if isPeak[j] && !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}
		n := float64(len(p.pixels))
		p.cx /= n
		p.cy /= n
		peaks = append(peaks, p)
	}
	return peaks
}

func covered(p *peak, kept []*peak) bool {
	for _, k := range kept {
		if k.comp != p.comp {
			continue
		}
		if math.Hypot(p.cx-k.cx, p.cy-k.cy) < k.value {
			return true
		}
	}
	return false
}
