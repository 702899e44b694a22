package segmentation

import "go-plankton-inspector/pkg/models"

var neighbors8 = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// labelComponents assigns 8-connected foreground components labels 1..n in
// raster order of their first pixel. Background stays 0.
func labelComponents(fg *binaryMask) ([]int32, int) {
	w, h := fg.width, fg.height
	labels := make([]int32, w*h)
	var next int32
	queue := make([]int, 0, 64)

	for start := range fg.pix {
		if !fg.pix[start] || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			x, y := i%w, i/w
			for _, d := range neighbors8 {
				nx, ny := x+d[0], y+d[1]
				if !fg.at(nx, ny) {
					continue
				}
				j := ny*w + nx
				if labels[j] == 0 {
					labels[j] = next
					queue = append(queue, j)
				}
			}
		}
	}
	return labels, int(next)
}

type regionStats struct {
	minX, minY, maxX, maxY int
	area                   int
	sumX, sumY             float64
	border                 bool
}

// extractRegions builds regions from a label image. Regions are ordered by
// the raster position of their first pixel, then filtered by area and border policy.
func extractRegions(labels []int32, maxLabel, w, h int, cfg Config) []models.Region {
	order := make([]int, maxLabel+1)
	for i := range order {
		order[i] = -1
	}
	var stats []*regionStats

	for i, l := range labels {
		if l == 0 {
			continue
		}
		x, y := i%w, i/w
		idx := order[l]
		if idx < 0 {
			idx = len(stats)
			order[l] = idx
			stats = append(stats, &regionStats{minX: x, minY: y, maxX: x, maxY: y})
		}
		s := stats[idx]
		if x < s.minX {
			s.minX = x
		}
		if x > s.maxX {
			s.maxX = x
		}
		if y < s.minY {
			s.minY = y
		}
		if y > s.maxY {
			s.maxY = y
		}
		s.area++
		s.sumX += float64(x)
		s.sumY += float64(y)
		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			s.border = true
		}
	}

	// keep maps a stats index to its position in the output, or -1 when filtered.
	keep := make([]int, len(stats))
	regions := make([]models.Region, 0, len(stats))
	for i, s := range stats {
		keep[i] = -1
		if s.area < cfg.MinAreaPixels || s.area > cfg.MaxAreaPixels {
			continue
		}
		if cfg.ExcludeBorder && s.border {
			continue
		}
		box := models.BoundingBox{X: s.minX, Y: s.minY, Width: s.maxX - s.minX + 1, Height: s.maxY - s.minY + 1}
		keep[i] = len(regions)
		regions = append(regions, models.Region{
			Mask:          models.NewMask(w, h, box),
			BoundingBox:   box,
			CentroidPixel: models.Point{X: s.sumX / float64(s.area), Y: s.sumY / float64(s.area)},
			AreaPixels:    s.area,
			TouchesBorder: s.border,
		})
	}

	for i, l := range labels {
		if l == 0 {
			continue
		}
		if k := keep[order[l]]; k >= 0 {
			regions[k].Mask.Set(i%w, i/w)
		}
	}
	return regions
}
