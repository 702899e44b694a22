package segmentation

import "math"

// distanceTransform returns, for every foreground pixel, the Euclidean
// distance to the nearest background pixel. Pixels outside the image count
// as background. Uses the separable lower-envelope algorithm of
// Felzenszwalb and Huttenlocher.
func distanceTransform(fg *binaryMask) []float64 {
	w, h := fg.width, fg.height
	pw, ph := w+2, h+2
	grid := make([]float64, pw*ph)
	// far exceeds any squared distance inside the padded grid.
	far := float64(pw*pw + ph*ph)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fg.pix[y*w+x] {
				grid[(y+1)*pw+x+1] = far
			}
		}
	}

	n := pw
	if ph > n {
		n = ph
	}
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for x := 0; x < pw; x++ {
		for y := 0; y < ph; y++ {
			f[y] = grid[y*pw+x]
		}
		envelope(f[:ph], d[:ph], v, z)
		for y := 0; y < ph; y++ {
			grid[y*pw+x] = d[y]
		}
	}
	for y := 0; y < ph; y++ {
		row := grid[y*pw : (y+1)*pw]
		copy(f[:pw], row)
		envelope(f[:pw], d[:pw], v, z)
		copy(row, d[:pw])
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fg.pix[y*w+x] {
				out[y*w+x] = math.Sqrt(grid[(y+1)*pw+x+1])
			}
		}
	}
	return out
}

// envelope computes the 1D squared distance transform of f into d.
func envelope(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
