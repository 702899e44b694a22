package quality

import (
	"image"
	"image/color"
	"testing"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 200})
			} else {
				img.SetGray(x, y, color.Gray{Y: 50})
			}
		}
	}
	return img
}

func TestAssess(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		img         image.Image
		blurry      bool
		overexposed bool
		tooDark     bool
	}{
		{"sharp texture", checkerboard(20, 20), false, false, false},
		{"flat gray is blurry", uniform(20, 20, 128), true, false, false},
		{"saturated frame", uniform(20, 20, 255), true, true, false},
		{"dark frame", uniform(20, 20, 10), true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Assess(tt.img, cfg)
			if q.Blurry != tt.blurry || q.Overexposed != tt.overexposed || q.TooDark != tt.tooDark {
				t.Errorf("Unexpected flags %+v", q)
			}
			flags := 0
			for _, f := range []bool{q.Blurry, q.Overexposed, q.TooDark} {
				if f {
					flags++
				}
			}
			if len(q.Warnings) != flags {
				t.Errorf("Expected %d warnings, got %v", flags, q.Warnings)
			}
		})
	}
}

func TestAssessMeasurements(t *testing.T) {
	q := Assess(checkerboard(10, 10), DefaultConfig())
	if q.MeanBrightness != 125 {
		t.Errorf("Expected mean 125, got %v", q.MeanBrightness)
	}
	// Every interior Laplacian response is +-600, so the variance is 600^2
	// scaled by n/(n-1) for the sample estimator.
	if q.FocusVariance < 360000 {
		t.Errorf("Expected large focus variance, got %v", q.FocusVariance)
	}

	if q := Assess(image.NewGray(image.Rect(0, 0, 2, 2)), DefaultConfig()); q.FocusVariance != 0 {
		t.Errorf("Expected zero variance for tiny frame, got %v", q.FocusVariance)
	}
	if q := Assess(image.NewGray(image.Rect(0, 0, 0, 0)), DefaultConfig()); q.Blurry || len(q.Warnings) != 0 {
		t.Errorf("Expected empty assessment for empty frame, got %+v", q)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.MaxClippedFraction = 2
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for clipped fraction > 1")
	}
}
