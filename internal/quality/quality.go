// Package quality scores a microscope frame for focus and exposure. The
// checks are advisory: a poor frame is still analyzed, with warnings attached.
package quality

import (
	"fmt"
	"image"
	"image/color"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// Config holds the thresholds a frame is judged against.
type Config struct {
	MinFocusVariance   float64 `yaml:"minFocusVariance" json:"min_focus_variance"`
	MaxClippedFraction float64 `yaml:"maxClippedFraction" json:"max_clipped_fraction"`
	MinMeanBrightness  float64 `yaml:"minMeanBrightness" json:"min_mean_brightness"`
}

func DefaultConfig() Config {
	return Config{
		MinFocusVariance:   100,
		MaxClippedFraction: 0.25,
		MinMeanBrightness:  40,
	}
}

func (c Config) Validate() error {
	if c.MinFocusVariance < 0 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("quality.minFocusVariance must be >= 0 (got %v)", c.MinFocusVariance), nil)
	}
	if c.MaxClippedFraction < 0 || c.MaxClippedFraction > 1 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("quality.maxClippedFraction must be in [0,1] (got %v)", c.MaxClippedFraction), nil)
	}
	if c.MinMeanBrightness < 0 || c.MinMeanBrightness > 255 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("quality.minMeanBrightness must be in [0,255] (got %v)", c.MinMeanBrightness), nil)
	}
	return nil
}

// Assess measures img. Frames smaller than 3x3 get zero focus variance.
func Assess(img image.Image, cfg Config) models.FrameQuality {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return models.FrameQuality{}
	}

	gray := make([]float64, w*h)
	clipped := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			gray[y*w+x] = float64(v)
			if v == 255 {
				clipped++
			}
		}
	}

	q := models.FrameQuality{
		FocusVariance:   laplacianVariance(gray, w, h),
		MeanBrightness:  stat.Mean(gray, nil),
		ClippedFraction: float64(clipped) / float64(w*h),
	}
	q.Blurry = q.FocusVariance < cfg.MinFocusVariance
	q.Overexposed = q.ClippedFraction > cfg.MaxClippedFraction
	q.TooDark = q.MeanBrightness < cfg.MinMeanBrightness

	if q.Blurry {
		q.Warnings = append(q.Warnings, fmt.Sprintf("frame may be out of focus (laplacian variance %.1f < %.1f)", q.FocusVariance, cfg.MinFocusVariance))
	}
	if q.Overexposed {
		q.Warnings = append(q.Warnings, fmt.Sprintf("%.0f%% of pixels are saturated", q.ClippedFraction*100))
	}
	if q.TooDark {
		q.Warnings = append(q.Warnings, fmt.Sprintf("frame is underexposed (mean brightness %.1f)", q.MeanBrightness))
	}
	return q
}

// laplacianVariance applies the 4-neighbour Laplacian kernel
// [0 1 0; 1 -4 1; 0 1 0] to interior pixels and returns the variance.
func laplacianVariance(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	data := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			data = append(data, gray[i-w]+gray[i+w]+gray[i-1]+gray[i+1]-4*gray[i])
		}
	}
	return stat.Variance(data, nil)
}
