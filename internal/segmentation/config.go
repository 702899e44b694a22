package segmentation

import (
	"fmt"

	apperrors "go-plankton-inspector/internal/errors"
)

// Method selects the segmentation strategy.
type Method string

const (
	MethodThreshold Method = "threshold"
	MethodWatershed Method = "watershed"
)

// Config controls region segmentation.
type Config struct {
	Method         Method `yaml:"method" json:"method"`
	MinAreaPixels  int    `yaml:"minAreaPixels" json:"min_area_px"`
	MaxAreaPixels  int    `yaml:"maxAreaPixels" json:"max_area_px"`
	HandleOverlaps bool   `yaml:"handleOverlaps" json:"handle_overlaps"`

	// FixedThreshold replaces Otsu selection when set. Pixels with
	// luminance <= FixedThreshold are foreground.
	FixedThreshold *int `yaml:"fixedThreshold,omitempty" json:"fixed_threshold,omitempty"`
	// OpenIterations is the number of 3x3 erosions followed by as many dilations.
	OpenIterations int `yaml:"openIterations" json:"open_iterations"`
	// PeakRadius is the half-width of the window used to find distance maxima.
	PeakRadius int `yaml:"peakRadius" json:"peak_radius"`
	// PeakMinRatio drops seed peaks lower than this fraction of their component's maximum.
	PeakMinRatio float64 `yaml:"peakMinRatio" json:"peak_min_ratio"`
	// ExcludeBorder drops regions touching the image edge.
	ExcludeBorder bool `yaml:"excludeBorder" json:"exclude_border"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Method:         MethodWatershed,
		MinAreaPixels:  100,
		MaxAreaPixels:  50000,
		HandleOverlaps: true,
		OpenIterations: 2,
		PeakRadius:     3,
		PeakMinRatio:   0.3,
	}
}

// Validate reports the first invalid field as an InvalidConfig error.
func (c Config) Validate() error {
	switch c.Method {
	case MethodThreshold, MethodWatershed:
	default:
		return invalid("segmentation.method must be threshold or watershed, got %q", c.Method)
	}
	if c.MinAreaPixels <= 0 {
		return invalid("segmentation.minAreaPixels must be > 0 (got %d)", c.MinAreaPixels)
	}
	if c.MaxAreaPixels < c.MinAreaPixels {
		return invalid("segmentation.maxAreaPixels must be >= minAreaPixels (got %d < %d)", c.MaxAreaPixels, c.MinAreaPixels)
	}
	if c.FixedThreshold != nil && (*c.FixedThreshold < 0 || *c.FixedThreshold > 255) {
		return invalid("segmentation.fixedThreshold must be in [0,255] (got %d)", *c.FixedThreshold)
	}
	if c.OpenIterations < 0 {
		return invalid("segmentation.openIterations must be >= 0 (got %d)", c.OpenIterations)
	}
	if c.PeakRadius < 1 {
		return invalid("segmentation.peakRadius must be >= 1 (got %d)", c.PeakRadius)
	}
	if c.PeakMinRatio < 0 || c.PeakMinRatio > 1 {
		return invalid("segmentation.peakMinRatio must be in [0,1] (got %v)", c.PeakMinRatio)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperrors.NewInvalidConfigError(fmt.Sprintf(format, args...), nil)
}
