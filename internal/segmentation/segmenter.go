// Package segmentation finds organism candidate regions in a microscope
// image. Two strategies share one contract: connected-component labeling of
// a thresholded foreground, and a marker-based watershed that separates
// touching organisms.
package segmentation

import (
	"fmt"
	"image"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

// Segmenter turns an image into regions whose area lies within the configured bounds.
type Segmenter interface {
	Segment(img image.Image) ([]models.Region, error)
	Name() string
}

// NewSegmenter validates cfg and returns the matching strategy. Watershed
// is only used when overlap handling is requested.
func NewSegmenter(cfg Config) (Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Method == MethodWatershed && cfg.HandleOverlaps {
		return &WatershedSegmenter{cfg: cfg}, nil
	}
	return &ThresholdSegmenter{cfg: cfg}, nil
}

// ThresholdSegmenter labels each 8-connected foreground component as one region.
type ThresholdSegmenter struct {
	cfg Config
}

func (s *ThresholdSegmenter) Name() string { return string(MethodThreshold) }

func (s *ThresholdSegmenter) Segment(img image.Image) ([]models.Region, error) {
	fg, err := foreground(img, s.cfg)
	if err != nil {
		return nil, err
	}
	labels, n := labelComponents(fg)
	return extractRegions(labels, n, fg.width, fg.height, s.cfg), nil
}

// WatershedSegmenter floods the foreground from distance-transform peaks.
type WatershedSegmenter struct {
	cfg Config
}

func (s *WatershedSegmenter) Name() string { return string(MethodWatershed) }

func (s *WatershedSegmenter) Segment(img image.Image) ([]models.Region, error) {
	fg, err := foreground(img, s.cfg)
	if err != nil {
		return nil, err
	}
	components, nComponents := labelComponents(fg)
	if nComponents == 0 {
		return []models.Region{}, nil
	}
	dist := distanceTransform(fg)
	markers, nMarkers := findMarkers(dist, components, nComponents, fg.width, fg.height, s.cfg)
	labels := flood(dist, markers, nMarkers, components, nComponents, fg)
	return extractRegions(labels, nMarkers+nComponents, fg.width, fg.height, s.cfg), nil
}

func foreground(img image.Image, cfg Config) (*binaryMask, error) {
	if img == nil {
		return nil, apperrors.NewSegmentationMalformedInputError("image is nil", nil)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.NewSegmentationMalformedInputError(
			fmt.Sprintf("image has invalid dimensions %dx%d", b.Dx(), b.Dy()), nil)
	}
	gray := luminance(img)
	var threshold int
	if cfg.FixedThreshold != nil {
		threshold = *cfg.FixedThreshold
	} else {
		threshold = otsuThreshold(gray)
	}
	fg := binarize(gray, b.Dx(), b.Dy(), threshold)
	return fg.open(cfg.OpenIterations), nil
}
