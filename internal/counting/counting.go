// Package counting pairs regions with predictions, filters them by
// confidence and physical size, and aggregates per-class counts and size
// distributions.
package counting

import (
	"fmt"
	"math"
	"sort"

	"go-plankton-inspector/internal/calibration"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config controls which organisms are counted.
type Config struct {
	// ConfidenceThreshold is copied from the classification section.
	ConfidenceThreshold  float64    `yaml:"-" json:"confidence_threshold"`
	SizeRangeMicrometers [2]float64 `yaml:"sizeRangeMicrometers" json:"size_range_um"`
	HistogramBins        int        `yaml:"histogramBins" json:"histogram_bins"`
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:  0.7,
		SizeRangeMicrometers: [2]float64{10, 1000},
		HistogramBins:        10,
	}
}

func (c Config) Validate() error {
	lo, hi := c.SizeRangeMicrometers[0], c.SizeRangeMicrometers[1]
	if lo < 0 || hi < lo || math.IsNaN(lo) || math.IsNaN(hi) {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("counting.sizeRangeMicrometers must satisfy 0 <= min <= max (got [%v, %v])", lo, hi), nil)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("confidence threshold must be in [0,1] (got %v)", c.ConfidenceThreshold), nil)
	}
	if c.HistogramBins < 1 {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("counting.histogramBins must be >= 1 (got %d)", c.HistogramBins), nil)
	}
	return nil
}

// Result holds the retained organisms and their aggregates.
type Result struct {
	CountsByClass    map[string]int
	Organisms        []models.Organism
	TotalCount       int
	SizeDistribution map[string]models.SizeStats
}

// CountAndSize keeps region/prediction pairs whose confidence reaches the
// threshold and whose equivalent diameter falls inside the size range.
// Organism IDs are region indices.
func CountAndSize(regions []models.Region, predictions []models.Prediction, conv calibration.Converter, cfg Config) (*Result, error) {
	if len(regions) != len(predictions) {
		return nil, apperrors.NewContractViolationError(
			fmt.Sprintf("predictions length %d does not match regions length %d", len(predictions), len(regions)), nil)
	}

	res := &Result{
		CountsByClass:    map[string]int{},
		Organisms:        []models.Organism{},
		SizeDistribution: map[string]models.SizeStats{},
	}
	sizes := map[string][]float64{}

	for i, r := range regions {
		p := predictions[i]
		if p.RegionIndex != i {
			return nil, apperrors.NewContractViolationError(
				fmt.Sprintf("predictions[%d].regionIndex is %d", i, p.RegionIndex), nil)
		}
		if p.Confidence < cfg.ConfidenceThreshold {
			continue
		}
		size := conv.ToMicrometers(calibration.EquivalentDiameterPixels(r.AreaPixels))
		if size < cfg.SizeRangeMicrometers[0] || size > cfg.SizeRangeMicrometers[1] {
			continue
		}
		res.Organisms = append(res.Organisms, models.Organism{
			ID:                  i,
			ClassName:           p.ClassName,
			Confidence:          p.Confidence,
			AreaPixels:          r.AreaPixels,
			SizeMicrometers:     size,
			CentroidPixel:       r.CentroidPixel,
			CentroidMicrometers: conv.PointToMicrometers(r.CentroidPixel),
		})
		res.CountsByClass[p.ClassName]++
		sizes[p.ClassName] = append(sizes[p.ClassName], size)
	}

	res.TotalCount = len(res.Organisms)
	for class, s := range sizes {
		res.SizeDistribution[class] = sizeStats(s, cfg.HistogramBins)
	}
	return res, nil
}

// sizeStats summarizes non-empty sizes with population statistics and an
// equal-width histogram spanning [min, max].
func sizeStats(sizes []float64, bins int) models.SizeStats {
	sorted := append([]float64(nil), sizes...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	mean, std := stat.PopMeanStdDev(sorted, nil)

	edges := make([]float64, bins+1)
	if lo == hi {
		floats.Span(edges, lo-0.5, hi+0.5)
	} else {
		floats.Span(edges, lo, hi)
	}
	// The last divider must lie strictly above the largest value.
	dividers := append([]float64(nil), edges...)
	if dividers[bins] <= hi {
		dividers[bins] = math.Nextafter(hi, math.Inf(1))
	}

	return models.SizeStats{
		Count:     len(sorted),
		Mean:      mean,
		Std:       std,
		Min:       lo,
		Max:       hi,
		Histogram: stat.Histogram(nil, dividers, sorted, nil),
		BinEdges:  edges,
	}
}
