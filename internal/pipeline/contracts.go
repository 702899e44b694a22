package pipeline

import (
	"fmt"
	"math"

	"go-plankton-inspector/internal/analytics"
	"go-plankton-inspector/internal/counting"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/segmentation"
	"go-plankton-inspector/pkg/models"
)

func violation(stage State, format string, args ...interface{}) error {
	return apperrors.NewContractViolationError(fmt.Sprintf(format, args...), nil).WithStage(string(stage))
}

// checkRegions enforces the region contract: area bounds, mask/area
// agreement, and boxes that lie in the image and contain their mask.
func checkRegions(regions []models.Region, width, height int, cfg segmentation.Config) error {
	if regions == nil {
		return violation(StateSegmenting, "regions is nil")
	}
	for i, r := range regions {
		b := r.BoundingBox
		switch {
		case r.AreaPixels < cfg.MinAreaPixels || r.AreaPixels > cfg.MaxAreaPixels:
			return violation(StateSegmenting, "regions[%d].areaPixels %d outside [%d, %d]", i, r.AreaPixels, cfg.MinAreaPixels, cfg.MaxAreaPixels)
		case b.Empty() || b.X < 0 || b.Y < 0 || b.X+b.Width > width || b.Y+b.Height > height:
			return violation(StateSegmenting, "regions[%d].boundingBox %+v outside %dx%d image", i, b, width, height)
		case r.Mask.Width != width || r.Mask.Height != height:
			return violation(StateSegmenting, "regions[%d].mask is %dx%d, image is %dx%d", i, r.Mask.Width, r.Mask.Height, width, height)
		case !within(r.Mask.Box, b):
			return violation(StateSegmenting, "regions[%d].mask extends past its boundingBox", i)
		case r.Mask.Count() != r.AreaPixels:
			return violation(StateSegmenting, "regions[%d].areaPixels %d != mask count %d", i, r.AreaPixels, r.Mask.Count())
		case !b.Contains(int(r.CentroidPixel.X), int(r.CentroidPixel.Y)):
			return violation(StateSegmenting, "regions[%d].centroidPixel outside boundingBox", i)
		}
	}
	return nil
}

func within(inner, outer models.BoundingBox) bool {
	if inner.Empty() {
		return true
	}
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y+inner.Height <= outer.Y+outer.Height
}

// checkPredictions enforces one prediction per region, in region order,
// with a known class, a valid confidence and a descending top-K list.
func checkPredictions(preds []models.Prediction, nRegions int, classNames []string, topK int) error {
	if len(preds) != nRegions {
		return violation(StateClassifying, "predictions length %d != regions length %d", len(preds), nRegions)
	}
	known := make(map[string]bool, len(classNames))
	for _, c := range classNames {
		known[c] = true
	}
	for i, p := range preds {
		switch {
		case p.RegionIndex != i:
			return violation(StateClassifying, "predictions[%d].regionIndex is %d", i, p.RegionIndex)
		case !known[p.ClassName]:
			return violation(StateClassifying, "predictions[%d].className %q not in vocabulary", i, p.ClassName)
		case !unitInterval(p.Confidence):
			return violation(StateClassifying, "predictions[%d].confidence %v outside [0,1]", i, p.Confidence)
		case len(p.TopK) == 0 || len(p.TopK) > topK:
			return violation(StateClassifying, "predictions[%d].topK has length %d, limit %d", i, len(p.TopK), topK)
		case p.TopK[0].ClassName != p.ClassName:
			return violation(StateClassifying, "predictions[%d].topK[0] is %q, className is %q", i, p.TopK[0].ClassName, p.ClassName)
		}
		for k := 1; k < len(p.TopK); k++ {
			if p.TopK[k].Score > p.TopK[k-1].Score {
				return violation(StateClassifying, "predictions[%d].topK not descending at %d", i, k)
			}
		}
	}
	return nil
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// checkCounts enforces that counts are positive, sum to the organism count,
// and that organisms reference distinct regions in detection order.
func checkCounts(res *counting.Result, nRegions int) error {
	if res == nil || res.CountsByClass == nil || res.Organisms == nil {
		return violation(StateCounting, "counting result is incomplete")
	}
	sum := 0
	for class, n := range res.CountsByClass {
		if n <= 0 {
			return violation(StateCounting, "countsByClass[%s] is %d", class, n)
		}
		sum += n
	}
	if sum != len(res.Organisms) || res.TotalCount != len(res.Organisms) {
		return violation(StateCounting, "countsByClass sums to %d, totalCount %d, organisms %d", sum, res.TotalCount, len(res.Organisms))
	}
	prev := -1
	for i, o := range res.Organisms {
		if o.ID <= prev || o.ID >= nRegions {
			return violation(StateCounting, "organisms[%d].id %d out of order or range", i, o.ID)
		}
		prev = o.ID
		if math.IsNaN(o.SizeMicrometers) || o.SizeMicrometers < 0 {
			return violation(StateCounting, "organisms[%d].sizeMicrometers is %v", i, o.SizeMicrometers)
		}
	}
	return nil
}

// checkAnalytics enforces composition and zero-sample invariants.
func checkAnalytics(res *analytics.Result, counts map[string]int) error {
	total := 0
	for _, n := range counts {
		total += n
	}
	d := res.Diversity
	if total == 0 {
		if d.Shannon != 0 || d.Simpson != 0 || d.Richness != 0 {
			return violation(StateAnalyzing, "diversity must be zero for an empty sample, got %+v", d)
		}
		return nil
	}
	if d.Richness != len(counts) {
		return violation(StateAnalyzing, "diversity.richness %d != observed classes %d", d.Richness, len(counts))
	}
	if math.IsNaN(d.Shannon) || d.Shannon < 0 || !unitInterval(d.Simpson) {
		return violation(StateAnalyzing, "diversity indices out of range: %+v", d)
	}
	var sum float64
	for _, v := range res.Composition {
		sum += v
	}
	if math.Abs(sum-100) > 1e-6 {
		return violation(StateAnalyzing, "composition sums to %v", sum)
	}
	for i, a := range res.BloomAlerts {
		if a.Count < a.Threshold {
			return violation(StateAnalyzing, "bloomAlerts[%d] count %d below threshold %d", i, a.Count, a.Threshold)
		}
	}
	return nil
}
