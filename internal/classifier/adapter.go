// Package classifier adapts a pluggable species model to segmented regions:
// it crops and resizes each region, runs one batched prediction under a
// timeout, and turns the scores into ranked predictions.
package classifier

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

// Adapter is shared by concurrent runs. The wrapped model is serialized
// unless it reports ConcurrentSafe.
type Adapter struct {
	model Model
	cfg   Config
}

// NewAdapter validates cfg and wraps model for shared use.
func NewAdapter(model Model, cfg Config) (*Adapter, error) {
	if model == nil {
		return nil, apperrors.NewInvalidConfigError("classifier model is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{model: Serialize(model), cfg: cfg}, nil
}

// ModelName reports the wrapped model's name.
func (a *Adapter) ModelName() string {
	return ModelName(a.model)
}

// Config returns the adapter's validated configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

type outcome struct {
	scores [][]float64
	err    error
}

// Classify returns one prediction per region, in region order. The model
// call is bounded by the configured timeout; cancelling ctx does not
// interrupt it.
func (a *Adapter) Classify(ctx context.Context, img image.Image, regions []models.Region) ([]models.Prediction, error) {
	if len(regions) == 0 {
		return []models.Prediction{}, nil
	}
	if img == nil {
		return nil, apperrors.NewClassifierUnavailableError("no image to crop regions from", nil)
	}

	crops := make([]image.Image, len(regions))
	for i, r := range regions {
		crops[i] = cropRegion(img, r.BoundingBox, a.cfg.CropPadding, a.cfg.InputSize)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout())
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("model panicked: %v", r)}
			}
		}()
		scores, err := a.model.Predict(callCtx, crops)
		done <- outcome{scores: scores, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		return nil, apperrors.NewClassifierTimeoutError(
			fmt.Sprintf("model did not answer within %s for %d crops", a.cfg.Timeout(), len(crops)), callCtx.Err())
	}
	if out.err != nil {
		if callCtx.Err() != nil {
			return nil, apperrors.NewClassifierTimeoutError("model call exceeded its timeout", out.err)
		}
		return nil, apperrors.NewClassifierUnavailableError("model prediction failed", out.err)
	}
	if len(out.scores) != len(crops) {
		return nil, apperrors.NewClassifierUnavailableError(
			fmt.Sprintf("model returned %d score vectors for %d crops", len(out.scores), len(crops)), nil)
	}

	predictions := make([]models.Prediction, len(regions))
	for i, raw := range out.scores {
		probs, err := normalize(raw, len(a.cfg.ClassNames))
		if err != nil {
			return nil, apperrors.NewClassifierUnavailableError(fmt.Sprintf("unusable scores for region %d", i), err)
		}
		predictions[i] = a.rank(i, probs)
	}
	return predictions, nil
}

func (a *Adapter) rank(regionIndex int, probs []float64) models.Prediction {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool { return probs[order[x]] > probs[order[y]] })

	k := a.cfg.TopK
	if k > len(order) {
		k = len(order)
	}
	top := make([]models.ClassScore, k)
	for i := 0; i < k; i++ {
		top[i] = models.ClassScore{ClassName: a.cfg.ClassNames[order[i]], Score: probs[order[i]]}
	}
	return models.Prediction{
		RegionIndex: regionIndex,
		ClassName:   top[0].ClassName,
		Confidence:  top[0].Score,
		TopK:        top,
	}
}

// normalize maps raw scores to a probability vector. Vectors with a
// negative entry are treated as logits and passed through softmax; other
// vectors are divided by their sum.
func normalize(raw []float64, n int) ([]float64, error) {
	if len(raw) != n {
		return nil, fmt.Errorf("expected %d scores, got %d", n, len(raw))
	}
	negative := false
	maxV := math.Inf(-1)
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("score %v is not finite", v)
		}
		if v < 0 {
			negative = true
		}
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, n)
	var sum float64
	if negative {
		for i, v := range raw {
			out[i] = math.Exp(v - maxV)
			sum += out[i]
		}
	} else {
		copy(out, raw)
		for _, v := range raw {
			sum += v
		}
		if sum == 0 {
			for i := range out {
				out[i] = 1 / float64(n)
			}
			return out, nil
		}
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}
