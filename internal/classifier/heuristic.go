package classifier

import (
	"context"
	"image"
	"image/color"
)

// HeuristicModel is a deterministic baseline used when no trained model is
// configured. It scores classes by how closely the crop's dark-pixel
// fraction matches evenly spaced per-class prototypes, and returns logits.
type HeuristicModel struct {
	classes int
}

func NewHeuristicModel(classes int) *HeuristicModel {
	return &HeuristicModel{classes: classes}
}

func (m *HeuristicModel) Name() string         { return "heuristic-baseline" }
func (m *HeuristicModel) ConcurrentSafe() bool { return true }

func (m *HeuristicModel) Predict(ctx context.Context, crops []image.Image) ([][]float64, error) {
	out := make([][]float64, len(crops))
	for i, c := range crops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := darkFraction(c)
		logits := make([]float64, m.classes)
		for k := range logits {
			proto := float64(k+1) / float64(m.classes+1)
			d := f - proto
			logits[k] = -12 * d * d
		}
		out[i] = logits
	}
	return out, nil
}

func darkFraction(img image.Image) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	dark := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 128 {
				dark++
			}
		}
	}
	return float64(dark) / float64(total)
}
