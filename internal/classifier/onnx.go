//go:build opencv

package classifier

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ONNXModel runs an ONNX network through OpenCV's DNN module. gocv.Net is
// not safe for concurrent use, so the adapter serializes calls.
type ONNXModel struct {
	net       gocv.Net
	name      string
	inputSize int
}

// NewONNXModel loads the network at path.
func NewONNXModel(path string, inputSize int) (*ONNXModel, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model from %s", path)
	}
	return &ONNXModel{net: net, name: path, inputSize: inputSize}, nil
}

func (m *ONNXModel) Name() string { return m.name }

func (m *ONNXModel) Predict(ctx context.Context, crops []image.Image) ([][]float64, error) {
	out := make([][]float64, 0, len(crops))
	for i, c := range crops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores, err := m.forward(c)
		if err != nil {
			return nil, fmt.Errorf("crop %d: %w", i, err)
		}
		out = append(out, scores)
	}
	return out, nil
}

func (m *ONNXModel) forward(crop image.Image) ([]float64, error) {
	mat, err := gocv.ImageToMatRGB(crop)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(m.inputSize, m.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	prob := m.net.Forward("")
	defer prob.Close()

	scores := make([]float64, prob.Total())
	for i := range scores {
		scores[i] = float64(prob.GetFloatAt(0, i))
	}
	return scores, nil
}

func (m *ONNXModel) Close() error {
	return m.net.Close()
}
