//go:build !opencv

package classifier

import (
	"context"
	"errors"
	"image"
)

var errNoOpenCV = errors.New("ONNX models need a build with -tags opencv")

// ONNXModel is unavailable in builds without OpenCV.
type ONNXModel struct{}

func NewONNXModel(path string, inputSize int) (*ONNXModel, error) {
	return nil, errNoOpenCV
}

func (m *ONNXModel) Name() string { return "onnx-unavailable" }

func (m *ONNXModel) Predict(ctx context.Context, crops []image.Image) ([][]float64, error) {
	return nil, errNoOpenCV
}

func (m *ONNXModel) Close() error { return nil }
