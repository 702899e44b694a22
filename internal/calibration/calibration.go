// Package calibration converts pixel measurements into physical micrometers
// using the microscope's magnification and the camera sensor's pixel pitch.
package calibration

import (
	"fmt"
	"math"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

// Resolution returns micrometers per pixel: pitch / magnification.
func Resolution(magnification, sensorPixelPitchMicrometers float64) (float64, error) {
	if magnification <= 0 || math.IsNaN(magnification) || math.IsInf(magnification, 0) {
		return 0, apperrors.NewInvalidCalibrationError(
			fmt.Sprintf("magnification must be > 0, got %v", magnification), nil)
	}
	if sensorPixelPitchMicrometers <= 0 || math.IsNaN(sensorPixelPitchMicrometers) || math.IsInf(sensorPixelPitchMicrometers, 0) {
		return 0, apperrors.NewInvalidCalibrationError(
			fmt.Sprintf("sensor pixel pitch must be > 0, got %v", sensorPixelPitchMicrometers), nil)
	}
	return sensorPixelPitchMicrometers / magnification, nil
}

// PixelsToMicrometers converts a length in pixels to micrometers.
func PixelsToMicrometers(valuePixels, magnification, sensorPixelPitchMicrometers float64) (float64, error) {
	res, err := Resolution(magnification, sensorPixelPitchMicrometers)
	if err != nil {
		return 0, err
	}
	return valuePixels * res, nil
}

// MicrometersToPixels is the inverse of PixelsToMicrometers.
func MicrometersToPixels(valueMicrometers, magnification, sensorPixelPitchMicrometers float64) (float64, error) {
	res, err := Resolution(magnification, sensorPixelPitchMicrometers)
	if err != nil {
		return 0, err
	}
	return valueMicrometers / res, nil
}

// EquivalentDiameterPixels returns the diameter of the circle with the given area.
func EquivalentDiameterPixels(areaPixels int) float64 {
	return 2 * math.Sqrt(float64(areaPixels)/math.Pi)
}

// Converter is a validated calibration bound to one sample.
type Converter struct {
	resolution float64
}

// NewConverter validates c once so later conversions cannot fail.
func NewConverter(c models.Calibration) (Converter, error) {
	res, err := Resolution(c.Magnification, c.SensorPixelPitchMicrometers)
	if err != nil {
		return Converter{}, err
	}
	return Converter{resolution: res}, nil
}

// Resolution returns micrometers per pixel.
func (c Converter) Resolution() float64 { return c.resolution }

func (c Converter) ToMicrometers(px float64) float64 { return px * c.resolution }

func (c Converter) ToPixels(um float64) float64 { return um / c.resolution }

func (c Converter) PointToMicrometers(p models.Point) models.Point {
	return models.Point{X: p.X * c.resolution, Y: p.Y * c.resolution}
}
