package validation

import (
	"fmt"
	"math"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

// Objective range supported by the instrument. Values outside it are
// almost always unit mistakes (e.g. 40 for a 4x objective).
const (
	MinMagnification = 0.7
	MaxMagnification = 4.5
	maxSampleIDLen   = 128
)

// ValidateCalibration checks request calibration before any image is fetched.
func ValidateCalibration(c models.Calibration) error {
	if math.IsNaN(c.Magnification) || c.Magnification < MinMagnification || c.Magnification > MaxMagnification {
		return apperrors.NewValidationError(
			fmt.Sprintf("magnification must be between %.1f and %.1f (got %v)", MinMagnification, MaxMagnification, c.Magnification), nil)
	}
	if math.IsNaN(c.SensorPixelPitchMicrometers) || c.SensorPixelPitchMicrometers <= 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("sensor_pixel_pitch_um must be > 0 (got %v)", c.SensorPixelPitchMicrometers), nil)
	}
	return nil
}

// ValidateAnalyzeRequest checks everything in req except the image source.
func ValidateAnalyzeRequest(req models.AnalyzeRequest) error {
	if len(req.SampleID) > maxSampleIDLen {
		return apperrors.NewValidationError(fmt.Sprintf("sample_id longer than %d characters", maxSampleIDLen), nil)
	}
	if err := ValidateCalibration(models.Calibration{
		Magnification:               req.Magnification,
		SensorPixelPitchMicrometers: req.SensorPixelPitchMicrometers,
	}); err != nil {
		return err
	}
	for class, n := range req.PreviousCounts {
		if n < 0 {
			return apperrors.NewValidationError(fmt.Sprintf("previous_counts[%s] must be >= 0 (got %d)", class, n), nil)
		}
	}
	return nil
}
