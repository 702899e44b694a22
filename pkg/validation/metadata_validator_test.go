package validation

import (
	"math"
	"strings"
	"testing"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

func TestValidateAnalyzeRequest(t *testing.T) {
	valid := models.AnalyzeRequest{
		ImageURL:                    "https://example.com/frame.tif",
		SampleID:                    "station-4",
		Magnification:               2,
		SensorPixelPitchMicrometers: 1.5,
		PreviousCounts:              map[string]int{"Diatom": 4},
	}

	tests := []struct {
		name    string
		mutate  func(r *models.AnalyzeRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *models.AnalyzeRequest) {}},
		{name: "lowest magnification", mutate: func(r *models.AnalyzeRequest) { r.Magnification = MinMagnification }},
		{name: "highest magnification", mutate: func(r *models.AnalyzeRequest) { r.Magnification = MaxMagnification }},
		{name: "magnification zero", mutate: func(r *models.AnalyzeRequest) { r.Magnification = 0 }, wantErr: true},
		{name: "magnification too high", mutate: func(r *models.AnalyzeRequest) { r.Magnification = 40 }, wantErr: true},
		{name: "magnification NaN", mutate: func(r *models.AnalyzeRequest) { r.Magnification = math.NaN() }, wantErr: true},
		{name: "pitch zero", mutate: func(r *models.AnalyzeRequest) { r.SensorPixelPitchMicrometers = 0 }, wantErr: true},
		{name: "pitch negative", mutate: func(r *models.AnalyzeRequest) { r.SensorPixelPitchMicrometers = -1 }, wantErr: true},
		{name: "negative previous count", mutate: func(r *models.AnalyzeRequest) { r.PreviousCounts = map[string]int{"Diatom": -1} }, wantErr: true},
		{name: "long sample id", mutate: func(r *models.AnalyzeRequest) { r.SampleID = strings.Repeat("x", 200) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateAnalyzeRequest(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}
