package counting

import (
	"math"
	"testing"

	"go-plankton-inspector/internal/calibration"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"
)

func unitConverter(t *testing.T) calibration.Converter {
	t.Helper()
	c, err := calibration.NewConverter(models.Calibration{Magnification: 1, SensorPixelPitchMicrometers: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return c
}

// diskArea returns the pixel area whose equivalent diameter is d.
func diskArea(d float64) int {
	return int(math.Round(math.Pi * d * d / 4))
}

func region(area int, cx, cy float64) models.Region {
	return models.Region{AreaPixels: area, CentroidPixel: models.Point{X: cx, Y: cy}}
}

func prediction(i int, class string, conf float64) models.Prediction {
	return models.Prediction{RegionIndex: i, ClassName: class, Confidence: conf}
}

func TestCountAndSizeFilters(t *testing.T) {
	regions := []models.Region{
		region(diskArea(20), 10, 10),  // kept
		region(diskArea(30), 40, 10),  // low confidence
		region(diskArea(5), 70, 10),   // too small
		region(diskArea(40), 100, 10), // kept
		region(diskArea(25), 130, 10), // kept
	}
	preds := []models.Prediction{
		prediction(0, "Copepod", 0.9),
		prediction(1, "Copepod", 0.5),
		prediction(2, "Diatom", 0.95),
		prediction(3, "Copepod", 0.7),
		prediction(4, "Diatom", 0.8),
	}

	res, err := CountAndSize(regions, preds, unitConverter(t), DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(res.Organisms) != 3 || res.TotalCount != 3 {
		t.Fatalf("Expected 3 organisms, got %d (total %d)", len(res.Organisms), res.TotalCount)
	}
	wantIDs := []int{0, 3, 4}
	for i, o := range res.Organisms {
		if o.ID != wantIDs[i] {
			t.Errorf("Organism %d: expected id %d, got %d", i, wantIDs[i], o.ID)
		}
	}
	if res.CountsByClass["Copepod"] != 2 || res.CountsByClass["Diatom"] != 1 {
		t.Errorf("Unexpected counts %v", res.CountsByClass)
	}
	sum := 0
	for _, c := range res.CountsByClass {
		sum += c
	}
	if sum != len(res.Organisms) {
		t.Errorf("Expected counts to sum to %d, got %d", len(res.Organisms), sum)
	}
	if math.Abs(res.Organisms[0].SizeMicrometers-20) > 0.2 {
		t.Errorf("Expected ~20um, got %v", res.Organisms[0].SizeMicrometers)
	}
}

func TestCountsOmitZeroClasses(t *testing.T) {
	regions := []models.Region{region(diskArea(20), 0, 0)}
	preds := []models.Prediction{prediction(0, "Copepod", 0.1)}

	res, err := CountAndSize(regions, preds, unitConverter(t), DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(res.CountsByClass) != 0 {
		t.Errorf("Expected no keys, got %v", res.CountsByClass)
	}
	if res.Organisms == nil {
		t.Error("Expected non-nil empty organism list")
	}
}

func TestCentroidMicrometers(t *testing.T) {
	conv, err := calibration.NewConverter(models.Calibration{Magnification: 2, SensorPixelPitchMicrometers: 4})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	regions := []models.Region{region(diskArea(20), 10, 30)}
	preds := []models.Prediction{prediction(0, "Diatom", 0.99)}

	res, err := CountAndSize(regions, preds, conv, DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	o := res.Organisms[0]
	if o.CentroidMicrometers.X != 20 || o.CentroidMicrometers.Y != 60 {
		t.Errorf("Expected centroid (20,60)um, got %+v", o.CentroidMicrometers)
	}
	if math.Abs(o.SizeMicrometers-40) > 0.4 {
		t.Errorf("Expected ~40um at 2um/px, got %v", o.SizeMicrometers)
	}
}

func TestSizeRangeIsInclusive(t *testing.T) {
	conv := unitConverter(t)
	area := 400
	size := calibration.EquivalentDiameterPixels(area)

	cfg := DefaultConfig()
	cfg.SizeRangeMicrometers = [2]float64{size, size}
	res, err := CountAndSize([]models.Region{region(area, 0, 0)}, []models.Prediction{prediction(0, "Diatom", 1)}, conv, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("Expected organism at the exact range bound to be kept")
	}
}

func TestMismatchedInputsAreContractViolations(t *testing.T) {
	conv := unitConverter(t)
	_, err := CountAndSize([]models.Region{region(100, 0, 0)}, nil, conv, DefaultConfig())
	if !apperrors.IsType(err, apperrors.ErrorTypeContractViolation) {
		t.Errorf("Expected contract_violation for length mismatch, got %v", err)
	}
	_, err = CountAndSize([]models.Region{region(100, 0, 0)}, []models.Prediction{prediction(3, "Diatom", 1)}, conv, DefaultConfig())
	if !apperrors.IsType(err, apperrors.ErrorTypeContractViolation) {
		t.Errorf("Expected contract_violation for index mismatch, got %v", err)
	}
}

func TestSizeStats(t *testing.T) {
	s := sizeStats([]float64{30, 10, 20, 40}, 3)
	if s.Count != 4 || s.Min != 10 || s.Max != 40 || s.Mean != 25 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if math.Abs(s.Std-math.Sqrt(125)) > 1e-9 {
		t.Errorf("Expected population std %v, got %v", math.Sqrt(125), s.Std)
	}
	// Edges 10, 20, 30, 40; the maximum falls in the last bin.
	want := []float64{1, 1, 2}
	for i := range want {
		if s.Histogram[i] != want[i] {
			t.Errorf("Expected histogram %v, got %v", want, s.Histogram)
			break
		}
	}
	if s.BinEdges[0] != 10 || s.BinEdges[3] != 40 {
		t.Errorf("Expected edges spanning [10,40], got %v", s.BinEdges)
	}

	single := sizeStats([]float64{12}, 10)
	total := 0.0
	for _, c := range single.Histogram {
		total += c
	}
	if single.Std != 0 || total != 1 {
		t.Errorf("Expected a single counted value with zero spread, got %+v", single)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SizeRangeMicrometers = [2]float64{100, 10}
	if !apperrors.IsType(cfg.Validate(), apperrors.ErrorTypeInvalidConfig) {
		t.Error("Expected inverted size range to be rejected")
	}
	cfg = DefaultConfig()
	cfg.HistogramBins = 0
	if cfg.Validate() == nil {
		t.Error("Expected zero bins to be rejected")
	}
}
