package models

import "time"

// Calibration carries the optical parameters needed to convert pixels to micrometers.
type Calibration struct {
	Magnification               float64 `json:"magnification"`
	SensorPixelPitchMicrometers float64 `json:"sensor_pixel_pitch_um"`
}

// SampleMetadata describes the sample and how it was imaged.
type SampleMetadata struct {
	SampleID                      string    `json:"sample_id"`
	RunID                         string    `json:"run_id"`
	Timestamp                     time.Time `json:"timestamp"`
	Source                        string    `json:"source,omitempty"`
	Magnification                 float64   `json:"magnification"`
	SensorPixelPitchMicrometers   float64   `json:"sensor_pixel_pitch_um"`
	ResolutionMicrometersPerPixel float64   `json:"resolution_um_per_px"`
	ImageWidth                    int       `json:"image_width"`
	ImageHeight                   int       `json:"image_height"`
	FieldOfViewMicrometers        Point     `json:"field_of_view_um"`
	SegmentationMethod            string    `json:"segmentation_method"`
	ModelName                     string    `json:"model_name"`
}

// Diversity holds the ecological indices for one sample.
type Diversity struct {
	Shannon  float64 `json:"shannon"`
	Simpson  float64 `json:"simpson"`
	Richness int     `json:"richness"`
}

// Severity ranks how far a bloom count exceeds its threshold.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type BloomAlert struct {
	ClassName string   `json:"class_name"`
	Count     int      `json:"count"`
	Threshold int      `json:"threshold"`
	Ratio     float64  `json:"ratio"`
	Severity  Severity `json:"severity"`
}

// TrendDirection is the sign of a count change between two samples.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Trend compares a class count with the same class in a previous sample.
type Trend struct {
	Current   int            `json:"current"`
	Previous  int            `json:"previous"`
	ChangePct float64        `json:"change_pct"`
	Direction TrendDirection `json:"direction"`
}

// SizeStats summarizes organism sizes of one class, in micrometers.
type SizeStats struct {
	Count     int       `json:"count"`
	Mean      float64   `json:"mean_um"`
	Std       float64   `json:"std_um"`
	Min       float64   `json:"min_um"`
	Max       float64   `json:"max_um"`
	Histogram []float64 `json:"histogram"`
	BinEdges  []float64 `json:"bin_edges_um"`
}

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage      string  `json:"stage"`
	DurationMs float64 `json:"duration_ms"`
}

// SampleResult is the aggregate output of one completed pipeline run.
type SampleResult struct {
	Metadata         SampleMetadata       `json:"metadata"`
	RegionCount      int                  `json:"region_count"`
	CountsByClass    map[string]int       `json:"counts_by_class"`
	TotalCount       int                  `json:"total_count"`
	Organisms        []Organism           `json:"organisms"`
	SizeDistribution map[string]SizeStats `json:"size_distribution"`
	Diversity        Diversity            `json:"diversity"`
	Composition      map[string]float64   `json:"composition"`
	BloomAlerts      []BloomAlert         `json:"bloom_alerts"`
	Trends           map[string]Trend     `json:"trends,omitempty"`
	FrameQuality     FrameQuality         `json:"frame_quality"`
	Timings          []StageTiming        `json:"timings"`
}

// FrameQuality is an advisory focus and exposure assessment of the input frame.
type FrameQuality struct {
	FocusVariance   float64  `json:"focus_variance"`
	MeanBrightness  float64  `json:"mean_brightness"`
	ClippedFraction float64  `json:"clipped_fraction"`
	Blurry          bool     `json:"blurry"`
	Overexposed     bool     `json:"overexposed"`
	TooDark         bool     `json:"too_dark"`
	Warnings        []string `json:"warnings,omitempty"`
}
