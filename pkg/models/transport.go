package models

// AnalyzeRequest asks the service to fetch an image and run the pipeline on it.
type AnalyzeRequest struct {
	ImageURL                    string         `json:"image_url" binding:"required"`
	SampleID                    string         `json:"sample_id,omitempty"`
	Magnification               float64        `json:"magnification"`
	SensorPixelPitchMicrometers float64        `json:"sensor_pixel_pitch_um"`
	PreviousCounts              map[string]int `json:"previous_counts,omitempty"`
}

// BatchAnalyzeRequest groups independent samples analyzed concurrently.
type BatchAnalyzeRequest struct {
	Samples []AnalyzeRequest `json:"samples" binding:"required"`
}

// Tables holds the tabular projections of a result.
type Tables struct {
	Summary   []SummaryRow  `json:"summary"`
	Organisms []OrganismRow `json:"organisms"`
}

// AnalyzeResponse wraps a completed result and, on request, its tables.
type AnalyzeResponse struct {
	Status            string        `json:"status"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
	Result            *SampleResult `json:"result"`
	Tables            *Tables       `json:"tables,omitempty"`
}

// BatchItem is the outcome of one sample inside a batch.
type BatchItem struct {
	SampleID string         `json:"sample_id"`
	Status   string         `json:"status"`
	Result   *SampleResult  `json:"result,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

type BatchAnalyzeResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ErrorResponse represents an error response. Kind and Stage are set for
// pipeline failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Stage   string `json:"stage,omitempty"`
}
