package models

import (
	"sort"
	"time"
)

// SummaryRow is one per-class line of the summary table.
type SummaryRow struct {
	SampleID         string    `json:"sample_id"`
	Timestamp        time.Time `json:"timestamp"`
	ClassName        string    `json:"class_name"`
	Count            int       `json:"count"`
	ShannonDiversity float64   `json:"shannon_diversity"`
	BloomAlert       bool      `json:"bloom_alert"`
}

// OrganismRow is one per-organism line of the organism table.
type OrganismRow struct {
	SampleID        string  `json:"sample_id"`
	OrganismID      int     `json:"organism_id"`
	ClassName       string  `json:"class_name"`
	Confidence      float64 `json:"confidence"`
	SizeMicrometers float64 `json:"size_um"`
	CentroidXPixel  float64 `json:"centroid_x_px"`
	CentroidYPixel  float64 `json:"centroid_y_px"`
}

// SummaryRows projects the result into one row per observed class, sorted by class name.
func (r *SampleResult) SummaryRows() []SummaryRow {
	alerted := make(map[string]bool, len(r.BloomAlerts))
	for _, a := range r.BloomAlerts {
		alerted[a.ClassName] = true
	}

	classes := make([]string, 0, len(r.CountsByClass))
	for c := range r.CountsByClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	rows := make([]SummaryRow, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, SummaryRow{
			SampleID:         r.Metadata.SampleID,
			Timestamp:        r.Metadata.Timestamp,
			ClassName:        c,
			Count:            r.CountsByClass[c],
			ShannonDiversity: r.Diversity.Shannon,
			BloomAlert:       alerted[c],
		})
	}
	return rows
}

// OrganismRows projects the result into one row per retained organism, in detection order.
func (r *SampleResult) OrganismRows() []OrganismRow {
	rows := make([]OrganismRow, 0, len(r.Organisms))
	for _, o := range r.Organisms {
		rows = append(rows, OrganismRow{
			SampleID:        r.Metadata.SampleID,
			OrganismID:      o.ID,
			ClassName:       o.ClassName,
			Confidence:      o.Confidence,
			SizeMicrometers: o.SizeMicrometers,
			CentroidXPixel:  o.CentroidPixel.X,
			CentroidYPixel:  o.CentroidPixel.Y,
		})
	}
	return rows
}
