// Package analytics computes diversity indices, community composition,
// bloom alerts and trends from per-class organism counts.
package analytics

import (
	"fmt"
	"sort"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// SeverityLadder holds the exceedance ratios (count / threshold) at which
// an alert moves up a tier. Ratios below Moderate are low.
type SeverityLadder struct {
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// Severity maps an exceedance ratio onto the ladder.
func (l SeverityLadder) Severity(ratio float64) models.Severity {
	switch {
	case ratio < l.Moderate:
		return models.SeverityLow
	case ratio < l.High:
		return models.SeverityModerate
	case ratio < l.Critical:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}

type Config struct {
	BloomThresholds map[string]int `yaml:"bloomThresholds" json:"bloom_thresholds"`
	SeverityLadder  SeverityLadder `yaml:"severityLadder" json:"severity_ladder"`
}

func DefaultConfig() Config {
	return Config{
		BloomThresholds: map[string]int{},
		SeverityLadder:  SeverityLadder{Moderate: 1.5, High: 2, Critical: 4},
	}
}

func (c Config) Validate() error {
	for class, th := range c.BloomThresholds {
		if th <= 0 {
			return apperrors.NewInvalidConfigError(
				fmt.Sprintf("analytics.bloomThresholds[%s] must be > 0 (got %d)", class, th), nil)
		}
	}
	l := c.SeverityLadder
	if !(l.Moderate >= 1 && l.Moderate < l.High && l.High < l.Critical) {
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("analytics.severityLadder must satisfy 1 <= moderate < high < critical (got %v, %v, %v)",
				l.Moderate, l.High, l.Critical), nil)
	}
	return nil
}

// Result is the analytics stage output.
type Result struct {
	Diversity   models.Diversity
	Composition map[string]float64
	BloomAlerts []models.BloomAlert
	Trends      map[string]models.Trend
}

// Engine evaluates counts against a validated configuration.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Analyze computes all indices. Trends are produced only when previous is non-nil.
func (e *Engine) Analyze(counts map[string]int, previous map[string]int) *Result {
	res := &Result{
		Diversity:   Diversity(counts),
		Composition: Composition(counts),
		BloomAlerts: BloomAlerts(counts, e.cfg.BloomThresholds, e.cfg.SeverityLadder),
	}
	if previous != nil {
		res.Trends = Trends(counts, previous)
	}
	return res
}

func sortedClasses(counts map[string]int) []string {
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// proportions returns p_i = n_i / N in sorted class order, with N.
func proportions(counts map[string]int) ([]string, []float64, int) {
	classes := sortedClasses(counts)
	total := 0
	for _, c := range classes {
		total += counts[c]
	}
	p := make([]float64, len(classes))
	if total == 0 {
		return classes, p, 0
	}
	for i, c := range classes {
		p[i] = float64(counts[c]) / float64(total)
	}
	return classes, p, total
}

// Diversity returns Shannon (natural log), Simpson (1 - sum p^2) and
// richness. All three are zero for an empty sample.
func Diversity(counts map[string]int) models.Diversity {
	_, p, total := proportions(counts)
	if total == 0 {
		return models.Diversity{}
	}
	richness := 0
	var sumSq float64
	for _, v := range p {
		if v > 0 {
			richness++
		}
		sumSq += v * v
	}
	return models.Diversity{
		Shannon:  stat.Entropy(p),
		Simpson:  1 - sumSq,
		Richness: richness,
	}
}

// Composition returns each class's share of the total in percent.
func Composition(counts map[string]int) map[string]float64 {
	classes, p, total := proportions(counts)
	out := make(map[string]float64, len(classes))
	if total == 0 {
		return out
	}
	for i, c := range classes {
		out[c] = p[i] * 100
	}
	return out
}

// BloomAlerts reports every class whose count meets its threshold, sorted by class.
// Classes without a threshold never alert.
func BloomAlerts(counts map[string]int, thresholds map[string]int, ladder SeverityLadder) []models.BloomAlert {
	alerts := []models.BloomAlert{}
	for _, class := range sortedClasses(thresholds) {
		th := thresholds[class]
		n := counts[class]
		if th <= 0 || n < th {
			continue
		}
		ratio := float64(n) / float64(th)
		alerts = append(alerts, models.BloomAlert{
			ClassName: class,
			Count:     n,
			Threshold: th,
			Ratio:     ratio,
			Severity:  ladder.Severity(ratio),
		})
	}
	return alerts
}

// Trends compares current counts with a previous sample over the union of classes.
func Trends(current, previous map[string]int) map[string]models.Trend {
	out := make(map[string]models.Trend, len(current)+len(previous))
	add := func(class string) {
		if _, ok := out[class]; ok {
			return
		}
		cur, prev := current[class], previous[class]
		var change float64
		switch {
		case prev > 0:
			change = float64(cur-prev) / float64(prev) * 100
		case cur > 0:
			change = 100
		}
		dir := models.TrendStable
		if change > 0 {
			dir = models.TrendIncreasing
		} else if change < 0 {
			dir = models.TrendDecreasing
		}
		out[class] = models.Trend{Current: cur, Previous: prev, ChangePct: change, Direction: dir}
	}
	for c := range current {
		add(c)
	}
	for c := range previous {
		add(c)
	}
	return out
}
