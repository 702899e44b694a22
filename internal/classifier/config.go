package classifier

import (
	"fmt"
	"time"

	apperrors "go-plankton-inspector/internal/errors"
)

// Config controls the classifier adapter.
type Config struct {
	ClassNames          []string `yaml:"classNames" json:"class_names"`
	ConfidenceThreshold float64  `yaml:"confidenceThreshold" json:"confidence_threshold"`
	TopK                int      `yaml:"topK" json:"top_k"`
	TimeoutMs           int      `yaml:"timeoutMs" json:"timeout_ms"`
	InputSize           int      `yaml:"inputSize" json:"input_size"`
	CropPadding         int      `yaml:"cropPadding" json:"crop_padding"`
}

// DefaultConfig returns every default except ClassNames, which has to be supplied.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.7,
		TopK:                3,
		TimeoutMs:           5000,
		InputSize:           224,
		CropPadding:         5,
	}
}

// Timeout returns TimeoutMs as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) Validate() error {
	if len(c.ClassNames) == 0 {
		return invalid("classification.classNames is required")
	}
	seen := make(map[string]bool, len(c.ClassNames))
	for i, name := range c.ClassNames {
		if name == "" {
			return invalid("classification.classNames[%d] is empty", i)
		}
		if seen[name] {
			return invalid("classification.classNames contains duplicate %q", name)
		}
		seen[name] = true
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return invalid("classification.confidenceThreshold must be in [0,1] (got %v)", c.ConfidenceThreshold)
	}
	if c.TopK < 1 {
		return invalid("classification.topK must be >= 1 (got %d)", c.TopK)
	}
	if c.TimeoutMs <= 0 {
		return invalid("classification.timeoutMs must be > 0 (got %d)", c.TimeoutMs)
	}
	if c.InputSize <= 0 {
		return invalid("classification.inputSize must be > 0 (got %d)", c.InputSize)
	}
	if c.CropPadding < 0 {
		return invalid("classification.cropPadding must be >= 0 (got %d)", c.CropPadding)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperrors.NewInvalidConfigError(fmt.Sprintf(format, args...), nil)
}
