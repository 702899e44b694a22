package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go-plankton-inspector/internal/analytics"
	"go-plankton-inspector/internal/classifier"
	"go-plankton-inspector/internal/counting"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/quality"
	"go-plankton-inspector/internal/segmentation"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the per-stage configuration, loaded from YAML.
type PipelineConfig struct {
	Segmentation   segmentation.Config `yaml:"segmentation"`
	Classification classifier.Config   `yaml:"classification"`
	Counting       counting.Config     `yaml:"counting"`
	Analytics      analytics.Config    `yaml:"analytics"`
	Quality        quality.Config      `yaml:"quality"`
}

// DefaultPipelineConfig returns defaults for every stage. Class names are
// left empty and must come from the config file.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Segmentation:   segmentation.DefaultConfig(),
		Classification: classifier.DefaultConfig(),
		Counting:       counting.DefaultConfig(),
		Analytics:      analytics.DefaultConfig(),
		Quality:        quality.DefaultConfig(),
	}
}

// CountingConfig returns the counting section with the classification
// confidence threshold applied.
func (c *PipelineConfig) CountingConfig() counting.Config {
	cc := c.Counting
	cc.ConfidenceThreshold = c.Classification.ConfidenceThreshold
	return cc
}

// Validate checks every section and returns the first InvalidConfig error.
func (c *PipelineConfig) Validate() error {
	if err := c.Segmentation.Validate(); err != nil {
		return err
	}
	if err := c.Classification.Validate(); err != nil {
		return err
	}
	if err := c.CountingConfig().Validate(); err != nil {
		return err
	}
	if err := c.Analytics.Validate(); err != nil {
		return err
	}
	return c.Quality.Validate()
}

// ParsePipelineConfig overlays YAML data on the defaults and validates the
// result. Unknown keys are rejected.
func ParsePipelineConfig(data []byte) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewInvalidConfigError("error parsing pipeline config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPipelineConfig reads and validates the YAML file at path. A missing
// file yields the defaults, which still need class names to validate.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultPipelineConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("error reading pipeline config %s", path), err)
	}
	return ParsePipelineConfig(data)
}

// SavePipelineConfig writes cfg to path as YAML.
func SavePipelineConfig(cfg *PipelineConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
