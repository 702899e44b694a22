package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/segmentation"
)

func TestParsePipelineConfig(t *testing.T) {
	data := []byte(`
segmentation:
  method: threshold
  minAreaPixels: 20
classification:
  classNames: [Copepod, Diatom]
  confidenceThreshold: 0.5
counting:
  sizeRangeMicrometers: [5, 500]
analytics:
  bloomThresholds:
    Diatom: 40
`)
	cfg, err := ParsePipelineConfig(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Segmentation.Method != segmentation.MethodThreshold || cfg.Segmentation.MinAreaPixels != 20 {
		t.Errorf("Expected overridden segmentation, got %+v", cfg.Segmentation)
	}
	if cfg.Segmentation.MaxAreaPixels != 50000 {
		t.Errorf("Expected default max area to survive, got %d", cfg.Segmentation.MaxAreaPixels)
	}
	if cfg.Classification.TopK != 3 || cfg.Classification.TimeoutMs != 5000 {
		t.Errorf("Expected classification defaults, got %+v", cfg.Classification)
	}
	if cc := cfg.CountingConfig(); cc.ConfidenceThreshold != 0.5 || cc.SizeRangeMicrometers != [2]float64{5, 500} {
		t.Errorf("Unexpected counting config %+v", cc)
	}
	if cfg.Analytics.BloomThresholds["Diatom"] != 40 {
		t.Errorf("Expected Diatom threshold 40, got %v", cfg.Analytics.BloomThresholds)
	}
}

func TestParsePipelineConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing class names", "segmentation:\n  method: watershed\n"},
		{"empty document", ""},
		{"unknown key", "classification:\n  classNames: [A]\n  colour: red\n"},
		{"bad method", "segmentation:\n  method: magic\nclassification:\n  classNames: [A]\n"},
		{"malformed yaml", "classification: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipelineConfig([]byte(tt.yaml))
			if !apperrors.IsType(err, apperrors.ErrorTypeInvalidConfig) {
				t.Errorf("Expected invalid_config, got %v", err)
			}
		})
	}
}

func TestSaveAndLoadPipelineConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.yaml")
	cfg := DefaultPipelineConfig()
	cfg.Classification.ClassNames = []string{"Copepod", "Rotifer"}
	cfg.Analytics.BloomThresholds = map[string]int{"Rotifer": 7}

	if err := SavePipelineConfig(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadPipelineConfig(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Classification.ClassNames) != 2 || loaded.Analytics.BloomThresholds["Rotifer"] != 7 {
		t.Errorf("Round trip lost data: %+v", loaded)
	}
}

func TestLoadPipelineConfigMissingFileNeedsClassNames(t *testing.T) {
	_, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidConfig) {
		t.Errorf("Expected invalid_config, got %v", err)
	}
}

func TestShippedPipelineConfigIsValid(t *testing.T) {
	if _, err := LoadPipelineConfig(filepath.Join("..", "..", "config", "pipeline.yaml")); err != nil {
		t.Errorf("Expected bundled config to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("MODEL_BACKEND", "Remote")
	t.Setenv("MODEL_ENDPOINT", "http://inference:8500/predict")
	t.Setenv("BATCH_WORKERS", "3")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:9090" {
		t.Errorf("Expected 0.0.0.0:9090, got %s", cfg.ServerAddress())
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.RequestTimeout)
	}
	if cfg.ModelBackend != ModelBackendRemote || cfg.BatchWorkers != 3 {
		t.Errorf("Unexpected model/batch settings %+v", cfg)
	}
}

func TestLoadFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"remote without endpoint", map[string]string{"MODEL_BACKEND": "remote"}},
		{"onnx without path", map[string]string{"MODEL_BACKEND": "onnx"}},
		{"unknown backend", map[string]string{"MODEL_BACKEND": "tflite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PLANKTON_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLANKTON_TEST_VALUE", "")
	os.Unsetenv("PLANKTON_TEST_VALUE")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := os.Getenv("PLANKTON_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("Expected from-dotenv, got %q", got)
	}
}
