// Command analyze runs the plankton pipeline on one local image and prints
// the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go-plankton-inspector/internal/classifier"
	"go-plankton-inspector/internal/config"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/logger"
	"go-plankton-inspector/internal/pipeline"
	"go-plankton-inspector/internal/storage"
	"go-plankton-inspector/pkg/models"
)

type output struct {
	Result *models.SampleResult `json:"result"`
	Tables *models.Tables       `json:"tables,omitempty"`
}

func main() {
	var (
		imagePath     = flag.String("image", "", "path to the microscope frame (PNG, JPEG or TIFF)")
		magnification = flag.Float64("magnification", 0, "objective magnification")
		pitch         = flag.Float64("pitch", 0, "sensor pixel pitch in micrometers")
		configPath    = flag.String("config", "config/pipeline.yaml", "pipeline configuration file")
		sampleID      = flag.String("sample-id", "", "sample identifier (generated when empty)")
		tables        = flag.Bool("tables", false, "include summary and organism tables")
		timeout       = flag.Duration("timeout", 2*time.Minute, "overall analysis deadline")
		logLevel      = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
		endpoint      = flag.String("model-endpoint", "", "remote model URL (default: built-in heuristic model)")
		onnxPath      = flag.String("onnx", "", "ONNX model file, requires a build with -tags opencv")
	)
	flag.Parse()
	logger.SetLevel(*logLevel)

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "analyze: -image is required")
		flag.Usage()
		os.Exit(2)
	}

	choice := modelChoice{endpoint: *endpoint, onnxPath: *onnxPath}
	if err := run(*imagePath, *configPath, *sampleID, *tables, *timeout, choice, models.Calibration{
		Magnification:               *magnification,
		SensorPixelPitchMicrometers: *pitch,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(exitCode(err))
	}
}

type modelChoice struct {
	endpoint string
	onnxPath string
}

func (m modelChoice) build(cfg *config.PipelineConfig) (classifier.Model, func(), error) {
	switch {
	case m.onnxPath != "":
		model, err := classifier.NewONNXModel(m.onnxPath, cfg.Classification.InputSize)
		if err != nil {
			return nil, nil, err
		}
		return model, func() { model.Close() }, nil
	case m.endpoint != "":
		return classifier.NewRemoteModel(m.endpoint, "remote", cfg.Classification.Timeout()), func() {}, nil
	default:
		return classifier.NewHeuristicModel(len(cfg.Classification.ClassNames)), func() {}, nil
	}
}

func run(imagePath, configPath, sampleID string, withTables bool, timeout time.Duration, choice modelChoice, cal models.Calibration) error {
	cfg, err := config.LoadPipelineConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	img, err := storage.NewLocalFileFetcher("").FetchImage(ctx, imagePath)
	if err != nil {
		return err
	}

	model, release, err := choice.build(cfg)
	if err != nil {
		return err
	}
	defer release()

	p, err := pipeline.New(cfg, model)
	if err != nil {
		return err
	}

	res, err := p.Analyze(ctx, pipeline.Sample{
		ID:          sampleID,
		Image:       img,
		Calibration: cal,
		Source:      imagePath,
	})
	if err != nil {
		return err
	}

	out := output{Result: res}
	if withTables {
		out.Tables = &models.Tables{Summary: res.SummaryRows(), Organisms: res.OrganismRows()}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// exitCode separates bad input from pipeline failures for scripting.
func exitCode(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrorTypeInvalidCalibration, apperrors.ErrorTypeSegmentationMalformedInput,
		apperrors.ErrorTypeInvalidConfig, apperrors.ErrorTypeValidation:
		return 2
	default:
		return 1
	}
}
