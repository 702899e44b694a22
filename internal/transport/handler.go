package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-plankton-inspector/internal/config"
	apperrors "go-plankton-inspector/internal/errors"
	"go-plankton-inspector/internal/logger"
	"go-plankton-inspector/internal/service"
	"go-plankton-inspector/internal/storage"
	"go-plankton-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MetricsProvider exposes a JSON-encodable snapshot of runtime metrics.
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.SampleAnalysisService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	v1.POST("/samples/analyze", analyzeSample(svc, cfg))
	v1.POST("/samples/upload", uploadSample(svc, cfg))
	v1.POST("/samples/batch", analyzeBatch(svc, cfg))
	v1.GET("/metrics", getMetrics(metrics))

	return r
}

func analyzeSample(svc service.SampleAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, requestError("invalid request format", err))
			return
		}

		logger.WithFields(logrus.Fields{
			"image_url":     req.ImageURL,
			"sample_id":     req.SampleID,
			"magnification": req.Magnification,
			"ip":            c.ClientIP(),
		}).Info("Processing sample analysis request")

		result, err := svc.AnalyzeSample(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, result, startTime)
	}
}

func uploadSample(svc service.SampleAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			respondError(c, requestError("multipart field 'image' is required", err))
			return
		}
		defer file.Close()

		req, err := uploadRequest(c)
		if err != nil {
			respondError(c, err)
			return
		}

		img, err := storage.Decode(file)
		if err != nil {
			respondError(c, apperrors.NewValidationError("image could not be decoded", err).WithDetails(header.Filename))
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":  header.Filename,
			"size":      header.Size,
			"sample_id": req.SampleID,
			"ip":        c.ClientIP(),
		}).Info("Processing uploaded sample")

		result, err := svc.AnalyzeImage(ctx, img, "upload:"+header.Filename, req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, result, startTime)
	}
}

// requestError classifies a failure to read the request body.
func requestError(message string, err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.NewTooLargeError("request body too large", err)
	}
	return apperrors.NewValidationError(message, err)
}

// uploadRequest reads the calibration and bookkeeping form fields.
func uploadRequest(c *gin.Context) (models.AnalyzeRequest, error) {
	req := models.AnalyzeRequest{SampleID: c.PostForm("sample_id")}

	var err error
	if req.Magnification, err = formFloat(c, "magnification"); err != nil {
		return req, err
	}
	if req.SensorPixelPitchMicrometers, err = formFloat(c, "sensor_pixel_pitch_um"); err != nil {
		return req, err
	}
	if raw := c.PostForm("previous_counts"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.PreviousCounts); err != nil {
			return req, apperrors.NewValidationError("previous_counts must be a JSON object of class counts", err)
		}
	}
	return req, nil
}

func formFloat(c *gin.Context, field string) (float64, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, apperrors.NewValidationError("form field '"+field+"' is required", nil)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("form field '"+field+"' must be a number", err)
	}
	return v, nil
}

func analyzeBatch(svc service.SampleAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchAnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, requestError("invalid request format", err))
			return
		}

		resp, err := svc.AnalyzeBatch(ctx, req.Samples)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getMetrics(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func respondResult(c *gin.Context, result *models.SampleResult, startTime time.Time) {
	resp := models.AnalyzeResponse{
		Status:            "done",
		ProcessingTimeSec: time.Since(startTime).Seconds(),
		Result:            result,
	}
	if c.Query("tables") == "true" {
		resp.Tables = &models.Tables{
			Summary:   result.SummaryRows(),
			Organisms: result.OrganismRows(),
		}
	}

	logger.WithFields(logrus.Fields{
		"sample_id":          result.Metadata.SampleID,
		"run_id":             result.Metadata.RunID,
		"organisms":          result.TotalCount,
		"alerts":             len(result.BloomAlerts),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Sample analysis request completed")

	c.JSON(http.StatusOK, resp)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := apperrors.ToResponse(err)
	if _, ok := apperrors.As(err); !ok {
		body.Error = http.StatusText(code)
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"kind":        body.Kind,
		"stage":       body.Stage,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, body)
}
