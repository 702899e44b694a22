package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"go-plankton-inspector/pkg/models"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeCanceled   ErrorType = "canceled"
	ErrorTypeTooLarge   ErrorType = "payload_too_large"

	// Pipeline error kinds. Every one of them is fatal to the run that raised it.
	ErrorTypeInvalidCalibration         ErrorType = "invalid_calibration"
	ErrorTypeSegmentationMalformedInput ErrorType = "segmentation_malformed_input"
	ErrorTypeClassifierUnavailable      ErrorType = "classifier_unavailable"
	ErrorTypeClassifierTimeout          ErrorType = "classifier_timeout"
	ErrorTypeContractViolation          ErrorType = "contract_violation"
	ErrorTypeInvalidConfig              ErrorType = "invalid_config"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := string(e.Type)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Type, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStage returns a copy of the error attributed to the given pipeline stage.
func (e *AppError) WithStage(stage string) *AppError {
	cp := *e
	cp.Stage = stage
	return &cp
}

// WithDetails returns a copy of the error carrying extra detail text.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewTooLargeError reports a request body over the configured limit.
func NewTooLargeError(message string, cause error) *AppError {
	return newError(ErrorTypeTooLarge, http.StatusRequestEntityTooLarge, message, cause)
}

// NewCanceledError reports a run stopped at a stage boundary because its context ended.
func NewCanceledError(message string, cause error) *AppError {
	return newError(ErrorTypeCanceled, http.StatusRequestTimeout, message, cause)
}

// NewInvalidCalibrationError reports magnification or pixel pitch values that cannot be used.
func NewInvalidCalibrationError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidCalibration, http.StatusUnprocessableEntity, message, cause)
}

// NewSegmentationMalformedInputError reports an image segmentation cannot work on.
func NewSegmentationMalformedInputError(message string, cause error) *AppError {
	return newError(ErrorTypeSegmentationMalformedInput, http.StatusUnprocessableEntity, message, cause)
}

// NewClassifierUnavailableError reports a model that failed or returned unusable output.
func NewClassifierUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeClassifierUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewClassifierTimeoutError reports a model call that exceeded its time bound.
func NewClassifierTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeClassifierTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewContractViolationError reports stage output that broke its data contract.
func NewContractViolationError(message string, cause error) *AppError {
	return newError(ErrorTypeContractViolation, http.StatusInternalServerError, message, cause)
}

// NewInvalidConfigError reports configuration rejected at pipeline build time.
func NewInvalidConfigError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidConfig, http.StatusInternalServerError, message, cause)
}

// As extracts the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// Kind returns the error type, or ErrorTypeInternal for foreign errors.
func Kind(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ToResponse converts err into the JSON error body returned to clients.
func ToResponse(err error) models.ErrorResponse {
	appErr, ok := As(err)
	if !ok {
		return models.ErrorResponse{Error: "internal error", Message: err.Error(), Kind: string(ErrorTypeInternal)}
	}
	msg := appErr.Message
	if appErr.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, appErr.Details)
	}
	return models.ErrorResponse{
		Error:   http.StatusText(appErr.StatusCode),
		Message: msg,
		Kind:    string(appErr.Type),
		Stage:   appErr.Stage,
	}
}
