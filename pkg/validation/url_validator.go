package validation

import (
	"net/url"
	"strings"

	apperrors "go-plankton-inspector/internal/errors"
)

// URLValidator handles image source validation for API requests
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a validator accepting http, https and azblob sources
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https", "azblob"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options.
// Including "file" in schemes permits file:// URLs and bare paths.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL validates if the provided source is acceptable for analysis
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return apperrors.NewValidationError("image URL cannot be empty", nil)
	}

	if !strings.Contains(imageURL, "://") {
		if !v.isSchemeAllowed("file") {
			return apperrors.NewValidationError("local paths are not allowed", nil)
		}
		return nil
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil).WithDetails(scheme)
	}

	switch scheme {
	case "file":
		if parsedURL.Path == "" {
			return apperrors.NewValidationError("file URL must have a path", nil)
		}
		return nil
	case "azblob":
		if parsedURL.Host == "" || strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("blob URL must be azblob://<container>/<blob>", nil)
		}
		return nil
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil).WithDetails(parsedURL.Hostname())
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
