package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"
)

// StatusError reports a non-200 response from an image server.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return fmt.Sprintf("client error: status code %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: status code %d", e.StatusCode)
}

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// HTTPImageFetcher downloads images over HTTP(S), retrying transport
// failures and 5xx responses with a linear backoff.
type HTTPImageFetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// HTTPOption customizes an HTTPImageFetcher.
type HTTPOption func(*HTTPImageFetcher)

// WithRetries sets the attempt count and the base backoff between attempts.
func WithRetries(attempts int, backoff time.Duration) HTTPOption {
	return func(h *HTTPImageFetcher) {
		if attempts > 0 {
			h.attempts = attempts
		}
		h.backoff = backoff
	}
}

// NewHTTPImageFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPImageFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/tiff, image/png, image/jpeg, */*")
	req.Header.Set("User-Agent", "Go-Plankton-Inspector/1.0")

	var lastErr error
	attempt := 0
	for ; attempt < h.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		img, err := h.fetchOnce(req)
		if err == nil {
			return img, nil
		}
		lastErr = err

		// Client errors and undecodable bodies will not change on retry.
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			attempt++
			break
		}
		if errors.Is(err, ErrDecode) || ctx.Err() != nil {
			attempt++
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", attempt, lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(req *http.Request) (image.Image, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w", ErrImageNotFound, &StatusError{StatusCode: resp.StatusCode})
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return Decode(resp.Body)
}
