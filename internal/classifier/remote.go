package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"time"
)

// RemoteModel posts PNG-encoded crops to an inference endpoint that answers
// with one score vector per crop.
type RemoteModel struct {
	endpoint string
	name     string
	client   *http.Client
}

type remoteRequest struct {
	Model     string   `json:"model,omitempty"`
	Instances []string `json:"instances"`
}

type remoteResponse struct {
	Scores [][]float64 `json:"scores"`
}

// NewRemoteModel creates a client for endpoint; timeout bounds each HTTP call.
func NewRemoteModel(endpoint, name string, timeout time.Duration) *RemoteModel {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       60 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &RemoteModel{
		endpoint: endpoint,
		name:     name,
		client:   &http.Client{Timeout: timeout, Transport: transport},
	}
}

func (m *RemoteModel) Name() string         { return m.name }
func (m *RemoteModel) ConcurrentSafe() bool { return true }

func (m *RemoteModel) Predict(ctx context.Context, crops []image.Image) ([][]float64, error) {
	req := remoteRequest{Model: m.name, Instances: make([]string, len(crops))}
	var buf bytes.Buffer
	for i, c := range crops {
		buf.Reset()
		if err := png.Encode(&buf, c); err != nil {
			return nil, fmt.Errorf("encode crop %d: %w", i, err)
		}
		req.Instances[i] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	return out.Scores, nil
}
