// Package scorer is an HTTP client for the model-serving sidecar that
// hosts the trained triage classifier. It implements triage.Classifier;
// every failure mode maps to an error the engine folds into its
// degraded, rules-only path.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/acuity/internal/triage"
)

// Client calls the scorer sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a scorer client. timeout bounds each prediction call in
// addition to the engine's per-call context deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Predict posts the feature set and returns the model's label and top
// class probability.
func (c *Client) Predict(ctx context.Context, f triage.Features) (*triage.Prediction, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("scorer: marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scorer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer: post predict: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusServiceUnavailable {
		// The sidecar is up but has no trained model loaded.
		return nil, triage.ErrModelUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scorer: predict returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scorer: decode response: %w", err)
	}

	label, err := triage.ParseSimplified(out.Label)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return nil, fmt.Errorf("scorer: probability %v out of range", out.Probability)
	}
	return &triage.Prediction{Label: label, Probability: out.Probability}, nil
}

// Ready checks that the sidecar has a trained model loaded. Used by the
// lazy model handle so an untrained model stays in degraded mode.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model", nil)
	if err != nil {
		return fmt.Errorf("scorer: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scorer: get model info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusServiceUnavailable, http.StatusNotFound:
		return triage.ErrModelUnavailable
	default:
		return fmt.Errorf("scorer: model info returned %d", resp.StatusCode)
	}
}
