// Package clipserver talks to a CLIP inference sidecar over JSON/HTTP.
package clipserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the CLIP checkpoint requested when none is configured
const DefaultModel = "openai/clip-vit-base-patch32"

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// SimilarityRequest asks the sidecar to compare one image with every text
type SimilarityRequest struct {
	Model string   `json:"model,omitempty"`
	Image string   `json:"image"`
	Texts []string `json:"texts"`
}

// SimilarityResponse carries either raw logits or already normalized probabilities
type SimilarityResponse struct {
	Model  string    `json:"model,omitempty"`
	Logits []float64 `json:"logits,omitempty"`
	Probs  []float64 `json:"probs,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Config holds connection settings for the sidecar
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:8001"
	}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return nil, fmt.Errorf("invalid CLIP server URL: %s", cfg.URL)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Name identifies the backend and model
func (c *Client) Name() string { return "clip:" + c.model }

// Similarity returns one logit per prompt. When the sidecar answers with
// probabilities instead, their logs are returned so softmax restores them.
func (c *Client) Similarity(ctx context.Context, imgB64 string, prompts []string) ([]float64, error) {
	if imgB64 == "" {
		return nil, fmt.Errorf("empty image")
	}
	req := SimilarityRequest{Model: c.model, Image: imgB64, Texts: prompts}

	respBody, err := c.sendRequest(ctx, http.MethodPost, "/v1/similarity", req)
	if err != nil {
		return nil, fmt.Errorf("similarity request failed: %w", err)
	}

	var resp SimilarityResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	switch {
	case len(resp.Logits) > 0:
		if len(resp.Logits) != len(prompts) {
			return nil, fmt.Errorf("expected %d logits, got %d", len(prompts), len(resp.Logits))
		}
		return resp.Logits, nil
	case len(resp.Probs) > 0:
		if len(resp.Probs) != len(prompts) {
			return nil, fmt.Errorf("expected %d probabilities, got %d", len(prompts), len(resp.Probs))
		}
		return probsToLogits(resp.Probs), nil
	}
	return nil, fmt.Errorf("no scores in response")
}

// Health checks that the sidecar has its model loaded
func (c *Client) Health(ctx context.Context) error {
	_, err := c.sendRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *Client) sendRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && (e.Error != "" || e.Detail != "") {
			return nil, fmt.Errorf("server returned status %d: %s%s", resp.StatusCode, e.Error, e.Detail)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func probsToLogits(probs []float64) []float64 {
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = math.Log(math.Max(p, 1e-12))
	}
	return out
}
