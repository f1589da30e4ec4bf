package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/pano-probe/pkg/types"
)

// Client calls an EasyOCR-style sidecar
type Client struct {
	baseURL    string
	languages  []string
	httpClient *http.Client
}

// ClientConfig holds connection settings for the OCR sidecar
type ClientConfig struct {
	URL       string
	Languages []string
	Timeout   time.Duration
}

// ReadTextRequest is the body sent to /v1/readtext
type ReadTextRequest struct {
	Image     string   `json:"image"`
	Languages []string `json:"languages,omitempty"`
}

// Detection is one text fragment as reported by the sidecar
type Detection struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	BBox       [][2]float64 `json:"bbox"`
}

// ReadTextResponse is the sidecar's answer
type ReadTextResponse struct {
	Detections []Detection `json:"detections"`
}

// NewClient creates an OCR client, filling zero-valued settings with defaults
func NewClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:8002"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		languages:  cfg.Languages,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ReadText returns every fragment the engine found, in detection order
func (c *Client) ReadText(ctx context.Context, imgB64 string) ([]types.TextFragment, error) {
	body, err := json.Marshal(ReadTextRequest{Image: imgB64, Languages: c.languages})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/v1/readtext", body)
	if err != nil {
		return nil, err
	}

	var resp ReadTextResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	fragments := make([]types.TextFragment, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		fragments = append(fragments, types.TextFragment{Text: d.Text, Confidence: d.Confidence, BBox: d.BBox})
	}
	return fragments, nil
}

// Health checks that the OCR engine is loaded
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
