package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// ratingScale converts a 0-100 rating into a logit comparable to CLIP's
const ratingScale = 10.0

// Client scores images against prompts with an Ollama vision model
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", ollamaURL)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	// Base URL only, dropping paths like /api/chat
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: 300 * time.Second,
	}, nil
}

// Name identifies the backend and model
func (c *Client) Name() string { return "ollama:" + c.model }

// Health checks that the Ollama server is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.client.Heartbeat(ctx)
}

// Similarity asks the model to rate how well each prompt describes the image
// and returns the ratings as logits, in prompt order.
func (c *Client) Similarity(ctx context.Context, imgB64 string, prompts []string) ([]float64, error) {
	// CPU inference of vision models is slow
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: BuildRatingPrompt(prompts),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0,
		},
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	ratings, err := parseRatings(responseContent, len(prompts))
	if err != nil {
		return nil, err
	}
	logits := make([]float64, len(ratings))
	for i, r := range ratings {
		logits[i] = r / ratingScale
	}
	return logits, nil
}

// BuildRatingPrompt lists the statements the model has to rate
func BuildRatingPrompt(prompts []string) string {
	var b strings.Builder
	b.WriteString("You rate how well statements describe a street-level photo.\n\n")
	b.WriteString("For each numbered statement give a rating from 0 (does not apply) to 100 (clearly applies).\n\n")
	for i, p := range prompts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	fmt.Fprintf(&b, "\nReturn JSON only: {\"ratings\": [r1, ..., r%d]} with exactly %d numbers in statement order.", len(prompts), len(prompts))
	return b.String()
}

type ratingResponse struct {
	Ratings []float64 `json:"ratings"`
}

// parseRatings extracts exactly n ratings clamped to [0,100]
func parseRatings(raw string, n int) ([]float64, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response")
	}

	var resp ratingResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if len(resp.Ratings) != n {
		return nil, fmt.Errorf("expected %d ratings, got %d", n, len(resp.Ratings))
	}

	out := make([]float64, n)
	for i, r := range resp.Ratings {
		out[i] = clamp(r, 0, 100)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
