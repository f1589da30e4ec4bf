// Package similarity turns backend logits into a probability distribution over
// the prompt catalog.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/client"
	"github.com/menta2k/pano-probe/pkg/processing"
	"github.com/menta2k/pano-probe/pkg/types"
)

// sumTolerance is how far a distribution may drift from 1 before renormalizing
const sumTolerance = 1e-4

// ErrInvalidScores is returned when a backend produces an unusable distribution
var ErrInvalidScores = errors.New("invalid similarity scores")

// Config controls how images are sent to the backend
type Config struct {
	SendFormat  string
	SendSize    int
	SendQuality int
}

// Scorer scores images against the prompt catalog through a SimilarityClient
type Scorer struct {
	client    client.SimilarityClient
	processor *processing.Processor
	config    Config
	prompts   []string
}

// NewScorer creates a Scorer with default send settings
func NewScorer(c client.SimilarityClient) *Scorer {
	return NewScorerWithConfig(c, Config{SendFormat: "jpg", SendSize: 512, SendQuality: 90})
}

// NewScorerWithConfig creates a Scorer with custom send settings
func NewScorerWithConfig(c client.SimilarityClient, config Config) *Scorer {
	if config.SendFormat == "" {
		config.SendFormat = "jpg"
	}
	if config.SendQuality <= 0 {
		config.SendQuality = 90
	}
	return &Scorer{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
		prompts:   catalog.Prompts(),
	}
}

// Name identifies the backend in use
func (s *Scorer) Name() string { return s.client.Name() }

// Score returns the softmax distribution of img over the catalog
func (s *Scorer) Score(ctx context.Context, img image.Image) (types.PromptScore, error) {
	imgB64, err := s.processor.PrepareImageForModel(img, s.config.SendFormat, s.config.SendSize, s.config.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	logits, err := s.client.Similarity(ctx, imgB64, s.prompts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.client.Name(), err)
	}
	if len(logits) != len(s.prompts) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidScores, len(s.prompts), len(logits))
	}

	probs, err := Softmax(logits)
	if err != nil {
		return nil, err
	}

	scores := make(types.PromptScore, len(s.prompts))
	for i, p := range s.prompts {
		scores[p] = probs[i]
	}
	return scores, nil
}

// Softmax converts logits into probabilities summing to 1. It subtracts the
// maximum first so large CLIP logits do not overflow.
func Softmax(logits []float64) ([]float64, error) {
	if len(logits) == 0 {
		return nil, fmt.Errorf("%w: no logits", ErrInvalidScores)
	}
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("%w: non-finite logit %v", ErrInvalidScores, l)
		}
		maxLogit = math.Max(maxLogit, l)
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return Normalize(out)
}

// Normalize validates a probability vector and rescales it when its sum
// drifts outside tolerance.
func Normalize(probs []float64) ([]float64, error) {
	var sum float64
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 {
			return nil, fmt.Errorf("%w: probability %v", ErrInvalidScores, p)
		}
		sum += p
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: zero mass", ErrInvalidScores)
	}
	if math.Abs(sum-1) <= sumTolerance {
		return probs, nil
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = p / sum
	}
	return out, nil
}
