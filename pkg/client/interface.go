package client

import (
	"context"

	"github.com/menta2k/pano-probe/pkg/types"
)

// SimilarityClient scores a base64 image against text prompts. It returns one
// raw logit per prompt, in prompt order.
type SimilarityClient interface {
	Similarity(ctx context.Context, imgB64 string, prompts []string) ([]float64, error)
	Name() string
}

// TextEngine reads text fragments out of a base64 image
type TextEngine interface {
	ReadText(ctx context.Context, imgB64 string) ([]types.TextFragment, error)
}

// HealthChecker is implemented by backends that can report readiness
type HealthChecker interface {
	Health(ctx context.Context) error
}
