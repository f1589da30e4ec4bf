package similarity

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/pano-probe/pkg/catalog"
)

type fakeClient struct {
	logits  []float64
	err     error
	prompts []string
	imgB64  string
}

func (f *fakeClient) Similarity(ctx context.Context, imgB64 string, prompts []string) ([]float64, error) {
	f.prompts = prompts
	f.imgB64 = imgB64
	return f.logits, f.err
}

func (f *fakeClient) Name() string { return "fake" }

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), 120, uint8(y), 255})
		}
	}
	return img
}

func TestSoftmax(t *testing.T) {
	probs, err := Softmax([]float64{1000, 1000, 998})
	if err != nil {
		t.Fatalf("Softmax failed: %v", err)
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected probabilities to sum to 1, got %v", sum)
	}
	if probs[0] != probs[1] || probs[2] >= probs[0] {
		t.Errorf("Unexpected ordering %v", probs)
	}

	if _, err := Softmax(nil); !errors.Is(err, ErrInvalidScores) {
		t.Errorf("Expected ErrInvalidScores for empty input, got %v", err)
	}
	if _, err := Softmax([]float64{1, math.NaN()}); !errors.Is(err, ErrInvalidScores) {
		t.Errorf("Expected ErrInvalidScores for NaN, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]float64{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 0.5 || out[1] != 0.5 {
		t.Errorf("Expected [0.5 0.5], got %v", out)
	}
	if _, err := Normalize([]float64{0.5, -0.1}); err == nil {
		t.Error("Expected error for negative probability")
	}
	if _, err := Normalize([]float64{0, 0}); err == nil {
		t.Error("Expected error for zero mass")
	}
}

func TestScore(t *testing.T) {
	logits := make([]float64, catalog.Len())
	logits[3] = 5 // landmark
	fc := &fakeClient{logits: logits}
	s := NewScorer(fc)

	scores, err := s.Score(context.Background(), createTestImage(64, 32))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(scores) != catalog.Len() {
		t.Fatalf("Expected %d scores, got %d", catalog.Len(), len(scores))
	}
	if len(fc.prompts) != catalog.Len() || fc.prompts[0] != catalog.Text {
		t.Error("Expected the catalog to be sent in order")
	}
	if fc.imgB64 == "" {
		t.Error("Expected an encoded image to be sent")
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	if math.Abs(sum-1) > sumTolerance {
		t.Errorf("Expected scores to sum to 1, got %v", sum)
	}
	if scores[catalog.Landmark] != scores.Max() {
		t.Errorf("Expected landmark to dominate, got %v", scores[catalog.Landmark])
	}
}

func TestScoreBackendFailure(t *testing.T) {
	s := NewScorer(&fakeClient{err: errors.New("connection refused")})
	if _, err := s.Score(context.Background(), createTestImage(8, 8)); err == nil {
		t.Error("Expected backend error to be returned")
	}

	s = NewScorer(&fakeClient{logits: []float64{1, 2}})
	if _, err := s.Score(context.Background(), createTestImage(8, 8)); !errors.Is(err, ErrInvalidScores) {
		t.Errorf("Expected ErrInvalidScores for short logits, got %v", err)
	}
}
