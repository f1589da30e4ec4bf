package ocr

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/pano-probe/pkg/types"
)

type fakeEngine struct {
	fragments []types.TextFragment
	err       error
}

func (f *fakeEngine) ReadText(ctx context.Context, imgB64 string) ([]types.TextFragment, error) {
	return f.fragments, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func frag(text string, conf float64) types.TextFragment {
	return types.TextFragment{Text: text, Confidence: conf}
}

func TestSummarize(t *testing.T) {
	res := Summarize([]types.TextFragment{
		frag("RUA DAS", 0.9),
		frag("noise", 0.3),
		frag("FLORES", 0.7),
		frag("x", 0.1),
	}, DefaultMinConfidence)

	if res.DetectedText != "RUA DAS FLORES" {
		t.Errorf("Expected joined text, got %q", res.DetectedText)
	}
	if res.WordCount != 3 {
		t.Errorf("Expected 3 words, got %d", res.WordCount)
	}
	if res.TextBoxes != 2 {
		t.Errorf("Expected 2 text boxes, got %d", res.TextBoxes)
	}
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Errorf("Expected mean confidence 0.8, got %v", res.Confidence)
	}
	if !res.HasText {
		t.Error("Expected has_text")
	}
	if res.TextLength != len("RUA DAS FLORES") {
		t.Errorf("Expected text length %d, got %d", len("RUA DAS FLORES"), res.TextLength)
	}
}

func TestSummarizeHasTextRules(t *testing.T) {
	tests := []struct {
		name      string
		fragments []types.TextFragment
		want      bool
	}{
		{"single word", []types.TextFragment{frag("STOP", 0.99)}, false},
		{"two words", []types.TextFragment{frag("STOP", 0.99), frag("AHEAD", 0.9)}, true},
		{"two words in one fragment", []types.TextFragment{frag("STOP SIGN", 0.5)}, true},
		{"low mean confidence", []types.TextFragment{frag("foo bar", 0.35)}, false},
		{"nothing above filter", []types.TextFragment{frag("foo bar", 0.2)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.fragments, DefaultMinConfidence).HasText; got != tt.want {
				t.Errorf("Expected has_text %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSummarizeCaps(t *testing.T) {
	var fragments []types.TextFragment
	for i := 0; i < 40; i++ {
		fragments = append(fragments, frag(strings.Repeat("é", 20), 0.8))
	}
	res := Summarize(fragments, DefaultMinConfidence)

	if n := len([]rune(res.DetectedText)); n != maxDetectedText {
		t.Errorf("Expected detected text capped at %d runes, got %d", maxDetectedText, n)
	}
	if res.TextLength != 40*20+39 {
		t.Errorf("Expected full text length %d, got %d", 40*20+39, res.TextLength)
	}
	if len(res.Fragments) != maxFragments {
		t.Errorf("Expected %d fragments kept, got %d", maxFragments, len(res.Fragments))
	}
	if res.TextBoxes != 40 {
		t.Errorf("Expected 40 text boxes, got %d", res.TextBoxes)
	}
}

func TestDetectEngineFailure(t *testing.T) {
	d := NewDetector(&fakeEngine{err: errors.New("model not loaded")}, quietLogger())
	res := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 16, 16)))
	if res.HasText || res.WordCount != 0 || res.DetectedText != "" || res.TextBoxes != 0 {
		t.Errorf("Expected zero result on engine failure, got %+v", res)
	}
}

func TestDetect(t *testing.T) {
	d := NewDetector(&fakeEngine{fragments: []types.TextFragment{frag("Main", 0.9), frag("Street", 0.8)}}, quietLogger())
	res := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 16, 16)))
	if !res.HasText || res.WordCount != 2 {
		t.Errorf("Expected 2 words of text, got %+v", res)
	}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]types.OCRResult{
		{HasText: true, WordCount: 10, Confidence: 0.7},
		{HasText: false, WordCount: 1, Confidence: 0.9},
		{HasText: true, WordCount: 5, Confidence: 0.5},
		{},
	})
	if agg.TotalWords != 15 {
		t.Errorf("Expected 15 words from views with text, got %d", agg.TotalWords)
	}
	if agg.ViewsWithText != 2 || agg.TotalViews != 4 {
		t.Errorf("Expected 2/4 views with text, got %d/%d", agg.ViewsWithText, agg.TotalViews)
	}
	if math.Abs(agg.AvgConfidence-0.6) > 1e-9 {
		t.Errorf("Expected average confidence 0.6, got %v", agg.AvgConfidence)
	}
	if !agg.HasText {
		t.Error("Expected has_text")
	}

	empty := Aggregate([]types.OCRResult{{}, {}})
	if empty.HasText || empty.AvgConfidence != 0 || empty.TotalWords != 0 {
		t.Errorf("Expected empty aggregate, got %+v", empty)
	}
}
