package difficulty

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/types"
)

func baseAggregate(difficulty int) types.AggregateAnalysis {
	return types.AggregateAnalysis{
		Difficulty: difficulty,
		Confidence: 0.4,
		Scores: scoresWith(map[string]float64{
			catalog.Text:       0.1,
			catalog.Businesses: 0.7,
		}),
		SceneType: types.SceneUrban,
		Insights:  []string{"🏙️ Urban environment detected"},
		NumViews:  8,
	}
}

func TestFuseWithoutWords(t *testing.T) {
	agg := baseAggregate(3)
	out := Fuse(agg, types.AggregateOCRResult{TotalViews: 8})
	if !reflect.DeepEqual(out, agg) {
		t.Errorf("Expected the aggregate unchanged, got %+v", out)
	}
}

func TestFuseLowersDifficulty(t *testing.T) {
	agg := baseAggregate(3)
	ocr := types.AggregateOCRResult{HasText: true, TotalWords: 15, AvgConfidence: 0.6, ViewsWithText: 3, TotalViews: 8}
	out := Fuse(agg, ocr)

	if out.Difficulty != 2 {
		t.Errorf("Expected difficulty 2, got %d", out.Difficulty)
	}
	if !out.HasText || !out.OCRFused {
		t.Error("Expected has_text and the fused marker to be set")
	}
	if len(out.Insights) != 3 {
		t.Fatalf("Expected 3 insights, got %v", out.Insights)
	}
	if !strings.Contains(out.Insights[0], "15 words") || !strings.Contains(out.Insights[0], "3/8 views") {
		t.Errorf("Expected OCR summary first, got %q", out.Insights[0])
	}
	if out.Insights[2] != ReductionInsight {
		t.Errorf("Expected reduction insight last, got %q", out.Insights[2])
	}
	if out.Scores[catalog.Text] != 0.6 {
		t.Errorf("Expected text score raised to 0.6, got %v", out.Scores[catalog.Text])
	}
	// business score already above 0.6*0.8
	if out.Scores[catalog.Businesses] != 0.7 {
		t.Errorf("Expected business score kept at 0.7, got %v", out.Scores[catalog.Businesses])
	}
}

func TestFuseRaisesBusinessScore(t *testing.T) {
	agg := baseAggregate(3)
	agg.Scores[catalog.Businesses] = 0.1
	out := Fuse(agg, types.AggregateOCRResult{TotalWords: 4, AvgConfidence: 0.9, ViewsWithText: 1, TotalViews: 8})

	if math.Abs(out.Scores[catalog.Businesses]-0.72) > 1e-9 {
		t.Errorf("Expected business score 0.72, got %v", out.Scores[catalog.Businesses])
	}
	if out.Difficulty != 3 {
		t.Errorf("Expected no reduction below 11 words, got %d", out.Difficulty)
	}
	if len(out.Insights) != 2 {
		t.Errorf("Expected only the summary to be added, got %v", out.Insights)
	}
}

func TestFuseNoReductionAtLowConfidence(t *testing.T) {
	out := Fuse(baseAggregate(3), types.AggregateOCRResult{TotalWords: 40, AvgConfidence: 0.5, ViewsWithText: 4, TotalViews: 8})
	if out.Difficulty != 3 {
		t.Errorf("Expected difficulty unchanged at confidence 0.5, got %d", out.Difficulty)
	}
}

func TestFuseFloorsAtOne(t *testing.T) {
	out := Fuse(baseAggregate(1), types.AggregateOCRResult{TotalWords: 20, AvgConfidence: 0.8, ViewsWithText: 2, TotalViews: 8})
	if out.Difficulty != 1 {
		t.Errorf("Expected difficulty to stay at 1, got %d", out.Difficulty)
	}
	for _, in := range out.Insights {
		if in == ReductionInsight {
			t.Error("Reduction insight must only be added when the difficulty changed")
		}
	}
}

func TestFuseTwiceDoesNotDoubleDecrement(t *testing.T) {
	ocr := types.AggregateOCRResult{TotalWords: 15, AvgConfidence: 0.6, ViewsWithText: 3, TotalViews: 8}
	once := Fuse(baseAggregate(4), ocr)
	twice := Fuse(once, ocr)

	if twice.Difficulty != 3 {
		t.Errorf("Expected difficulty 3 after repeated fusion, got %d", twice.Difficulty)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("Expected repeated fusion to be a no-op")
	}
}

func TestFuseDoesNotMutateInput(t *testing.T) {
	agg := baseAggregate(3)
	_ = Fuse(agg, types.AggregateOCRResult{TotalWords: 15, AvgConfidence: 0.6, ViewsWithText: 3, TotalViews: 8})

	if agg.Difficulty != 3 || agg.HasText || agg.OCRFused {
		t.Errorf("Input aggregate was modified: %+v", agg)
	}
	if len(agg.Insights) != 1 {
		t.Errorf("Input insights were modified: %v", agg.Insights)
	}
	if agg.Scores[catalog.Text] != 0.1 {
		t.Errorf("Input scores were modified: %v", agg.Scores[catalog.Text])
	}
}
