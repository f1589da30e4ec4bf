package difficulty

import (
	"fmt"
	"math"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/types"
)

const (
	// OCR evidence needed before the difficulty is lowered
	reductionMinWords      = 10
	reductionMinConfidence = 0.5

	businessConfidenceFactor = 0.8
)

// ReductionInsight is appended when OCR evidence lowered the difficulty
const ReductionInsight = "📉 Difficulty lowered: OCR found plenty of readable text"

// Fuse folds aggregated OCR statistics into a copy of agg. The input is never
// modified. Without OCR words, or when agg was already fused, the copy is
// returned unchanged.
func Fuse(agg types.AggregateAnalysis, ocr types.AggregateOCRResult) types.AggregateAnalysis {
	out := clone(agg)
	if ocr.TotalWords <= 0 || agg.OCRFused {
		return out
	}

	out.HasText = true
	out.Insights = append([]string{ocrSummary(ocr)}, out.Insights...)

	if out.Scores == nil {
		out.Scores = types.PromptScore{}
	}
	out.Scores[catalog.Text] = math.Max(out.Scores[catalog.Text], ocr.AvgConfidence)
	out.Scores[catalog.Businesses] = math.Max(out.Scores[catalog.Businesses], ocr.AvgConfidence*businessConfidenceFactor)

	if ocr.TotalWords > reductionMinWords && ocr.AvgConfidence > reductionMinConfidence {
		lowered := out.Difficulty - 1
		if lowered < MinDifficulty {
			lowered = MinDifficulty
		}
		if lowered != out.Difficulty {
			out.Difficulty = lowered
			out.Insights = append(out.Insights, ReductionInsight)
		}
	}

	out.OCRFused = true
	return out
}

func ocrSummary(ocr types.AggregateOCRResult) string {
	return fmt.Sprintf("📝 OCR read %d words in %d/%d views (%.0f%% confidence)",
		ocr.TotalWords, ocr.ViewsWithText, ocr.TotalViews, ocr.AvgConfidence*100)
}

func clone(agg types.AggregateAnalysis) types.AggregateAnalysis {
	out := agg
	if agg.Scores != nil {
		out.Scores = agg.Scores.Clone()
	}
	out.Insights = append([]string(nil), agg.Insights...)
	return out
}
