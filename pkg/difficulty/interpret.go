// Package difficulty turns prompt similarity scores into a difficulty rating.
//
// Interpret handles a single view, Aggregate combines the views of one
// location and Fuse folds multi-view OCR statistics into the aggregate.
// Everything here is pure and deterministic.
package difficulty

import (
	"math"

	"github.com/menta2k/pano-probe/pkg/types"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	confidenceScale = 1.5
)

// Interpret thresholds scores into flags and derives the difficulty, confidence,
// scene type and insights of one view. Missing prompts count as zero.
func Interpret(scores types.PromptScore) types.ViewAnalysis {
	flags := make(types.FeatureFlags, len(Table))
	raw := BaseScore
	for _, f := range Table {
		on := scores[f.Prompt] > f.Threshold
		flags[f.Flag] = on
		if on {
			raw += f.Weight
		}
	}

	return types.ViewAnalysis{
		Scores:             scores.Clone(),
		Flags:              flags,
		Difficulty:         clampDifficulty(roundScore(raw)),
		Confidence:         math.Min(1.0, scores.Max()*confidenceScale),
		SceneType:          sceneType(scores),
		Insights:           insights(flags),
		RawDifficultyScore: raw,
	}
}

// roundScore rounds half to even, so 1.5 and 2.5 both land on 2.
func roundScore(v float64) int {
	return int(math.RoundToEven(v))
}

func clampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

func sceneType(scores types.PromptScore) types.SceneType {
	best := sceneOrder[0]
	bestScore := scores[best.prompt]
	for _, s := range sceneOrder[1:] {
		if v := scores[s.prompt]; v > bestScore {
			best, bestScore = s, v
		}
	}
	return best.scene
}

func insights(flags types.FeatureFlags) []string {
	out := []string{}
	for _, flag := range InsightOrder {
		if !flags[flag] {
			continue
		}
		if f, ok := byFlag[flag]; ok && f.Insight != "" {
			out = append(out, f.Insight)
		}
	}
	return out
}
