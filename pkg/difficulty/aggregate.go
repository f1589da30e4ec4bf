package difficulty

import (
	"errors"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/types"
)

// ErrNoViews is returned when aggregating an empty set of views
var ErrNoViews = errors.New("no views to aggregate")

// Aggregate combines per-view analyses of one location.
//
// Numeric fields are averaged; the mean difficulty is rounded but not clamped
// again. Flags are OR-ed, the scene type is the mode (first seen wins a tie)
// and insights are de-duplicated in first-seen order.
func Aggregate(views []types.ViewAnalysis) (types.AggregateAnalysis, error) {
	if len(views) == 0 {
		return types.AggregateAnalysis{}, ErrNoViews
	}
	n := float64(len(views))

	var sumDifficulty, sumConfidence, sumRaw float64
	agg := types.AggregateAnalysis{NumViews: len(views)}
	for _, v := range views {
		sumDifficulty += float64(v.Difficulty)
		sumConfidence += v.Confidence
		sumRaw += v.RawDifficultyScore

		agg.HasText = agg.HasText || v.Flags[FlagText]
		agg.HasLandmark = agg.HasLandmark || v.Flags[FlagLandmark]
		agg.IsGeneric = agg.IsGeneric || v.Flags[FlagGeneric]
		agg.IsUrban = agg.IsUrban || v.Flags[FlagUrban]
	}

	agg.Difficulty = roundScore(sumDifficulty / n)
	agg.Confidence = sumConfidence / n
	agg.RawDifficultyScore = sumRaw / n
	agg.Scores = meanScores(views)
	agg.SceneType = modalScene(views)
	agg.Insights = mergeInsights(views)
	return agg, nil
}

func meanScores(views []types.ViewAnalysis) types.PromptScore {
	out := make(types.PromptScore, catalog.Len())
	for _, p := range catalog.Prompts() {
		var sum float64
		for _, v := range views {
			sum += v.Scores[p]
		}
		out[p] = sum / float64(len(views))
	}
	return out
}

func modalScene(views []types.ViewAnalysis) types.SceneType {
	counts := map[types.SceneType]int{}
	var order []types.SceneType
	for _, v := range views {
		if counts[v.SceneType] == 0 {
			order = append(order, v.SceneType)
		}
		counts[v.SceneType]++
	}

	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

func mergeInsights(views []types.ViewAnalysis) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range views {
		for _, in := range v.Insights {
			if _, ok := seen[in]; ok {
				continue
			}
			seen[in] = struct{}{}
			out = append(out, in)
		}
	}
	return out
}
