package difficulty

import (
	"math"
	"reflect"
	"testing"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/types"
)

// scoresWith builds a full catalog score map with every prompt at zero except the given ones
func scoresWith(set map[string]float64) types.PromptScore {
	s := make(types.PromptScore, catalog.Len())
	for _, p := range catalog.Prompts() {
		s[p] = 0
	}
	for p, v := range set {
		s[p] = v
	}
	return s
}

func TestTableCoversCatalog(t *testing.T) {
	if len(Table) != catalog.Len() {
		t.Fatalf("Expected %d features, got %d", catalog.Len(), len(Table))
	}
	seen := map[string]bool{}
	for _, f := range Table {
		if !catalog.Contains(f.Prompt) {
			t.Errorf("Feature %s references unknown prompt %q", f.Flag, f.Prompt)
		}
		if seen[f.Prompt] {
			t.Errorf("Prompt %q bound twice", f.Prompt)
		}
		seen[f.Prompt] = true
	}
	for _, flag := range InsightOrder {
		f, ok := Lookup(flag)
		if !ok {
			t.Errorf("Insight order names unknown flag %s", flag)
			continue
		}
		if f.Insight == "" {
			t.Errorf("Flag %s is in the insight order but has no insight text", flag)
		}
	}
}

func TestFeatureTableValues(t *testing.T) {
	tests := []struct {
		flag      string
		prompt    string
		threshold float64
		weight    float64
		insight   string
	}{
		{FlagLandmark, catalog.Landmark, 0.15, -1.5, "🏛️ Famous landmark detected"},
		{FlagFlags, catalog.Flags, 0.15, -1.3, "🚩 Country flags or national symbols detected"},
		{FlagText, catalog.Text, 0.15, -1.0, "🔤 Readable text/signs detected"},
		{FlagBusinesses, catalog.Businesses, 0.15, -0.8, "🏪 Business signs/storefronts detected"},
		{FlagRoadSigns, catalog.RoadSigns, 0.15, -0.7, "🚸 Colored road signs detected"},
		{FlagBollards, catalog.Bollards, 0.15, -0.7, "🚧 Road bollards/marker posts detected"},
		{FlagKmMarkers, catalog.KmMarkers, 0.15, -0.6, "📏 Kilometer/mile markers detected"},
		{FlagLicensePlate, catalog.LicensePlate, 0.15, -0.6, "🚗 License plate visible"},
		{FlagStreetLights, catalog.StreetLights, 0.15, -0.5, "💡 Distinctive street lights detected"},
		{FlagArchitecture, catalog.Architecture, 0.15, -0.7, "🏗️ Distinctive architecture detected"},
		{FlagUrban, catalog.Urban, 0.15, -0.5, "🏙️ Urban environment detected"},
		{FlagPalmTrees, catalog.PalmTrees, 0.15, -0.4, "🌴 Palm trees detected (tropical/subtropical)"},
		{FlagSnow, catalog.Snow, 0.15, -0.4, "❄️ Snow detected (cold climate)"},
		{FlagRiceFields, catalog.RiceFields, 0.15, -0.4, "🌾 Rice fields/paddy fields detected"},
		{FlagYellowLines, catalog.YellowLines, 0.15, -0.3, "🟨 Yellow road markings detected"},
		{FlagRoundabout, catalog.Roundabout, 0.15, -0.3, "🔄 Roundabout/traffic circle detected"},
		{FlagGeneric, catalog.Generic, 0.2, 1.2, "🛣️ Generic road with no distinctive features"},
		{FlagRemote, catalog.Remote, 0.15, 1.0, "🏜️ Remote/rural area detected"},
		{FlagHighway, catalog.Highway, 0.15, 0.8, "🛤️ Highway/motorway detected"},
		{FlagDesert, catalog.Desert, 0.15, 0.6, "🏜️ Desert landscape detected"},
		{FlagBlurry, catalog.Blurry, 0.15, 0.5, "📷 Low image quality detected"},
		{FlagPowerLines, catalog.PowerLines, 0.15, 0, "⚡ Overhead power lines detected"},
		{FlagWhiteLines, catalog.WhiteLines, 0.15, 0, ""},
		{FlagVegetation, catalog.Vegetation, 0.15, 0, "🌿 Distinctive vegetation detected"},
		{FlagStreetViewCar, catalog.StreetViewCar, 0.15, 0, "📸 Street View car shadow/reflection visible"},
	}
	if len(tests) != len(Table) {
		t.Fatalf("Expected %d features, table has %d", len(tests), len(Table))
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f, ok := Lookup(tt.flag)
			if !ok {
				t.Fatalf("Flag %s not in table", tt.flag)
			}
			if f.Prompt != tt.prompt {
				t.Errorf("Expected prompt %q, got %q", tt.prompt, f.Prompt)
			}
			if f.Threshold != tt.threshold {
				t.Errorf("Expected threshold %v, got %v", tt.threshold, f.Threshold)
			}
			if f.Weight != tt.weight {
				t.Errorf("Expected weight %v, got %v", tt.weight, f.Weight)
			}
			if f.Insight != tt.insight {
				t.Errorf("Expected insight %q, got %q", tt.insight, f.Insight)
			}

			// Just above the threshold the flag fires and moves the raw score by the weight.
			view := Interpret(scoresWith(map[string]float64{tt.prompt: tt.threshold + 0.01}))
			if !view.Flags[tt.flag] {
				t.Errorf("Expected %s set above %v", tt.flag, tt.threshold)
			}
			if got := view.RawDifficultyScore; math.Abs(got-(3.0+tt.weight)) > 1e-9 {
				t.Errorf("Expected raw score %.2f, got %.2f", 3.0+tt.weight, got)
			}

			// At the threshold it does not.
			view = Interpret(scoresWith(map[string]float64{tt.prompt: tt.threshold}))
			if view.Flags[tt.flag] || view.RawDifficultyScore != 3.0 {
				t.Errorf("Expected %s unset at %v, raw score %.2f", tt.flag, tt.threshold, view.RawDifficultyScore)
			}
		})
	}
}

func TestInterpretSingleFeatureWeights(t *testing.T) {
	for _, f := range Table {
		t.Run(f.Flag, func(t *testing.T) {
			view := Interpret(scoresWith(map[string]float64{f.Prompt: 0.5}))

			if want := BaseScore + f.Weight; view.RawDifficultyScore != want {
				t.Errorf("Expected raw score %.2f, got %.2f", want, view.RawDifficultyScore)
			}
			for flag, on := range view.Flags {
				if on != (flag == f.Flag) {
					t.Errorf("Flag %s: expected %v, got %v", flag, flag == f.Flag, on)
				}
			}
			var wantInsights []string
			if f.Insight != "" {
				wantInsights = []string{f.Insight}
			}
			if len(view.Insights) != len(wantInsights) || (len(wantInsights) == 1 && view.Insights[0] != wantInsights[0]) {
				t.Errorf("Expected insights %v, got %v", wantInsights, view.Insights)
			}
		})
	}
}

func TestInterpretLandmarkDominant(t *testing.T) {
	view := Interpret(scoresWith(map[string]float64{catalog.Landmark: 0.3}))

	if view.RawDifficultyScore != 1.5 {
		t.Errorf("Expected raw score 1.5, got %v", view.RawDifficultyScore)
	}
	if view.Difficulty != 2 {
		t.Errorf("Expected difficulty 2, got %d", view.Difficulty)
	}
	if view.SceneType != types.SceneLandmark {
		t.Errorf("Expected scene landmark, got %s", view.SceneType)
	}
	if math.Abs(view.Confidence-0.45) > 1e-9 {
		t.Errorf("Expected confidence 0.45, got %v", view.Confidence)
	}
	if !reflect.DeepEqual(view.Insights, []string{"🏛️ Famous landmark detected"}) {
		t.Errorf("Unexpected insights %v", view.Insights)
	}
}

func TestInterpretGenericRoad(t *testing.T) {
	view := Interpret(scoresWith(map[string]float64{catalog.Generic: 0.25}))

	if math.Abs(view.RawDifficultyScore-4.2) > 1e-9 {
		t.Errorf("Expected raw score 4.2, got %v", view.RawDifficultyScore)
	}
	if view.Difficulty != 4 {
		t.Errorf("Expected difficulty 4, got %d", view.Difficulty)
	}
	if !view.Flags[FlagGeneric] {
		t.Error("Expected is_generic to be set")
	}
	// all scene prompts are zero so the first scene wins
	if view.SceneType != types.SceneUrban {
		t.Errorf("Expected scene urban on a tie, got %s", view.SceneType)
	}
}

func TestInterpretThresholdsAreStrict(t *testing.T) {
	view := Interpret(scoresWith(map[string]float64{
		catalog.Generic: GenericThreshold,
		catalog.Text:    DefaultThreshold,
	}))
	if view.Flags[FlagGeneric] {
		t.Error("Generic score equal to its threshold must not set the flag")
	}
	if view.Flags[FlagText] {
		t.Error("Text score equal to its threshold must not set the flag")
	}

	view = Interpret(scoresWith(map[string]float64{catalog.Generic: 0.18}))
	if view.Flags[FlagGeneric] {
		t.Error("Generic uses the stricter 0.2 threshold")
	}
}

func TestInterpretClamps(t *testing.T) {
	easy := Interpret(scoresWith(map[string]float64{
		catalog.Landmark:   0.2,
		catalog.Flags:      0.2,
		catalog.Text:       0.2,
		catalog.Businesses: 0.2,
	}))
	if easy.Difficulty != MinDifficulty {
		t.Errorf("Expected difficulty %d, got %d (raw %.2f)", MinDifficulty, easy.Difficulty, easy.RawDifficultyScore)
	}
	if easy.RawDifficultyScore >= 0 {
		t.Errorf("Expected negative raw score to be kept unclamped, got %.2f", easy.RawDifficultyScore)
	}

	hard := Interpret(scoresWith(map[string]float64{
		catalog.Generic: 0.21,
		catalog.Remote:  0.2,
		catalog.Highway: 0.2,
		catalog.Desert:  0.2,
		catalog.Blurry:  0.19,
	}))
	if hard.Difficulty != MaxDifficulty {
		t.Errorf("Expected difficulty %d, got %d (raw %.2f)", MaxDifficulty, hard.Difficulty, hard.RawDifficultyScore)
	}
}

func TestInterpretSceneTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   types.SceneType
	}{
		{"urban beats rural on tie", map[string]float64{catalog.Urban: 0.3, catalog.Remote: 0.3}, types.SceneUrban},
		{"rural beats highway on tie", map[string]float64{catalog.Remote: 0.2, catalog.Highway: 0.2}, types.SceneRural},
		{"highway max", map[string]float64{catalog.Highway: 0.4, catalog.Urban: 0.1}, types.SceneHighway},
		{"landmark max", map[string]float64{catalog.Landmark: 0.25, catalog.Remote: 0.24}, types.SceneLandmark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Interpret(scoresWith(tt.scores)).SceneType; got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestInterpretInsightOrder(t *testing.T) {
	view := Interpret(scoresWith(map[string]float64{
		catalog.Generic:    0.21,
		catalog.PalmTrees:  0.16,
		catalog.Urban:      0.16,
		catalog.Landmark:   0.16,
		catalog.PowerLines: 0.16,
		catalog.WhiteLines: 0.16,
	}))
	want := []string{
		"🏛️ Famous landmark detected",
		"🏙️ Urban environment detected",
		"🌴 Palm trees detected (tropical/subtropical)",
		"⚡ Overhead power lines detected",
		"🛣️ Generic road with no distinctive features",
	}
	if !reflect.DeepEqual(view.Insights, want) {
		t.Errorf("Expected insights\n%v\ngot\n%v", want, view.Insights)
	}
}

func TestInterpretIsDeterministic(t *testing.T) {
	scores := scoresWith(map[string]float64{catalog.Text: 0.2, catalog.Snow: 0.3})
	a := Interpret(scores)
	b := Interpret(scores)
	if !reflect.DeepEqual(a, b) {
		t.Error("Interpret returned different results for identical input")
	}

	scores[catalog.Text] = 0
	if !a.Flags[FlagText] || a.Scores[catalog.Text] != 0.2 {
		t.Error("View analysis must not alias the caller's score map")
	}
}
