package types

// Coordinates is a WGS84 latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PromptScore maps each catalog prompt to its softmax probability for one image.
// Values sum to 1 within floating tolerance.
type PromptScore map[string]float64

// Clone returns an independent copy of the scores
func (s PromptScore) Clone() PromptScore {
	out := make(PromptScore, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Max returns the largest score, 0 for an empty mapping
func (s PromptScore) Max() float64 {
	best := 0.0
	for _, v := range s {
		if v > best {
			best = v
		}
	}
	return best
}

// FeatureFlags holds the thresholded boolean features of one image, keyed by flag name
type FeatureFlags map[string]bool

// SceneType is the dominant scene classification of a view
type SceneType string

const (
	SceneUrban    SceneType = "urban"
	SceneRural    SceneType = "rural"
	SceneHighway  SceneType = "highway"
	SceneLandmark SceneType = "landmark"
)

// ViewAnalysis is the interpretation of one directional crop
type ViewAnalysis struct {
	Direction          string       `json:"direction,omitempty"`
	Heading            float64      `json:"heading"`
	Scores             PromptScore  `json:"scores"`
	Flags              FeatureFlags `json:"flags"`
	Difficulty         int          `json:"difficulty"`
	Confidence         float64      `json:"confidence"`
	SceneType          SceneType    `json:"scene_type"`
	Insights           []string     `json:"insights"`
	RawDifficultyScore float64      `json:"raw_difficulty_score"`
}

// AggregateAnalysis combines the view analyses of one location
type AggregateAnalysis struct {
	Difficulty         int         `json:"difficulty"`
	Confidence         float64     `json:"confidence"`
	Scores             PromptScore `json:"scores"`
	HasText            bool        `json:"has_text"`
	HasLandmark        bool        `json:"has_landmark"`
	IsGeneric          bool        `json:"is_generic"`
	IsUrban            bool        `json:"is_urban"`
	SceneType          SceneType   `json:"scene_type"`
	Insights           []string    `json:"insights"`
	RawDifficultyScore float64     `json:"raw_difficulty_score"`
	NumViews           int         `json:"num_views"`
	// OCRFused marks an aggregate that already went through OCR fusion.
	OCRFused bool `json:"ocr_fused"`
}

// TextFragment is one piece of text read by the OCR engine
type TextFragment struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	BBox       [][2]float64 `json:"bbox,omitempty"`
}

// OCRResult summarizes the text found in one image
type OCRResult struct {
	HasText      bool           `json:"has_text"`
	WordCount    int            `json:"word_count"`
	Confidence   float64        `json:"confidence"`
	TextLength   int            `json:"text_length"`
	DetectedText string         `json:"detected_text"`
	TextBoxes    int            `json:"text_boxes"`
	Fragments    []TextFragment `json:"fragments,omitempty"`
}

// AggregateOCRResult summarizes OCR across all views of a location
type AggregateOCRResult struct {
	HasText       bool    `json:"has_text"`
	TotalWords    int     `json:"total_words"`
	AvgConfidence float64 `json:"avg_confidence"`
	ViewsWithText int     `json:"views_with_text"`
	TotalViews    int     `json:"total_views"`
}
