// Package ocr reads visible text from views and summarizes it across a location.
package ocr

import (
	"context"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/pano-probe/pkg/client"
	"github.com/menta2k/pano-probe/pkg/processing"
	"github.com/menta2k/pano-probe/pkg/types"
)

const (
	// DefaultMinConfidence drops fragments at or below this confidence
	DefaultMinConfidence = 0.3

	// meaningful text needs at least this many words above this mean confidence
	minWords          = 2
	minMeanConfidence = 0.35

	maxDetectedText = 500
	maxFragments    = 10
)

// Config controls fragment filtering and how images are sent to the engine
type Config struct {
	MinConfidence float64
	SendSize      int
	SendQuality   int
}

// Detector applies text-presence rules on top of a TextEngine
type Detector struct {
	engine    client.TextEngine
	processor *processing.Processor
	config    Config
	logger    *logrus.Logger
}

// NewDetector creates a detector with default configuration
func NewDetector(engine client.TextEngine, logger *logrus.Logger) *Detector {
	return NewDetectorWithConfig(engine, Config{MinConfidence: DefaultMinConfidence}, logger)
}

// NewDetectorWithConfig creates a detector with custom configuration
func NewDetectorWithConfig(engine client.TextEngine, config Config, logger *logrus.Logger) *Detector {
	if config.SendQuality <= 0 {
		config.SendQuality = 95
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Detector{
		engine:    engine,
		processor: processing.NewProcessor(),
		config:    config,
		logger:    logger,
	}
}

// Detect reads text from img. OCR is best effort: any engine failure is
// logged and reported as an empty result.
func (d *Detector) Detect(ctx context.Context, img image.Image) types.OCRResult {
	imgB64, err := d.processor.PrepareImageForModel(img, "jpg", d.config.SendSize, d.config.SendQuality)
	if err != nil {
		d.logger.Warnf("ocr: failed to encode image: %v", err)
		return types.OCRResult{}
	}
	fragments, err := d.engine.ReadText(ctx, imgB64)
	if err != nil {
		d.logger.Warnf("ocr: detection failed: %v", err)
		return types.OCRResult{}
	}
	return Summarize(fragments, d.config.MinConfidence)
}

// Summarize filters fragments by confidence and derives the text statistics
func Summarize(fragments []types.TextFragment, minConfidence float64) types.OCRResult {
	var kept []types.TextFragment
	var texts []string
	var sum float64
	for _, f := range fragments {
		if f.Confidence > minConfidence {
			kept = append(kept, f)
			texts = append(texts, f.Text)
			sum += f.Confidence
		}
	}
	if len(kept) == 0 {
		return types.OCRResult{}
	}

	combined := strings.Join(texts, " ")
	words := len(strings.Fields(combined))
	mean := sum / float64(len(kept))

	if len(kept) > maxFragments {
		kept = kept[:maxFragments]
	}
	return types.OCRResult{
		HasText:      words >= minWords && mean > minMeanConfidence,
		WordCount:    words,
		Confidence:   mean,
		TextLength:   utf8.RuneCountInString(combined),
		DetectedText: truncateRunes(combined, maxDetectedText),
		TextBoxes:    len(texts),
		Fragments:    kept,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Aggregate summarizes per-view OCR results. Only views with meaningful text
// contribute words and confidence.
func Aggregate(results []types.OCRResult) types.AggregateOCRResult {
	agg := types.AggregateOCRResult{TotalViews: len(results)}
	var sum float64
	for _, r := range results {
		if !r.HasText {
			continue
		}
		agg.TotalWords += r.WordCount
		agg.ViewsWithText++
		sum += r.Confidence
	}
	if agg.ViewsWithText > 0 {
		agg.AvgConfidence = sum / float64(agg.ViewsWithText)
		agg.HasText = true
	}
	return agg
}
