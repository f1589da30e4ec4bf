// Package panoprobe estimates how hard a Street View location is to guess.
//
// A Prober looks up the panorama at a coordinate, stitches its tiles into an
// equirectangular image, cuts directional views out of it and scores each view
// against a fixed catalog of visual prompts. Per-view scores are turned into a
// difficulty rating by a weighted feature table, combined across views and,
// when an OCR engine is available, adjusted by how much readable text the
// location shows.
//
// Basic usage:
//
//	locator := streetview.NewClient(streetview.Config{APIKey: key}, logger)
//	stitcher := panorama.NewStitcher(locator, logger)
//	clip, _ := clipserver.NewClient(clipserver.Config{URL: "http://localhost:8001"})
//	prober := panoprobe.New(locator, stitcher, similarity.NewScorer(clip), nil, logger)
//
//	res, err := prober.Analyze(ctx, panoprobe.Request{Lat: 48.8584, Lng: 2.2945})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("difficulty %d/5 (%s)\n", res.Analysis.Difficulty, res.Analysis.SceneType)
//
// The package consists of these components:
//
// 1. Street View (pkg/streetview): metadata lookup and tile download
// 2. Panorama (pkg/panorama): tile stitching and directional crops
// 3. Similarity (pkg/similarity): prompt scoring over a CLIP or Ollama backend
// 4. Difficulty (pkg/difficulty): feature table, view interpretation and aggregation
// 5. OCR (pkg/ocr): optional text reading used to refine the rating
package panoprobe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/pano-probe/pkg/difficulty"
	"github.com/menta2k/pano-probe/pkg/ocr"
	"github.com/menta2k/pano-probe/pkg/panorama"
	"github.com/menta2k/pano-probe/pkg/processing"
	"github.com/menta2k/pano-probe/pkg/streetview"
	"github.com/menta2k/pano-probe/pkg/types"
)

// Version is the current version of the library
const Version = "1.0.0"

const (
	MethodSimilarity = "clip"
	MethodWithOCR    = "clip+ocr"
)

var (
	// ErrAnalysisFailed is returned when the similarity model fails on any view
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrStreetViewUnavailable is returned when no Street View client is configured
	ErrStreetViewUnavailable = errors.New("street view unavailable")
)

// Locator resolves a coordinate to the nearest panorama
type Locator interface {
	Locate(ctx context.Context, lat, lng float64) (streetview.Metadata, error)
	Available() bool
}

// PanoramaSource assembles the full equirectangular image of a panorama
type PanoramaSource interface {
	Stitch(ctx context.Context, panoID string, zoom int) (*panorama.Panorama, error)
}

// Scorer rates one view against the prompt catalog
type Scorer interface {
	Score(ctx context.Context, img image.Image) (types.PromptScore, error)
	Name() string
}

// TextDetector reads text from one view. Failures are reported as empty results.
type TextDetector interface {
	Detect(ctx context.Context, img image.Image) types.OCRResult
}

// Options tune the analysis pipeline
type Options struct {
	Zoom            int
	DefaultViews    int
	ViewConcurrency int
	DebugImageSize  int
}

// DefaultOptions returns the default pipeline options
func DefaultOptions() Options {
	return Options{
		Zoom:            panorama.DefaultZoom,
		DefaultViews:    8,
		ViewConcurrency: 2,
		DebugImageSize:  320,
	}
}

// Request describes one location to analyze
type Request struct {
	Lat           float64
	Lng           float64
	PanoID        string
	NumViews      int
	IncludeImages bool
}

// Result is the outcome of analyzing one location
type Result struct {
	RequestID    string                    `json:"request_id"`
	PanoID       string                    `json:"pano_id"`
	Location     types.Coordinates         `json:"location"`
	Date         string                    `json:"date,omitempty"`
	Zoom         int                       `json:"zoom"`
	MissingTiles int                       `json:"missing_tiles"`
	Views        []types.ViewAnalysis      `json:"views"`
	ViewOCR      []types.OCRResult         `json:"view_ocr,omitempty"`
	OCR          *types.AggregateOCRResult `json:"ocr,omitempty"`
	Similarity   types.AggregateAnalysis   `json:"similarity"`
	Analysis     types.AggregateAnalysis   `json:"analysis"`
	Method       string                    `json:"method"`
	Images       map[string]string         `json:"images,omitempty"`
	Duration     time.Duration             `json:"duration"`

	// Panorama and Crops are kept for callers that want to save the imagery.
	Panorama *panorama.Panorama `json:"-"`
	Crops    []panorama.View    `json:"-"`
}

// Capabilities reports which backends the prober can use
type Capabilities struct {
	Similarity string `json:"similarity"`
	OCR        bool   `json:"ocr"`
	StreetView bool   `json:"streetview"`
}

// Prober runs the location analysis pipeline
type Prober struct {
	locator   Locator
	source    PanoramaSource
	scorer    Scorer
	text      TextDetector
	processor *processing.Processor
	options   Options
	logger    *logrus.Logger
}

// New creates a prober with default options. text may be nil when no OCR
// engine is available.
func New(locator Locator, source PanoramaSource, scorer Scorer, text TextDetector, logger *logrus.Logger) *Prober {
	return NewWithOptions(locator, source, scorer, text, DefaultOptions(), logger)
}

// NewWithOptions creates a prober with custom options
func NewWithOptions(locator Locator, source PanoramaSource, scorer Scorer, text TextDetector, options Options, logger *logrus.Logger) *Prober {
	defaults := DefaultOptions()
	if options.DefaultViews == 0 {
		options.DefaultViews = defaults.DefaultViews
	}
	if options.ViewConcurrency <= 0 {
		options.ViewConcurrency = defaults.ViewConcurrency
	}
	if options.DebugImageSize <= 0 {
		options.DebugImageSize = defaults.DebugImageSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Prober{
		locator:   locator,
		source:    source,
		scorer:    scorer,
		text:      text,
		processor: processing.NewProcessor(),
		options:   options,
		logger:    logger,
	}
}

// OCRAvailable reports whether results are refined with OCR
func (p *Prober) OCRAvailable() bool { return p.text != nil }

// StreetViewAvailable reports whether locations can be looked up
func (p *Prober) StreetViewAvailable() bool {
	return p.locator != nil && p.source != nil && p.locator.Available()
}

// Capabilities describes the configured backends
func (p *Prober) Capabilities() Capabilities {
	return Capabilities{
		Similarity: p.scorer.Name(),
		OCR:        p.OCRAvailable(),
		StreetView: p.StreetViewAvailable(),
	}
}

// Analyze looks up, stitches and rates the panorama nearest to the requested
// coordinate.
func (p *Prober) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{
		RequestID: uuid.NewString(),
		PanoID:    req.PanoID,
		Location:  types.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Zoom:      p.options.Zoom,
	}
	log := p.logger.WithField("request_id", res.RequestID)

	if !p.StreetViewAvailable() {
		return nil, ErrStreetViewUnavailable
	}

	if res.PanoID == "" {
		meta, err := p.locator.Locate(ctx, req.Lat, req.Lng)
		if err != nil {
			return nil, fmt.Errorf("locating panorama: %w", err)
		}
		res.PanoID = meta.PanoID
		res.Date = meta.Date
		if meta.Location.Lat != 0 || meta.Location.Lng != 0 {
			res.Location = meta.Location
		}
	}
	log = log.WithField("pano_id", res.PanoID)

	pano, err := p.source.Stitch(ctx, res.PanoID, p.options.Zoom)
	if err != nil {
		return nil, fmt.Errorf("stitching panorama: %w", err)
	}
	if !pano.Complete() {
		log.Warnf("Panorama stitched with %d missing tiles", len(pano.MissingTiles))
	}

	if err := p.analyzePanorama(ctx, log, pano, req.NumViews, req.IncludeImages, res); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"difficulty": res.Analysis.Difficulty,
		"scene":      res.Analysis.SceneType,
		"method":     res.Method,
		"duration":   res.Duration.Round(time.Millisecond),
	}).Info("Location analyzed")
	return res, nil
}

// AnalyzeImage rates an equirectangular image that is already on hand, such
// as a panorama saved to disk.
func (p *Prober) AnalyzeImage(ctx context.Context, img image.Image, numViews int, includeImages bool) (*Result, error) {
	if err := panorama.Validate(img); err != nil {
		return nil, err
	}
	start := time.Now()
	pano := &panorama.Panorama{Image: imaging.Clone(img), Zoom: -1}
	res := &Result{RequestID: uuid.NewString(), Zoom: -1}
	log := p.logger.WithField("request_id", res.RequestID)

	if err := p.analyzePanorama(ctx, log, pano, numViews, includeImages, res); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (p *Prober) analyzePanorama(ctx context.Context, log *logrus.Entry, pano *panorama.Panorama, numViews int, includeImages bool, res *Result) error {
	if numViews == 0 {
		numViews = p.options.DefaultViews
	}
	views, err := panorama.Views(pano.Image, numViews)
	if err != nil {
		return err
	}
	res.Panorama = pano
	res.Crops = views
	res.MissingTiles = len(pano.MissingTiles)

	analyses := make([]types.ViewAnalysis, len(views))
	var texts []types.OCRResult
	if p.text != nil {
		texts = make([]types.OCRResult, len(views))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.ViewConcurrency)
	for i, v := range views {
		i, v := i, v
		g.Go(func() error {
			scores, err := p.scorer.Score(gctx, v.Image)
			if err != nil {
				return fmt.Errorf("%w: %s view: %v", ErrAnalysisFailed, v.Direction, err)
			}
			a := difficulty.Interpret(scores)
			a.Direction = v.Direction
			a.Heading = v.Heading
			analyses[i] = a

			if p.text != nil {
				texts[i] = p.text.Detect(gctx, v.Image)
			}
			log.WithFields(logrus.Fields{
				"direction":  v.Direction,
				"difficulty": a.Difficulty,
			}).Debug("View analyzed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	agg, err := difficulty.Aggregate(analyses)
	if err != nil {
		return err
	}
	res.Views = analyses
	res.Similarity = agg
	res.Analysis = agg
	res.Method = MethodSimilarity

	if p.text != nil {
		summary := ocr.Aggregate(texts)
		res.ViewOCR = texts
		res.OCR = &summary
		res.Analysis = difficulty.Fuse(agg, summary)
		res.Method = MethodWithOCR
	}

	if includeImages {
		res.Images = p.debugImages(log, views)
	}
	return nil
}

// debugImages encodes a thumbnail of every view, keyed by direction
func (p *Prober) debugImages(log *logrus.Entry, views []panorama.View) map[string]string {
	images := make(map[string]string, len(views))
	for _, v := range views {
		dataURL, err := p.processor.EncodeDataURL(v.Image, "jpg", p.options.DebugImageSize, 80)
		if err != nil {
			log.WithField("direction", v.Direction).Warnf("Failed to encode debug image: %v", err)
			continue
		}
		images[v.Direction] = dataURL
	}
	return images
}
