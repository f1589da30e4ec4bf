package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/difficulty"
	"github.com/menta2k/pano-probe/pkg/panorama"
	"github.com/menta2k/pano-probe/pkg/streetview"
	"github.com/menta2k/pano-probe/pkg/types"
)

const healthCheckTimeout = 3 * time.Second

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
	PanoID        string   `json:"pano_id"`
	NumViews      int      `json:"num_views"`
	IncludeImages bool     `json:"include_images"`
}

// SimilarityAnalysis is the prompt-similarity part of an analysis
type SimilarityAnalysis struct {
	Difficulty         int               `json:"difficulty"`
	Confidence         float64           `json:"confidence"`
	Insights           []string          `json:"insights"`
	SceneType          types.SceneType   `json:"scene_type"`
	HasText            bool              `json:"has_text"`
	HasLandmark        bool              `json:"has_landmark"`
	IsGeneric          bool              `json:"is_generic"`
	IsUrban            bool              `json:"is_urban"`
	RawDifficultyScore float64           `json:"raw_difficulty_score"`
	Scores             types.PromptScore `json:"scores"`
}

// AnalyzeResponse is the answer to POST /api/analyze
type AnalyzeResponse struct {
	RequestID          string                    `json:"request_id"`
	PanoID             string                    `json:"pano_id"`
	Location           types.Coordinates         `json:"location"`
	ClipAnalysis       SimilarityAnalysis        `json:"clip_analysis"`
	CombinedDifficulty int                       `json:"combined_difficulty"`
	CombinedConfidence float64                   `json:"combined_confidence"`
	Method             string                    `json:"method"`
	Reasoning          []string                  `json:"reasoning"`
	OCRAnalysis        *types.AggregateOCRResult `json:"ocr_analysis,omitempty"`
	Views              []types.ViewAnalysis      `json:"views"`
	MissingTiles       int                       `json:"missing_tiles"`
	Images             map[string]string         `json:"images,omitempty"`
}

// Root reports which backends are usable
func (s *Server) Root(c *gin.Context) {
	caps := s.analyzer.Capabilities()
	c.JSON(http.StatusOK, gin.H{
		"status":               "online",
		"version":              panoprobe.Version,
		"clip_available":       caps.Similarity != "",
		"ocr_available":        caps.OCR,
		"streetview_available": caps.StreetView,
	})
}

// Health probes every registered backend
func (s *Server) Health(c *gin.Context) {
	caps := s.analyzer.Capabilities()
	services := map[string]string{
		"streetview": readiness(caps.StreetView),
		"ocr":        readiness(caps.OCR),
	}

	healthy := true
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := check.Health(ctx)
		cancel()
		if err != nil {
			s.logger.WithField("service", name).Warnf("Health check failed: %v", err)
			if name == "clip" {
				healthy = false
			}
		}
		ok := err == nil
		if name == "ocr" {
			// a sidecar that came up after startup is not used by the analyzer
			ok = ok && caps.OCR
		}
		services[name] = readiness(ok)
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "services": services})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "services": services})
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "unavailable"
}

// Analyze rates the location in the request body
func (s *Server) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "lat and lng are required"})
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "lat must be between -90 and 90"})
		return
	}
	if *req.Lng < -180 || *req.Lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "lng must be between -180 and 180"})
		return
	}
	if req.NumViews != 0 && !panorama.ValidViewCount(req.NumViews) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "num_views must be 1, 2, 4 or 8"})
		return
	}

	s.logger.Infof("Analyzing location: %.6f, %.6f", *req.Lat, *req.Lng)
	res, err := s.analyzer.Analyze(c.Request.Context(), panoprobe.Request{
		Lat:           *req.Lat,
		Lng:           *req.Lng,
		PanoID:        req.PanoID,
		NumViews:      req.NumViews,
		IncludeImages: req.IncludeImages,
	})
	if err != nil {
		s.writeAnalyzeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalyzeResponse(res))
}

func (s *Server) writeAnalyzeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, panoprobe.ErrStreetViewUnavailable), errors.Is(err, streetview.ErrMissingAPIKey):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Street View is not available. Set GOOGLE_MAPS_API_KEY."})
	case errors.Is(err, streetview.ErrNoImagery):
		c.JSON(http.StatusNotFound, gin.H{"detail": "No Street View imagery available for this location"})
	default:
		s.logger.Errorf("Error analyzing location: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Analysis failed: " + err.Error()})
	}
}

func newAnalyzeResponse(res *panoprobe.Result) AnalyzeResponse {
	sim := res.Similarity
	return AnalyzeResponse{
		RequestID: res.RequestID,
		PanoID:    res.PanoID,
		Location:  res.Location,
		ClipAnalysis: SimilarityAnalysis{
			Difficulty:         sim.Difficulty,
			Confidence:         sim.Confidence,
			Insights:           sim.Insights,
			SceneType:          sim.SceneType,
			HasText:            sim.HasText,
			HasLandmark:        sim.HasLandmark,
			IsGeneric:          sim.IsGeneric,
			IsUrban:            sim.IsUrban,
			RawDifficultyScore: sim.RawDifficultyScore,
			Scores:             sim.Scores,
		},
		CombinedDifficulty: res.Analysis.Difficulty,
		CombinedConfidence: res.Analysis.Confidence,
		Method:             res.Method,
		Reasoning:          res.Analysis.Insights,
		OCRAnalysis:        res.OCR,
		Views:              res.Views,
		MissingTiles:       res.MissingTiles,
		Images:             res.Images,
	}
}

// Catalog describes the prompt catalog and the weight table
func (s *Server) Catalog(c *gin.Context) {
	caps := s.analyzer.Capabilities()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"backend":         caps.Similarity,
		"catalog_version": catalog.Version,
		"prompts_count":   catalog.Len(),
		"prompts":         catalog.Prompts(),
		"base_score":      difficulty.BaseScore,
		"features":        difficulty.Table,
	})
}
