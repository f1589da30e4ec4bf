package main

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/internal/config"
	"github.com/menta2k/pano-probe/pkg/client"
	"github.com/menta2k/pano-probe/pkg/clipserver"
	"github.com/menta2k/pano-probe/pkg/ocr"
	"github.com/menta2k/pano-probe/pkg/ollama"
	"github.com/menta2k/pano-probe/pkg/panorama"
	"github.com/menta2k/pano-probe/pkg/similarity"
	"github.com/menta2k/pano-probe/pkg/streetview"
)

// buildProber assembles the pipeline described by cfg. The returned checks
// are the backends /health probes.
func buildProber(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*panoprobe.Prober, map[string]client.HealthChecker, error) {
	checks := make(map[string]client.HealthChecker)

	sv := streetview.NewClient(streetview.Config{
		APIKey:         cfg.StreetView.APIKey,
		MetadataURL:    cfg.StreetView.MetadataURL,
		TileURL:        cfg.StreetView.TileURL,
		TileTimeout:    cfg.StreetView.TileTimeout,
		LookupAttempts: cfg.StreetView.LookupAttempts,
	}, logger)
	if !sv.Available() {
		logger.Warn("No Street View API key set; location lookups are disabled")
	}

	stitcher := panorama.NewStitcherWithConfig(sv, panorama.StitchConfig{
		Concurrency: cfg.StreetView.TileConcurrency,
		Background:  color.NRGBA{A: 255},
	}, logger)

	backend, err := newSimilarityBackend(cfg.Similarity)
	if err != nil {
		return nil, nil, err
	}
	checks["clip"] = backend
	scorer := similarity.NewScorerWithConfig(backend, similarity.Config{
		SendFormat:  "jpg",
		SendSize:    cfg.Similarity.SendSize,
		SendQuality: cfg.Similarity.SendQuality,
	})
	logger.Infof("Similarity backend: %s", scorer.Name())

	var text panoprobe.TextDetector
	if cfg.OCR.Enabled {
		engine := ocr.NewClient(ocr.ClientConfig{
			URL:       cfg.OCR.URL,
			Languages: cfg.OCR.Languages,
			Timeout:   cfg.OCR.Timeout,
		})
		if err := waitReady(ctx, engine, cfg.OCR.StartupAttempts, logger.WithField("service", "ocr")); err != nil {
			logger.Warnf("OCR unavailable, continuing without it: %v", err)
		} else {
			checks["ocr"] = engine
			text = ocr.NewDetectorWithConfig(engine, ocr.Config{
				MinConfidence: cfg.OCR.MinConfidence,
			}, logger)
			logger.Info("OCR enabled")
		}
	}

	prober := panoprobe.NewWithOptions(sv, stitcher, scorer, text, panoprobe.Options{
		Zoom:            cfg.StreetView.Zoom,
		DefaultViews:    cfg.Analysis.DefaultViews,
		ViewConcurrency: cfg.Analysis.ViewConcurrency,
		DebugImageSize:  cfg.Analysis.DebugImageSize,
	}, logger)
	return prober, checks, nil
}

// similarityBackend is a SimilarityClient that can also report its health
type similarityBackend interface {
	client.SimilarityClient
	client.HealthChecker
}

func newSimilarityBackend(cfg config.SimilarityConfig) (similarityBackend, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.URL, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case config.BackendCLIP:
		c, err := clipserver.NewClient(clipserver.Config{URL: cfg.URL, Model: cfg.Model, Timeout: cfg.Timeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create CLIP client: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown backend: %s (use %q or %q)", cfg.Backend, config.BackendCLIP, config.BackendOllama)
}

// waitReady polls a backend's health until it answers or attempts run out
func waitReady(ctx context.Context, hc client.HealthChecker, attempts uint, log *logrus.Entry) error {
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return hc.Health(checkCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("Waiting for backend (attempt %d/%d): %v", n+1, attempts, err)
		}),
	)
}
