package panorama

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// TileSource fetches a single tile of a panorama
type TileSource interface {
	FetchTile(ctx context.Context, panoID string, zoom, x, y int) (image.Image, error)
}

// Panorama is a stitched equirectangular image
type Panorama struct {
	PanoID       string       `json:"pano_id"`
	Zoom         int          `json:"zoom"`
	Cols         int          `json:"cols"`
	Rows         int          `json:"rows"`
	Image        *image.NRGBA `json:"-"`
	MissingTiles []TileCoord  `json:"missing_tiles,omitempty"`
}

// Width of the stitched image in pixels
func (p *Panorama) Width() int { return p.Image.Bounds().Dx() }

// Height of the stitched image in pixels
func (p *Panorama) Height() int { return p.Image.Bounds().Dy() }

// Complete reports whether every tile was fetched
func (p *Panorama) Complete() bool { return len(p.MissingTiles) == 0 }

// StitchConfig holds configuration for stitching
type StitchConfig struct {
	// Concurrency bounds parallel tile fetches; 1 fetches sequentially
	Concurrency int
	Background  color.NRGBA
}

// Stitcher assembles panoramas from a TileSource
type Stitcher struct {
	source TileSource
	config StitchConfig
	logger *logrus.Logger
}

// NewStitcher creates a Stitcher with default configuration
func NewStitcher(source TileSource, logger *logrus.Logger) *Stitcher {
	return NewStitcherWithConfig(source, StitchConfig{
		Concurrency: 4,
		Background:  color.NRGBA{0, 0, 0, 255},
	}, logger)
}

// NewStitcherWithConfig creates a Stitcher with custom configuration
func NewStitcherWithConfig(source TileSource, config StitchConfig, logger *logrus.Logger) *Stitcher {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Stitcher{source: source, config: config, logger: logger}
}

// errEmptyTile marks a source that returned neither a tile nor an error
var errEmptyTile = errors.New("source returned no tile")

// Stitch fetches every tile of panoID at zoom and draws it onto a blank canvas.
// A tile that fails to load is logged, recorded in MissingTiles and leaves its
// region blank; it never fails the whole panorama. Only an invalid zoom or a
// cancelled context is returned as an error.
func (s *Stitcher) Stitch(ctx context.Context, panoID string, zoom int) (*Panorama, error) {
	cols, rows, err := GridSize(zoom)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(cols*TileSize, rows*TileSize, s.config.Background)
	pano := &Panorama{PanoID: panoID, Zoom: zoom, Cols: cols, Rows: rows, Image: canvas}

	log := s.logger.WithFields(logrus.Fields{"pano_id": panoID, "zoom": zoom})
	log.Debugf("stitching %dx%d tiles", cols, rows)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			x, y := x, y
			g.Go(func() error {
				tile, err := s.source.FetchTile(gctx, panoID, zoom, x, y)
				if err == nil && tile == nil {
					err = errEmptyTile
				}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.WithFields(logrus.Fields{"tile_x": x, "tile_y": y}).Warnf("tile unavailable: %v", err)
					pano.MissingTiles = append(pano.MissingTiles, TileCoord{X: x, Y: y})
					return nil
				}
				origin := image.Pt(x*TileSize, y*TileSize)
				dst := image.Rectangle{Min: origin, Max: origin.Add(tile.Bounds().Size())}
				xdraw.Draw(canvas, dst, tile, tile.Bounds().Min, xdraw.Src)
				return nil
			})
		}
	}
	_ = g.Wait()
	sort.Slice(pano.MissingTiles, func(i, j int) bool {
		a, b := pano.MissingTiles[i], pano.MissingTiles[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stitching %s cancelled: %w", panoID, err)
	}
	if len(pano.MissingTiles) > 0 {
		log.Warnf("%d of %d tiles missing", len(pano.MissingTiles), cols*rows)
	}
	return pano, nil
}
