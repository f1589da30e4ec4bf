// Package streetview resolves coordinates to Street View panoramas and
// downloads their tiles.
package streetview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/pano-probe/pkg/processing"
	"github.com/menta2k/pano-probe/pkg/types"
)

const (
	DefaultMetadataURL = "https://maps.googleapis.com/maps/api/streetview/metadata"
	DefaultTileURL     = "https://streetviewpixels-pa.googleapis.com/v1/tile"
)

var (
	// ErrNoImagery means no panorama exists near the requested location
	ErrNoImagery = errors.New("no street view imagery available")

	// ErrMissingAPIKey means metadata lookups cannot be made
	ErrMissingAPIKey = errors.New("street view API key not configured")
)

// Metadata describes the panorama closest to a coordinate
type Metadata struct {
	Status    string            `json:"status"`
	PanoID    string            `json:"pano_id"`
	Date      string            `json:"date,omitempty"`
	Copyright string            `json:"copyright,omitempty"`
	Location  types.Coordinates `json:"location"`
}

// Config holds Street View endpoints and limits
type Config struct {
	APIKey         string
	MetadataURL    string
	TileURL        string
	TileTimeout    time.Duration
	LookupTimeout  time.Duration
	LookupAttempts uint
	RetryDelay     time.Duration
}

// Client talks to the Street View metadata and tile endpoints
type Client struct {
	config     Config
	httpClient *http.Client
	processor  *processing.Processor
	logger     *logrus.Logger
}

// NewClient creates a client, filling zero-valued settings with defaults
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.MetadataURL == "" {
		cfg.MetadataURL = DefaultMetadataURL
	}
	if cfg.TileURL == "" {
		cfg.TileURL = DefaultTileURL
	}
	if cfg.TileTimeout == 0 {
		cfg.TileTimeout = 10 * time.Second
	}
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	if cfg.LookupAttempts == 0 {
		cfg.LookupAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	httpClient := &http.Client{Timeout: cfg.LookupTimeout}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		processor:  processing.NewProcessorWithClient(&http.Client{Timeout: cfg.TileTimeout}),
		logger:     logger,
	}
}

// Available reports whether metadata lookups can be made
func (c *Client) Available() bool { return c.config.APIKey != "" }

// Locate finds the panorama nearest to lat, lng. It returns ErrNoImagery when
// Street View has no coverage there. Transient failures are retried.
func (c *Client) Locate(ctx context.Context, lat, lng float64) (Metadata, error) {
	if !c.Available() {
		return Metadata{}, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.config.APIKey)
	endpoint := c.config.MetadataURL + "?" + q.Encode()

	var meta Metadata
	err := retry.Do(
		func() error {
			m, err := c.fetchMetadata(ctx, endpoint)
			if err != nil {
				return err
			}
			meta = m
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.LookupAttempts),
		retry.Delay(c.config.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WithFields(logrus.Fields{"lat": lat, "lng": lng, "attempt": n + 1}).Warnf("metadata lookup failed: %v", err)
		}),
	)
	if err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (c *Client) fetchMetadata(ctx context.Context, endpoint string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Metadata{}, retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata: %w", err)
	}
	if resp.StatusCode >= 500 {
		return Metadata{}, fmt.Errorf("metadata API error (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Metadata{}, retry.Unrecoverable(fmt.Errorf("metadata API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return Metadata{}, retry.Unrecoverable(fmt.Errorf("decoding metadata: %w", err))
	}

	switch meta.Status {
	case "OK":
		if meta.PanoID == "" {
			return Metadata{}, retry.Unrecoverable(ErrNoImagery)
		}
		return meta, nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return Metadata{}, retry.Unrecoverable(ErrNoImagery)
	case "UNKNOWN_ERROR":
		return Metadata{}, fmt.Errorf("metadata lookup: %s", meta.Status)
	default:
		return Metadata{}, retry.Unrecoverable(fmt.Errorf("metadata lookup: %s", meta.Status))
	}
}

// TileURL builds the address of one panorama tile
func (c *Client) TileURL(panoID string, zoom, x, y int) string {
	q := url.Values{}
	q.Set("cb_client", "maps_sv.tactile")
	q.Set("panoid", panoID)
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	q.Set("zoom", strconv.Itoa(zoom))
	q.Set("nbt", "1")
	q.Set("fover", "2")
	return c.config.TileURL + "?" + q.Encode()
}

// FetchTile downloads and decodes one tile. Each tile gets its own timeout.
func (c *Client) FetchTile(ctx context.Context, panoID string, zoom, x, y int) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.TileTimeout)
	defer cancel()

	img, err := c.processor.LoadImageFromURL(ctx, c.TileURL(panoID, zoom, x, y))
	if err != nil {
		return nil, fmt.Errorf("tile (%d,%d): %w", x, y, err)
	}
	return img, nil
}
