package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PANOPROBE_SERVER_PORT
const EnvPrefix = "PANOPROBE"

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `json:"server" mapstructure:"server"`
	StreetView StreetViewConfig `json:"streetview" mapstructure:"streetview"`
	Similarity SimilarityConfig `json:"similarity" mapstructure:"similarity"`
	OCR        OCRConfig        `json:"ocr" mapstructure:"ocr"`
	Analysis   AnalysisConfig   `json:"analysis" mapstructure:"analysis"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Host           string   `json:"host" mapstructure:"host"`
	Port           int      `json:"port" mapstructure:"port"`
	Environment    string   `json:"environment" mapstructure:"environment"`
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// StreetViewConfig holds configuration for panorama lookup and download
type StreetViewConfig struct {
	APIKey          string        `json:"api_key" mapstructure:"api_key"`
	MetadataURL     string        `json:"metadata_url" mapstructure:"metadata_url"`
	TileURL         string        `json:"tile_url" mapstructure:"tile_url"`
	Zoom            int           `json:"zoom" mapstructure:"zoom"`
	TileTimeout     time.Duration `json:"tile_timeout" mapstructure:"tile_timeout"`
	TileConcurrency int           `json:"tile_concurrency" mapstructure:"tile_concurrency"`
	LookupAttempts  uint          `json:"lookup_attempts" mapstructure:"lookup_attempts"`
}

// SimilarityConfig holds configuration for the image-text similarity backend
type SimilarityConfig struct {
	Backend     string        `json:"backend" mapstructure:"backend"`
	URL         string        `json:"url" mapstructure:"url"`
	Model       string        `json:"model" mapstructure:"model"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	SendSize    int           `json:"send_size" mapstructure:"send_size"`
	SendQuality int           `json:"send_quality" mapstructure:"send_quality"`
}

// OCRConfig holds configuration for the text reading sidecar
type OCRConfig struct {
	Enabled         bool          `json:"enabled" mapstructure:"enabled"`
	URL             string        `json:"url" mapstructure:"url"`
	Languages       []string      `json:"languages" mapstructure:"languages"`
	MinConfidence   float64       `json:"min_confidence" mapstructure:"min_confidence"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	StartupAttempts uint          `json:"startup_attempts" mapstructure:"startup_attempts"`
}

// AnalysisConfig holds configuration for the analysis pipeline
type AnalysisConfig struct {
	DefaultViews    int `json:"default_views" mapstructure:"default_views"`
	ViewConcurrency int `json:"view_concurrency" mapstructure:"view_concurrency"`
	DebugImageSize  int `json:"debug_image_size" mapstructure:"debug_image_size"`
}

// LoggingConfig holds configuration for the logger
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Backends supported by the similarity section
const (
	BackendCLIP   = "clip"
	BackendOllama = "ollama"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			Environment:    "development",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		StreetView: StreetViewConfig{
			MetadataURL:     "https://maps.googleapis.com/maps/api/streetview/metadata",
			TileURL:         "https://streetviewpixels-pa.googleapis.com/v1/tile",
			Zoom:            2,
			TileTimeout:     10 * time.Second,
			TileConcurrency: 4,
			LookupAttempts:  3,
		},
		Similarity: SimilarityConfig{
			Backend:     BackendCLIP,
			URL:         "http://localhost:8001",
			Model:       "openai/clip-vit-base-patch32",
			Timeout:     60 * time.Second,
			SendSize:    512,
			SendQuality: 90,
		},
		OCR: OCRConfig{
			Enabled:         true,
			URL:             "http://localhost:8002",
			Languages:       []string{"en"},
			MinConfidence:   0.3,
			Timeout:         60 * time.Second,
			StartupAttempts: 3,
		},
		Analysis: AnalysisConfig{
			DefaultViews:    8,
			ViewConcurrency: 2,
			DebugImageSize:  320,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from defaults, an optional config file, a .env
// file and PANOPROBE_* environment variables, in increasing precedence.
// An empty cfgFile searches the working directory and GetConfigPath's
// directory for a config file; none found is not an error.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("streetview.api_key", EnvPrefix+"_STREETVIEW_API_KEY", "GOOGLE_MAPS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(GetConfigPath()))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Environment
// overrides still apply.
func LoadFromFile(filename string) (*Config, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(filename)
}

// setDefaults registers every leaf key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.environment", d.Server.Environment)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("streetview.api_key", d.StreetView.APIKey)
	v.SetDefault("streetview.metadata_url", d.StreetView.MetadataURL)
	v.SetDefault("streetview.tile_url", d.StreetView.TileURL)
	v.SetDefault("streetview.zoom", d.StreetView.Zoom)
	v.SetDefault("streetview.tile_timeout", d.StreetView.TileTimeout)
	v.SetDefault("streetview.tile_concurrency", d.StreetView.TileConcurrency)
	v.SetDefault("streetview.lookup_attempts", d.StreetView.LookupAttempts)

	v.SetDefault("similarity.backend", d.Similarity.Backend)
	v.SetDefault("similarity.url", d.Similarity.URL)
	v.SetDefault("similarity.model", d.Similarity.Model)
	v.SetDefault("similarity.timeout", d.Similarity.Timeout)
	v.SetDefault("similarity.send_size", d.Similarity.SendSize)
	v.SetDefault("similarity.send_quality", d.Similarity.SendQuality)

	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.url", d.OCR.URL)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)
	v.SetDefault("ocr.timeout", d.OCR.Timeout)
	v.SetDefault("ocr.startup_attempts", d.OCR.StartupAttempts)

	v.SetDefault("analysis.default_views", d.Analysis.DefaultViews)
	v.SetDefault("analysis.view_concurrency", d.Analysis.ViewConcurrency)
	v.SetDefault("analysis.debug_image_size", d.Analysis.DebugImageSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.StreetView.Zoom < 0 || c.StreetView.Zoom > 5 {
		return fmt.Errorf("streetview.zoom must be between 0 and 5")
	}

	if c.StreetView.TileConcurrency < 1 {
		return fmt.Errorf("streetview.tile_concurrency must be positive")
	}

	if c.StreetView.LookupAttempts < 1 {
		return fmt.Errorf("streetview.lookup_attempts must be positive")
	}

	switch c.Similarity.Backend {
	case BackendCLIP, BackendOllama:
	default:
		return fmt.Errorf("similarity.backend must be %q or %q, got %q", BackendCLIP, BackendOllama, c.Similarity.Backend)
	}

	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be between 0 and 1")
	}

	switch c.Analysis.DefaultViews {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("analysis.default_views must be 1, 2, 4 or 8")
	}

	if c.Analysis.ViewConcurrency < 1 {
		return fmt.Errorf("analysis.view_concurrency must be positive")
	}

	return nil
}

// Addr returns the host:port the server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "pano-probe", "config.json")
}
