package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the frame generator.
// Fields are loaded from a YAML file on top of DefaultConfig().
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Upload UploadConfig `yaml:"upload"`
	Crop   CropConfig   `yaml:"crop"`
	Export ExportConfig `yaml:"export"`
	// Frame is a file path or http(s) URL of the decorative frame image.
	// Empty means the layout background colour is used alone.
	Frame  string `yaml:"frame"`
	Layout Layout `yaml:"layout"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File enables rotating file output when set.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// UploadConfig describes the best-effort spreadsheet backup endpoint.
type UploadConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	// PerMinute and Burst pace the uploads; excess exports are queued.
	PerMinute float64 `yaml:"per_minute"`
	Burst     int     `yaml:"burst"`
	// MaxDelay bounds how long a queued upload waits for its turn.
	MaxDelay time.Duration `yaml:"max_delay"`
}

type CropConfig struct {
	MinSize         float64 `yaml:"min_size"`
	HandleTolerance float64 `yaml:"handle_tolerance"`
	DefaultFraction float64 `yaml:"default_fraction"`
	MaxDefaultSize  float64 `yaml:"max_default_size"`
	OutputSize      int     `yaml:"output_size"`
	MobileOutput    int     `yaml:"mobile_output_size"`
	Format          string  `yaml:"format"`
	Quality         int     `yaml:"quality"`
	// DisplayWidth/DisplayHeight are used when the client does not report its overlay size.
	DisplayWidth  float64 `yaml:"display_width"`
	DisplayHeight float64 `yaml:"display_height"`
}

type ExportConfig struct {
	Format           string `yaml:"format"`
	Quality          int    `yaml:"quality"`
	FallbackFilename string `yaml:"fallback_filename"`
	PreviewWidth     int    `yaml:"preview_width"`
}

// DefaultUploadEndpoint is the Apps Script web app that backs up exported frames.
const DefaultUploadEndpoint = "https://script.google.com/macros/s/AKfycbzaDm_i5BE6qYHaMaKGEmOyiUzC1Q3Mbr9MtvCC_ilx2MEVSY66tKaBJWp7_O4tmRxF/exec"

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 2,
			MaxAgeDays: 28,
		},
		Upload: UploadConfig{
			Endpoint:  DefaultUploadEndpoint,
			Timeout:   30 * time.Second,
			PerMinute: 30,
			Burst:     5,
			MaxDelay:  5 * time.Minute,
		},
		Crop: CropConfig{
			MinSize:         80,
			HandleTolerance: 30,
			DefaultFraction: 0.6,
			MaxDefaultSize:  320,
			OutputSize:      1450,
			MobileOutput:    900,
			Format:          "png",
			Quality:         85,
			DisplayWidth:    880,
			DisplayHeight:   540,
		},
		Export: ExportConfig{
			Format:           "png",
			Quality:          90,
			FallbackFilename: "loi-nhan.png",
			PreviewWidth:     1200,
		},
		Layout: DefaultLayout(),
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Upload.Timeout <= 0 {
		c.Upload.Timeout = 30 * time.Second
	}
	if c.Upload.PerMinute <= 0 {
		c.Upload.PerMinute = 30
	}
	if c.Upload.Burst <= 0 {
		c.Upload.Burst = 1
	}
	if c.Upload.MaxDelay <= 0 {
		c.Upload.MaxDelay = 5 * time.Minute
	}
	if c.Crop.MinSize <= 0 {
		c.Crop.MinSize = 80
	}
	if c.Crop.HandleTolerance <= 0 {
		c.Crop.HandleTolerance = 30
	}
	if c.Crop.DefaultFraction <= 0 || c.Crop.DefaultFraction > 1 {
		c.Crop.DefaultFraction = 0.6
	}
	if c.Crop.OutputSize <= 0 {
		c.Crop.OutputSize = c.Layout.Avatar.Size
	}
	if c.Crop.MobileOutput <= 0 {
		c.Crop.MobileOutput = c.Crop.OutputSize
	}
	if c.Crop.DisplayWidth <= 0 || c.Crop.DisplayHeight <= 0 {
		c.Crop.DisplayWidth, c.Crop.DisplayHeight = 880, 540
	}
	c.Crop.Format, c.Crop.Quality = normalizeFormat(c.Crop.Format, c.Crop.Quality)
	c.Export.Format, c.Export.Quality = normalizeFormat(c.Export.Format, c.Export.Quality)
	if c.Export.FallbackFilename == "" {
		ext := "png"
		if c.Export.Format == "jpeg" {
			ext = "jpg"
		}
		c.Export.FallbackFilename = "loi-nhan." + ext
	}
	if c.Export.PreviewWidth <= 0 {
		c.Export.PreviewWidth = 1200
	}
	return c.Layout.Validate()
}

func normalizeFormat(format string, quality int) (string, int) {
	switch format {
	case "jpg", "jpeg":
		format = "jpeg"
	default:
		format = "png"
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return format, quality
}

// Load reads configuration from the given YAML file path. If the file does not
// exist it returns DefaultConfig(). The PORT environment variable overrides the port.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
