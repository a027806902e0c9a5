// Package config loads retouch settings from defaults, an optional YAML
// file and RETOUCH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/retouch"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RETOUCH_"

// Config holds engine and front-end settings.
type Config struct {
	// Workers is the pixel worker count. Zero selects GOMAXPROCS.
	Workers int `yaml:"workers" env:"WORKERS" validate:"gte=0,lte=1024"`

	// MaxHistory is the number of applied operations kept per session.
	MaxHistory int `yaml:"max_history" env:"MAX_HISTORY" validate:"gte=1,lte=10000"`

	// MaxDimension is the largest accepted source width or height.
	MaxDimension int `yaml:"max_dimension" env:"MAX_DIMENSION" validate:"gte=1"`

	// MaxSourceBytes is the largest accepted source file.
	MaxSourceBytes int64 `yaml:"max_source_bytes" env:"MAX_SOURCE_BYTES" validate:"gte=1"`

	// PreviewMaxWidth and PreviewMaxHeight bound previews when a request
	// does not. Zero leaves the axis unbounded.
	PreviewMaxWidth  int `yaml:"preview_max_width" env:"PREVIEW_MAX_WIDTH" validate:"gte=0"`
	PreviewMaxHeight int `yaml:"preview_max_height" env:"PREVIEW_MAX_HEIGHT" validate:"gte=0"`

	// PreviewFormat is the preview codec.
	PreviewFormat string `yaml:"preview_format" env:"PREVIEW_FORMAT" validate:"oneof=png jpeg jpg webp"`

	// PreviewQuality applies to JPEG previews.
	PreviewQuality int `yaml:"preview_quality" env:"PREVIEW_QUALITY" validate:"gte=1,lte=100"`

	// ExportQuality is the JPEG quality used when an export names none.
	ExportQuality int `yaml:"export_quality" env:"EXPORT_QUALITY" validate:"gte=1,lte=100"`

	// MetricsAddr is the listen address of the /metrics endpoint in serve
	// mode. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR" validate:"omitempty,hostname_port"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Workers:          0,
		MaxHistory:       retouch.DefaultHistoryCapacity,
		MaxDimension:     retouch.DefaultMaxDimension,
		MaxSourceBytes:   retouch.DefaultMaxSourceBytes,
		PreviewMaxWidth:  1024,
		PreviewMaxHeight: 1024,
		PreviewFormat:    "png",
		PreviewQuality:   85,
		ExportQuality:    90,
		LogLevel:         "info",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate checks every field against its bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s = %v violates %q", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Options translates the settings into engine options.
func (c Config) Options() []retouch.Option {
	return []retouch.Option{
		retouch.WithWorkers(c.Workers),
		retouch.WithHistoryCapacity(c.MaxHistory),
		retouch.WithMaxDimension(c.MaxDimension),
		retouch.WithMaxSourceBytes(c.MaxSourceBytes),
		retouch.WithPreviewFormat(c.PreviewFormat, c.PreviewQuality),
		retouch.WithExportQuality(c.ExportQuality),
	}
}

// PreviewConstraints returns the default preview bounds.
func (c Config) PreviewConstraints() retouch.PreviewConstraints {
	return retouch.PreviewConstraints{MaxWidth: c.PreviewMaxWidth, MaxHeight: c.PreviewMaxHeight}
}
