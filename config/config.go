// Package config loads codec limits and logging settings from TOML.
package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/marshal/codec"
	"github.com/wippyai/marshal/errors"
)

// CodecConfig holds the decoder and encoder safety limits.
type CodecConfig struct {
	MaxDepth          int
	MaxStringSize     int
	MaxSequenceLength int
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Config is the top-level configuration file.
type Config struct {
	Log   LogConfig
	Codec CodecConfig
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Codec: CodecConfig{
			MaxDepth:          codec.DefaultMaxDepth,
			MaxStringSize:     codec.DefaultMaxStringSize,
			MaxSequenceLength: codec.DefaultMaxSequenceLength,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and validates the TOML file at path. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Cause(err).
			Detail("cannot open %s", path).
			Build()
	}
	defer f.Close()

	cfg := Default()
	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Cause(err).
			Detail("cannot parse %s", path).
			Build()
	}
	return cfg.finish()
}

// Parse decodes TOML from data. Keys missing from data keep their default
// values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Cause(err).
			Detail("cannot parse configuration").
			Build()
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	def := Default()
	if c.Codec.MaxDepth == 0 {
		c.Codec.MaxDepth = def.Codec.MaxDepth
	}
	if c.Codec.MaxStringSize == 0 {
		c.Codec.MaxStringSize = def.Codec.MaxStringSize
	}
	if c.Codec.MaxSequenceLength == 0 {
		c.Codec.MaxSequenceLength = def.Codec.MaxSequenceLength
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the limits and the log level.
func (c *Config) Validate() error {
	limits := []struct {
		name string
		v    int
	}{
		{"Codec.MaxDepth", c.Codec.MaxDepth},
		{"Codec.MaxStringSize", c.Codec.MaxStringSize},
		{"Codec.MaxSequenceLength", c.Codec.MaxSequenceLength},
	}
	for _, l := range limits {
		if l.v <= 0 {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(l.name).
				Value(l.v).
				Detail("must be positive").
				Build()
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("Log.Level").
			Value(c.Log.Level).
			Cause(err).
			Detail("unknown log level").
			Build()
	}
	return nil
}

// CodecOptions converts the codec section to codec options.
func (c *Config) CodecOptions() codec.Options {
	return codec.Options{
		MaxDepth:          c.Codec.MaxDepth,
		MaxStringSize:     c.Codec.MaxStringSize,
		MaxSequenceLength: c.Codec.MaxSequenceLength,
	}
}

// NewLogger builds a zap logger from the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("Log.Level").
			Cause(err).
			Detail("unknown log level").
			Build()
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
