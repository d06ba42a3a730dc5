package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override
	EnvPrefix = "NBA_MVP_"

	// EnvConfigFile names a YAML file to load when no path is passed to Load
	EnvConfigFile = "NBA_MVP_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or NBA_MVP_CONFIG when path is empty
//  3. env (prefix NBA_MVP_, "__" separates nested keys)
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading environment: %v", ErrLoadConfig, err)
	}

	cfg := New()
	dc := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:           cfg,
		WeaklyTypedInput: true,
		// Lists and maps from a file replace the defaults instead of merging into them
		ZeroFields: true,
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", DecoderConfig: dc}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps NBA_MVP_ELIGIBILITY__MIN_GAMES to eligibility.min_games
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.Seasons.From <= 0 || c.Seasons.To < c.Seasons.From {
		return fmt.Errorf("%w: invalid season range %d-%d", ErrInvalidConfig, c.Seasons.From, c.Seasons.To)
	}
	for _, pair := range c.Franchise.Swaps {
		if len(pair) != 2 {
			return fmt.Errorf("%w: franchise swap %v must name exactly two codes", ErrInvalidConfig, pair)
		}
	}
	e := c.Eligibility
	for name, v := range map[string]float64{
		"min_games":    e.MinGames,
		"min_points":   e.MinPoints,
		"min_fga":      e.MinFGA,
		"min_rebounds": e.MinRebounds,
		"min_assists":  e.MinAssists,
		"min_fg_pct":   e.MinFGPct,
		"min_minutes":  e.MinMinutes,
		"min_per":      e.MinPER,
	} {
		if v < 0 {
			return fmt.Errorf("%w: eligibility.%s must not be negative", ErrInvalidConfig, name)
		}
	}
	if e.MinFGPct > 1 {
		return fmt.Errorf("%w: eligibility.min_fg_pct is a fraction, got %v", ErrInvalidConfig, e.MinFGPct)
	}
	if c.Scrape.MaxAttempts < 1 {
		return fmt.Errorf("%w: scrape.max_attempts must be at least 1", ErrInvalidConfig)
	}
	return nil
}
