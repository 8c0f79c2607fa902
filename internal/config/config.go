// ABOUTME: Player configuration loaded from YAML with environment overrides
// ABOUTME: Defaults, LOWLAT_* variables and validation for the engine, source and telemetry
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	Path       string  `yaml:"path"`
	Loop       bool    `yaml:"loop"`
	Resample   bool    `yaml:"resample"`
	ToneHz     float64 `yaml:"tone_hz"`
	PrefetchMS int     `yaml:"prefetch_ms"`
}

type Config struct {
	Backend                 string       `yaml:"backend"`
	SampleRate              int          `yaml:"sample_rate"`
	Channels                int          `yaml:"channels"`
	StartPlaying            bool         `yaml:"start_playing"`
	FallbackFramesPerBuffer int          `yaml:"fallback_frames_per_buffer"`
	FramesPerBuffer         int          `yaml:"frames_per_buffer"`
	APILevel                int          `yaml:"api_level"`
	Source                  SourceConfig `yaml:"source"`
	LogLevel                string       `yaml:"log_level"`
	LogFile                 string       `yaml:"log_file"`
	MetricsBind             string       `yaml:"metrics_bind"`
}

func Default() Config {
	return Config{
		Backend:                 "oto",
		SampleRate:              48000,
		Channels:                2,
		StartPlaying:            true,
		FallbackFramesPerBuffer: 192,
		Source: SourceConfig{
			Loop:       true,
			ToneHz:     440,
			PrefetchMS: 200,
		},
		LogLevel: "info",
		LogFile:  "lowlat-player.log",
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Backend, "LOWLAT_BACKEND")
	overrideInt(&cfg.SampleRate, "LOWLAT_SAMPLE_RATE")
	overrideInt(&cfg.Channels, "LOWLAT_CHANNELS")
	overrideBool(&cfg.StartPlaying, "LOWLAT_START_PLAYING")
	overrideInt(&cfg.FallbackFramesPerBuffer, "LOWLAT_FALLBACK_FRAMES_PER_BUFFER")
	overrideInt(&cfg.FramesPerBuffer, "LOWLAT_FRAMES_PER_BUFFER")
	overrideInt(&cfg.APILevel, "LOWLAT_API_LEVEL")
	overrideString(&cfg.Source.Path, "LOWLAT_SOURCE_PATH")
	overrideBool(&cfg.Source.Loop, "LOWLAT_SOURCE_LOOP")
	overrideBool(&cfg.Source.Resample, "LOWLAT_SOURCE_RESAMPLE")
	overrideFloat(&cfg.Source.ToneHz, "LOWLAT_SOURCE_TONE_HZ")
	overrideInt(&cfg.Source.PrefetchMS, "LOWLAT_SOURCE_PREFETCH_MS")
	overrideString(&cfg.LogLevel, "LOWLAT_LOG_LEVEL")
	overrideString(&cfg.LogFile, "LOWLAT_LOG_FILE")
	overrideString(&cfg.MetricsBind, "LOWLAT_METRICS_BIND")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

// Validate reports the first invalid setting
func (cfg Config) Validate() error {
	switch cfg.Backend {
	case "oto", "malgo", "portaudio", "headless":
	default:
		return fmt.Errorf("backend must be one of oto, malgo, portaudio, headless (got %q)", cfg.Backend)
	}
	if cfg.SampleRate <= 0 {
		return errors.New("sample_rate must be positive")
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return errors.New("channels must be 1 or 2")
	}
	if cfg.FallbackFramesPerBuffer <= 0 {
		return errors.New("fallback_frames_per_buffer must be positive")
	}
	if cfg.FramesPerBuffer < 0 {
		return errors.New("frames_per_buffer must not be negative")
	}
	if cfg.APILevel < 0 {
		return errors.New("api_level must not be negative")
	}
	if cfg.Source.Path == "" && cfg.Source.ToneHz <= 0 {
		return errors.New("source.tone_hz must be positive when no source.path is set")
	}
	if cfg.Source.PrefetchMS <= 0 {
		return errors.New("source.prefetch_ms must be positive")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of trace, debug, info, warn, error (got %q)", cfg.LogLevel)
	}
	return nil
}
