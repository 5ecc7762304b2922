// Package config loads application configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Logger      LoggerConfig      `yaml:"logger"`
	Tracer      TracerConfig      `yaml:"tracer"`
	LLM         LLMConfig         `yaml:"llm"`
	Templates   TemplatesConfig   `yaml:"templates"`
	Personas    PersonasConfig    `yaml:"personas"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
}

// LoggerConfig holds structured logging settings.
type LoggerConfig struct {
	Level     string `yaml:"level"`      // debug, info, warn, error
	Format    string `yaml:"format"`     // text or json
	Output    string `yaml:"output"`     // stdout, stderr, or a file path
	AddSource bool   `yaml:"add_source"` // annotate records with file:line
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout or noop
}

// LLMConfig holds the chat completion client settings.
type LLMConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	ConnTimeout       time.Duration `yaml:"conn_timeout"`
	RespTimeout       time.Duration `yaml:"resp_timeout"`
}

// TemplatesConfig locates the decomposition template directory.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// PersonasConfig locates the persona catalog.
type PersonasConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig holds the conversation archive settings.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CoordinatorConfig toggles coordinator features.
type CoordinatorConfig struct {
	EnablePersonaSelector bool `yaml:"enable_persona_selector"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
		},
		Templates: TemplatesConfig{Dir: "configs/templates"},
		Personas:  PersonasConfig{Path: "configs/personas.yaml"},
		Archive:   ArchiveConfig{Enabled: false, Path: "conductor.db"},
		Coordinator: CoordinatorConfig{
			EnablePersonaSelector: true,
		},
	}
}

// Load reads a config file, falling back to defaults when the file
// does not exist. Environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONDUCTOR_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("CONDUCTOR_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("CONDUCTOR_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("CONDUCTOR_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("CONDUCTOR_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("CONDUCTOR_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CONDUCTOR_ARCHIVE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if v := os.Getenv("CONDUCTOR_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
}
