// Package common provides shared utilities for FinSight.
package common

import (
	"fmt"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for FinSight.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Extraction  ExtractionConfig `toml:"extraction"`
	OCR         OCRConfig        `toml:"ocr"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the report store path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ExtractionConfig holds text-layer extraction budgets.
type ExtractionConfig struct {
	MaxPages int  `toml:"max_pages"` // page budget for text-layer extraction
	MaxChars int  `toml:"max_chars"` // character budget before truncation
	UseAI    bool `toml:"use_ai"`    // allow the AI enhancement pass
}

// OCRConfig holds OCR fallback switches and resource guards.
type OCRConfig struct {
	Enabled      bool   `toml:"enabled"`        // explicit enable: OCR always considered
	AutoFallback bool   `toml:"auto_fallback"`  // OCR only when text layer fails, subject to guards
	DPI          int    `toml:"dpi"`            // final OCR render DPI
	ProbeDPI     int    `toml:"probe_dpi"`      // low-DPI probe render
	MaxFileMB    int    `toml:"max_file_mb"`    // auto-fallback guard: skip larger files
	MaxPageCount int    `toml:"max_page_count"` // auto-fallback guard: skip longer documents
	MaxOCRPages  int    `toml:"max_ocr_pages"`  // hard cap on pages actually OCR'd
	Language     string `toml:"language"`       // tesseract language hint
}

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: "data/reports",
		},
		Extraction: ExtractionConfig{
			MaxPages: 20,
			MaxChars: 80000,
			UseAI:    true,
		},
		OCR: OCRConfig{
			AutoFallback: true,
			DPI:          150,
			ProbeDPI:     90,
			MaxFileMB:    50,
			MaxPageCount: 300,
			MaxOCRPages:  6,
			Language:     "chi_sim+eng",
		},
		Gemini: GeminiConfig{
			Model:     "gemini-2.0-flash",
			RateLimit: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies FINSIGHT_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINSIGHT_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("FINSIGHT_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("FINSIGHT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("FINSIGHT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("FINSIGHT_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}
	if v := os.Getenv("FINSIGHT_PDF_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Extraction.MaxPages = n
		}
	}
	if v := os.Getenv("FINSIGHT_PDF_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Extraction.MaxChars = n
		}
	}
	if v := os.Getenv("FINSIGHT_OCR_ENABLED"); v != "" {
		config.OCR.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("FINSIGHT_OCR_AUTO"); v != "" {
		config.OCR.AutoFallback = v == "1" || v == "true"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("FINSIGHT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
}
