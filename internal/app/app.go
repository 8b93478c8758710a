// Package app wires configuration, clients, storage, and services into the
// shared core used by cmd/finsight-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finsight-io/finsight/internal/clients/gemini"
	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/interfaces"
	"github.com/finsight-io/finsight/internal/services/alert"
	"github.com/finsight-io/finsight/internal/services/extraction"
	"github.com/finsight-io/finsight/internal/services/report"
	"github.com/finsight-io/finsight/internal/storage/reportfs"
)

// App holds all initialized services and clients.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.ReportStorage
	GeminiClient      interfaces.LLMClient
	OCREngine         interfaces.OCREngine
	ExtractionService interfaces.ExtractionService
	AlertService      interfaces.AlertService
	ReportService     interfaces.ReportService
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes the application. configPath may be empty, in which
// case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: provided path, FINSIGHT_CONFIG, binary dir,
	// then the development fallback.
	if configPath == "" {
		configPath = os.Getenv("FINSIGHT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "finsight.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finsight.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := reportfs.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	var llmClient interfaces.LLMClient
	geminiClient, err := gemini.NewClient(ctx, config.Gemini.APIKey,
		gemini.WithLogger(logger),
		gemini.WithModel(config.Gemini.Model),
		gemini.WithRateLimit(config.Gemini.RateLimit),
	)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("Failed to initialize Gemini client - AI extraction will be unavailable")
	case !geminiClient.HasCredential():
		logger.Warn().Msg("Gemini API key not configured - AI extraction will be unavailable")
		llmClient = geminiClient
	default:
		llmClient = geminiClient
	}

	ocrEngine := extraction.NewTesseractEngine(logger)

	extractionService := extraction.NewService(config, logger, llmClient, ocrEngine)
	alertService := alert.NewService(logger)
	reportService := report.NewService(extractionService, alertService, store, llmClient, logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           store,
		GeminiClient:      llmClient,
		OCREngine:         ocrEngine,
		ExtractionService: extractionService,
		AlertService:      alertService,
		ReportService:     reportService,
		StartupTime:       startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.GeminiClient != nil {
		a.GeminiClient.Close()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
