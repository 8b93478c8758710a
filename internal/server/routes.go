package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/finsight-io/finsight/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Reports
	mux.HandleFunc("/api/reports/analyze", s.handleReportAnalyze)
	mux.HandleFunc("/api/reports/", s.routeReports)
	mux.HandleFunc("/api/reports", s.handleReportList)
}

// routeReports dispatches /api/reports/{id} and /api/reports/{id}/chart.png.
func (s *Server) routeReports(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	switch {
	case rest == "":
		s.handleReportList(w, r)
	case strings.HasSuffix(rest, "/chart.png"):
		s.handleReportChart(w, r, PathParam(r, "/api/reports/", "/chart.png"))
	case !strings.Contains(rest, "/"):
		s.handleReport(w, r, rest)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":       cfg.Environment,
		"storage_path":      cfg.Storage.Path,
		"logging_level":     cfg.Logging.Level,
		"max_pages":         cfg.Extraction.MaxPages,
		"max_chars":         cfg.Extraction.MaxChars,
		"use_ai":            cfg.Extraction.UseAI,
		"ocr_enabled":       cfg.OCR.Enabled,
		"ocr_auto_fallback": cfg.OCR.AutoFallback,
		"ocr_available":     s.app.OCREngine != nil && s.app.OCREngine.Available(),
		"gemini_configured": s.app.GeminiClient != nil && s.app.GeminiClient.HasCredential(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
