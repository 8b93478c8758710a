package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/finsight-io/finsight/internal/models"
)

// uploadBodyLimit bounds multipart uploads. Annual reports run large but a
// filing over this size is almost certainly not a statement PDF.
const uploadBodyLimit = 100 << 20 // 100MB

// handleReportAnalyze handles POST /api/reports/analyze.
//
// Accepts either a JSON body referencing a server-visible path:
//
//	{"path": "/data/filings/fy2025.pdf", "use_ai": true}
//
// or a multipart form with a "file" part, which is persisted under the
// store's uploads directory before analysis.
func (s *Server) handleReportAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var (
		path string
		opts models.ExtractOptions
	)
	opts.UseAI = s.app.Config.Extraction.UseAI

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		uploaded, ok := s.saveUpload(w, r)
		if !ok {
			return
		}
		path = uploaded
		opts.ForceAI = r.FormValue("force_ai") == "true"
		opts.FastOnly = r.FormValue("fast_only") == "true"
		if v := r.FormValue("use_ai"); v != "" {
			opts.UseAI = v == "true"
		}
	} else {
		var req struct {
			Path     string `json:"path"`
			UseAI    *bool  `json:"use_ai"`
			ForceAI  bool   `json:"force_ai"`
			FastOnly bool   `json:"fast_only"`
			MaxPages int    `json:"max_pages"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required")
			return
		}
		path = req.Path
		if req.UseAI != nil {
			opts.UseAI = *req.UseAI
		}
		opts.ForceAI = req.ForceAI
		opts.FastOnly = req.FastOnly
		opts.MaxPages = req.MaxPages
	}

	report, err := s.app.ReportService.Analyze(r.Context(), path, opts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}

	status := http.StatusOK
	if report.Status == "failed" && strings.Contains(report.Error, "not found") {
		status = http.StatusNotFound
	}
	WriteJSON(w, status, report)
}

// saveUpload persists the multipart "file" part and returns its path.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "multipart 'file' part is required: "+err.Error())
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return "", false
	}

	name := filepath.Base(header.Filename)
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	key := uuid.New().String()[:8] + "-" + name
	if err := s.app.Storage.WriteRaw("uploads", key, data); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to persist upload: "+err.Error())
		return "", false
	}

	return filepath.Join(s.app.Config.Storage.Path, "uploads", key), true
}

// handleReportList handles GET /api/reports.
func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	reports, err := s.app.ReportService.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list reports: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// handleReport handles GET /api/reports/{id} and DELETE /api/reports/{id}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		report, err := s.app.ReportService.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				WriteError(w, http.StatusNotFound, fmt.Sprintf("report '%s' not found", id))
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, report)
	case http.MethodDelete:
		if err := s.app.Storage.DeleteReport(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleReportChart handles GET /api/reports/{id}/chart.png.
func (s *Server) handleReportChart(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	report, err := s.app.ReportService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("report '%s' not found", id))
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	png, err := s.app.ReportService.RenderChart(report)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "chart render failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
