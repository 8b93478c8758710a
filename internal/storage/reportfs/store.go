// Package reportfs implements file-based JSON storage for analysis
// reports and their rendered artifacts.
package reportfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
)

// Store provides file-based JSON storage for analysis reports. Writes are
// atomic (temp file + rename) so a killed worker never leaves a truncated
// report behind.
type Store struct {
	basePath   string
	reportsDir string
	logger     *common.Logger
}

// NewStore creates a report file store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report store path %s: %w", path, err)
	}
	reportsDir := filepath.Join(path, "reports")
	os.MkdirAll(reportsDir, 0755)

	logger.Info().Str("path", path).Msg("ReportFS store opened")
	return &Store{
		basePath:   path,
		reportsDir: reportsDir,
		logger:     logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// SaveReport persists a report, stamping UpdatedAt.
func (s *Store) SaveReport(_ context.Context, report *models.AnalysisReport) error {
	if report.ID == "" {
		return fmt.Errorf("report has no ID")
	}
	report.UpdatedAt = time.Now()
	if err := writeJSON(s.reportsDir, report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	s.logger.Debug().Str("id", report.ID).Str("status", report.Status).Msg("Report saved")
	return nil
}

// GetReport loads one report by ID.
func (s *Store) GetReport(_ context.Context, id string) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	if err := readJSON(s.reportsDir, id, &report); err != nil {
		return nil, fmt.Errorf("report '%s' not found", id)
	}
	return &report, nil
}

// ListReports returns all reports, newest first.
func (s *Store) ListReports(_ context.Context) ([]*models.AnalysisReport, error) {
	keys, err := listKeys(s.reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	reports := make([]*models.AnalysisReport, 0, len(keys))
	for _, key := range keys {
		var r models.AnalysisReport
		if err := readJSON(s.reportsDir, key, &r); err != nil {
			continue
		}
		reports = append(reports, &r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// DeleteReport removes a report by ID.
func (s *Store) DeleteReport(_ context.Context, id string) error {
	os.Remove(filePath(s.reportsDir, id))
	return nil
}

// WriteRaw writes arbitrary binary data to a subdirectory atomically.
func (s *Store) WriteRaw(subdir, key string, data []byte) error {
	dir := filepath.Join(s.basePath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, sanitizeKey(key))

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ReadRaw reads binary data previously written with WriteRaw.
func (s *Store) ReadRaw(subdir, key string) ([]byte, error) {
	target := filepath.Join(s.basePath, subdir, sanitizeKey(key))
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("'%s/%s' not found", subdir, key)
	}
	return data, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// --- helpers ---

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func filePath(dir, key string) string {
	return filepath.Join(dir, sanitizeKey(key)+".json")
}

func readJSON(dir, key string, dest interface{}) error {
	path := filePath(dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' not found", key)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", key)
	}
	return json.Unmarshal(data, dest)
}

func writeJSON(dir, key string, data interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filePath(dir, key)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func listKeys(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}
