package interfaces

import (
	"context"

	"github.com/finsight-io/finsight/internal/models"
)

// ReportStorage persists analysis reports and their rendered artifacts.
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.AnalysisReport) error
	GetReport(ctx context.Context, id string) (*models.AnalysisReport, error)
	ListReports(ctx context.Context) ([]*models.AnalysisReport, error)
	DeleteReport(ctx context.Context, id string) error

	// WriteRaw stores arbitrary binary data (chart PNGs) under a subdirectory.
	WriteRaw(subdir, key string, data []byte) error
	// ReadRaw reads binary data previously written with WriteRaw.
	ReadRaw(subdir, key string) ([]byte, error)

	Close() error
}
