package reportfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore_SaveAndGetReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &models.AnalysisReport{
		ID:          "r1",
		SourcePath:  "/tmp/filing.pdf",
		Status:      "done",
		HealthScore: 72,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.SaveReport(ctx, report))
	assert.False(t, report.UpdatedAt.IsZero(), "SaveReport should stamp UpdatedAt")

	got, err := store.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "done", got.Status)
	assert.Equal(t, 72, got.HealthScore)
}

func TestStore_SaveReportRequiresID(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveReport(context.Background(), &models.AnalysisReport{})
	assert.Error(t, err)
}

func TestStore_GetReportNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetReport(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStore_ListReportsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	reports, err := store.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "new", reports[0].ID)
	assert.Equal(t, "old", reports[2].ID)
}

func TestStore_DeleteReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{ID: "gone"}))
	require.NoError(t, store.DeleteReport(ctx, "gone"))

	_, err := store.GetReport(ctx, "gone")
	assert.Error(t, err)
}

func TestStore_RawRoundTrip(t *testing.T) {
	store := newTestStore(t)

	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	require.NoError(t, store.WriteRaw("charts", "r1.png", data))

	got, err := store.ReadRaw("charts", "r1.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = store.ReadRaw("charts", "missing.png")
	assert.Error(t, err)
}

func TestStore_SanitizesKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Path separators in an ID must not escape the reports directory.
	require.NoError(t, store.SaveReport(ctx, &models.AnalysisReport{ID: "../../etc/passwd"}))
	got, err := store.GetReport(ctx, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "../../etc/passwd", got.ID)
}
