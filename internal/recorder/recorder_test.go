package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "runs.db"), arbor.NewLogger())
	require.NoError(t, err)
	defer rec.Close()

	_, err = rec.LastRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.Date(2024, 1, 3, 21, 30, 0, 0, time.UTC)
	first := &model.ExportRun{
		Trigger:   model.TriggerDaily,
		Mode:      model.ModeAllComponents,
		StartedAt: base,
		Duration:  90 * time.Second,
		Groups:    5,
		Sheets:    4,
		Rows:      612,
		Filename:  "all_tickers_data_20240103213000.xlsx",
		Exported:  true,
		Notices:   []string{"no data found for Nasdaq100", "no data found for Other"},
	}
	require.NoError(t, rec.RecordRun(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &model.ExportRun{
		ID:        "run-2",
		Trigger:   model.TriggerHourly,
		Mode:      model.ModeRealtime,
		StartedAt: base.Add(time.Hour),
		Err:       "s3 put: access denied",
	}
	require.NoError(t, rec.RecordRun(ctx, second))

	last, err := rec.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", last.ID)
	assert.Equal(t, model.ModeRealtime, last.Mode)
	assert.False(t, last.Exported)
	assert.Equal(t, "s3 put: access denied", last.Err)

	runs, err := rec.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, 612, runs[1].Rows)
	assert.Equal(t, 90*time.Second, runs[1].Duration)
	assert.True(t, runs[1].Exported)
	assert.Equal(t, first.Notices, runs[1].Notices)
	assert.True(t, base.Equal(runs[1].StartedAt))
}

func TestSQLiteRecorder_MultilineNoticeStaysWhole(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), arbor.NewLogger())
	require.NoError(t, err)
	defer rec.Close()

	notices := []string{"no data found for ETFs (yahoo download: SPY: status 500\nQQQ: status 500)", "nothing to export"}
	require.NoError(t, rec.RecordRun(ctx, &model.ExportRun{
		Mode:      model.ModeAllComponents,
		StartedAt: time.Date(2024, 1, 3, 21, 30, 0, 0, time.UTC),
		Notices:   notices,
	}))

	last, err := rec.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, notices, last.Notices)
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(context.Background(), &model.ExportRun{}))
	_, err := rec.LastRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRuns)
}
