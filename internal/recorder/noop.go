package recorder

import (
	"context"

	"MarketWorkbook/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, *model.ExportRun) error { return nil }
func (n *NoopRecorder) LastRun(context.Context) (*model.ExportRun, error) { return nil, ErrNoRuns }
func (n *NoopRecorder) RecentRuns(context.Context, int) ([]model.ExportRun, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
