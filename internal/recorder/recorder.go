package recorder

import (
	"context"
	"errors"

	"MarketWorkbook/internal/model"
)

// ErrNoRuns is returned by LastRun when nothing has been recorded.
var ErrNoRuns = errors.New("no export runs recorded")

// Recorder persists export run history.
type Recorder interface {
	RecordRun(ctx context.Context, run *model.ExportRun) error
	LastRun(ctx context.Context) (*model.ExportRun, error)
	RecentRuns(ctx context.Context, limit int) ([]model.ExportRun, error)
	Close() error
}
