// Package export delivers serialized workbooks to a destination store.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/config"
)

// XLSXContentType is the MIME type of every exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Supported backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendDrive = "drive"
)

var (
	ErrUnknownBackend = errors.New("unknown export backend")
	ErrNotConfigured  = errors.New("export backend not configured")
)

// Dispatcher writes one workbook blob to path. Failures are returned, never
// retried.
type Dispatcher interface {
	Dispatch(ctx context.Context, blob []byte, path string) error
	Name() string
}

// New builds the dispatcher for backend from cfg.
func New(ctx context.Context, cfg config.ExportConfig, backend string, logger arbor.ILogger) (Dispatcher, error) {
	switch backend {
	case BackendLocal:
		if cfg.Local.Dir == "" {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, backend)
		}
		return NewLocalStore(cfg.Local.Dir, logger)
	case BackendS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, backend)
		}
		return NewS3Store(ctx, cfg.S3, logger)
	case BackendDrive:
		if cfg.Drive.FolderID == "" {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, backend)
		}
		return NewDriveStore(ctx, cfg.Drive, logger)
	}
	return nil, fmt.Errorf("%w: %q (supported: local, s3, drive)", ErrUnknownBackend, backend)
}

// Registry builds dispatchers on first use and reuses them afterwards.
type Registry struct {
	cfg    config.ExportConfig
	logger arbor.ILogger

	mu    sync.Mutex
	built map[string]Dispatcher
}

// NewRegistry creates a registry over cfg. cfg.Backend is the default.
func NewRegistry(cfg config.ExportConfig, logger arbor.ILogger) *Registry {
	return &Registry{cfg: cfg, logger: logger, built: make(map[string]Dispatcher)}
}

// Register installs a prebuilt dispatcher for backend.
func (r *Registry) Register(backend string, d Dispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built[backend] = d
}

// Get returns the dispatcher for backend; an empty backend means the default.
func (r *Registry) Get(ctx context.Context, backend string) (Dispatcher, error) {
	if backend == "" {
		backend = r.cfg.Backend
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.built[backend]; ok {
		return d, nil
	}
	d, err := New(ctx, r.cfg, backend, r.logger)
	if err != nil {
		return nil, err
	}
	r.built[backend] = d
	return d, nil
}

// Default returns the dispatcher of the configured backend.
func (r *Registry) Default(ctx context.Context) (Dispatcher, error) { return r.Get(ctx, "") }
