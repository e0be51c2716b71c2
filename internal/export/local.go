package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// LocalStore writes workbooks under a base directory.
// Path format: "daily/all.xlsx" -> "{dir}/daily/all.xlsx"
type LocalStore struct {
	dir    string
	logger arbor.ILogger
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(dir string, logger arbor.ILogger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	logger.Debug().Str("path", dir).Msg("LocalStore initialized")
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Name() string { return BackendLocal }

// sanitizeKey keeps "/" for subdirectories and strips traversal.
func sanitizeKey(key string) string {
	clean := filepath.Clean(key)
	clean = strings.TrimPrefix(clean, "/")
	if strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", "__")
	}
	return clean
}

// Dispatch stores blob atomically using temp file + rename.
func (s *LocalStore) Dispatch(ctx context.Context, blob []byte, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.dir, sanitizeKey(path))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, bytes.NewReader(blob)); err != nil {
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

	s.logger.Info().Str("path", target).Int("bytes", len(blob)).Msg("Workbook written")
	return nil
}
