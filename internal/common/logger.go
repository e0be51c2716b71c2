// Package common provides shared utilities for MarketWorkbook.
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"MarketWorkbook/internal/config"
)

// NewLogger builds the application logger from the logging config.
// Output may list "console" and/or "file".
func NewLogger(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger()

	for _, output := range cfg.Output {
		switch output {
		case "file":
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         cfg.FilePath,
				TimeFormat:       "15:04:05",
				MaxSize:          50 * 1024 * 1024,
				MaxBackups:       3,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		case "console", "stdout":
			logger = logger.WithConsoleWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeConsole,
				TimeFormat:       "15:04:05",
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	return logger.WithLevelFromString(cfg.Level)
}
