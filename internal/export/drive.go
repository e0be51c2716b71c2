package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"MarketWorkbook/internal/config"
)

// DriveFiles creates a file in a Drive folder and returns its id.
type DriveFiles interface {
	Create(ctx context.Context, name, folderID string, body io.Reader) (string, error)
}

// DriveStore uploads workbooks into a Google Drive folder.
type DriveStore struct {
	files    DriveFiles
	folderID string
	logger   arbor.ILogger
}

// NewDriveStore authenticates with the service-account JSON at
// cfg.CredentialsFile, or application default credentials when unset.
func NewDriveStore(ctx context.Context, cfg config.DriveConfig, logger arbor.ILogger) (*DriveStore, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if cfg.CredentialsFile != "" {
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewDriveStoreWithFiles(&driveFiles{srv: srv}, cfg.FolderID, logger), nil
}

// NewDriveStoreWithFiles wraps an existing Drive client.
func NewDriveStoreWithFiles(files DriveFiles, folderID string, logger arbor.ILogger) *DriveStore {
	return &DriveStore{files: files, folderID: folderID, logger: logger}
}

func (s *DriveStore) Name() string { return BackendDrive }

// Dispatch uploads blob under the base name of p; Drive folders are flat.
func (s *DriveStore) Dispatch(ctx context.Context, blob []byte, p string) error {
	name := path.Base(p)
	id, err := s.files.Create(ctx, name, s.folderID, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("drive upload %s: %w", name, err)
	}
	s.logger.Info().Str("folder", s.folderID).Str("file_id", id).Str("name", name).Msg("Workbook uploaded")
	return nil
}

type driveFiles struct {
	srv *drive.Service
}

func (d *driveFiles) Create(ctx context.Context, name, folderID string, body io.Reader) (string, error) {
	f, err := d.srv.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: XLSXContentType,
	}).Media(body).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}
