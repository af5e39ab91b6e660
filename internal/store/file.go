package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/internal/output"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// FileStore writes each batch to <dir>/<key>.<ext>.
type FileStore struct {
	dir    string
	format output.Format
	log    *slog.Logger
}

// NewFileStore creates a FileStore. The directory is created on first save.
func NewFileStore(dir string, format output.Format, log *slog.Logger) (*FileStore, error) {
	if _, err := output.ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, format: format, log: logger.OrDiscard(log)}, nil
}

// Path returns the file a batch is written to.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+"."+s.format.Ext())
}

// Exists reports whether the batch file is present.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.Path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat batch %s: %w", key, err)
	}
}

// Save writes the batch to a temporary file and renames it into place, so a
// batch file is either complete or absent.
func (s *FileStore) Save(_ context.Context, key string, run *listing.Run) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := output.WriteBatch(tmp, s.format, run.Rows()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write batch %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write batch %s: %w", key, err)
	}

	path := s.Path(key)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move batch into place: %w", err)
	}

	size := "?"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size())) //#nosec G115 -- file sizes are non-negative
	}
	s.log.Info("batch written", "path", path, "rows", len(run.Listings), "size", size)
	return nil
}
