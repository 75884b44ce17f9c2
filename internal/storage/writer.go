// Package storage writes source files so that readers see either the old or
// the new content, never a partial write.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/designer"
)

const defaultMode fs.FileMode = 0o644

// SafeWriter implements designer.FileWriter on an afero filesystem by
// writing a temp file next to the target and renaming it into place.
type SafeWriter struct {
	fs  afero.Fs
	log *slog.Logger
}

var _ designer.FileWriter = (*SafeWriter)(nil)

func NewSafeWriter(fsys afero.Fs, log *slog.Logger) *SafeWriter {
	if log == nil {
		log = slog.Default()
	}
	return &SafeWriter{fs: fsys, log: log}
}

// WriteFile replaces fileName with data, keeping the mode of an existing
// file.
func (w *SafeWriter) WriteFile(fileName string, data []byte) (err error) {
	dir := filepath.Dir(fileName)
	mode := defaultMode
	if fi, statErr := w.fs.Stat(fileName); statErr == nil {
		mode = fi.Mode().Perm()
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", fileName, statErr)
	}

	if err = w.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := afero.TempFile(w.fs, dir, "."+filepath.Base(fileName)+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", fileName, err)
	}
	tmp := f.Name()
	defer func() {
		if err == nil {
			return
		}
		if rmErr := w.fs.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			w.log.With("file", tmp, "error", rmErr).Warn("failed to remove temp file")
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = w.fs.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err = w.fs.Rename(tmp, fileName); err != nil {
		return fmt.Errorf("rename %s: %w", fileName, err)
	}
	w.log.With("file", fileName, "bytes", len(data)).Debug("file written")
	return nil
}
