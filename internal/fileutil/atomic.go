// Package fileutil reads and replaces the small files safecheck keeps in its
// home directory: the config and the file-backed token store.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm is the mode for directories created on demand.
const DirPerm = 0o750

// ErrEmptyPath is returned for an empty file path.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic replaces path with data. The bytes go to a sibling temp file
// that is synced, chmodded and renamed over path, so readers see the old
// file or the new one and never a partial write. Parent directories are
// created as needed.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := writeTemp(dir, filepath.Base(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil { //nolint:gosec // G703: path is validated by caller
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}

	syncDir(dir)
	return nil
}

// writeTemp writes data to a new temp file in dir and returns its name. The
// file is removed again on any failure.
func writeTemp(dir, base string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return f.Name(), nil
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: dir is derived from validated path
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// ReadIfExists returns the contents of path, or nil and no error when it
// does not exist.
func ReadIfExists(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
