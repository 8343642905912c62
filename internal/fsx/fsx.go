// Package fsx holds the two write disciplines used for generated files:
// replace-atomically for chunk text and create-if-absent for records.
package fsx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	PermFile os.FileMode = 0o644
	PermDir  os.FileMode = 0o755
)

// WriteFileAtomic replaces path with data via a temp file in the same
// directory and a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, PermDir); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmpPath, err := writeTemp(dir, data, perm)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	_ = syncDir(dir)
	return nil
}

// CreateIfAbsent writes data to path only if nothing exists there yet and
// reports whether it did. The complete file is hard-linked into place and
// an existing file is never touched. Filesystems without hard links fall
// back to O_EXCL.
func CreateIfAbsent(path string, data []byte, perm os.FileMode) (bool, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, PermDir); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	}

	tmpPath, err := writeTemp(dir, data, perm)
	if err != nil {
		return false, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	linkErr := os.Link(tmpPath, path)
	_ = os.Remove(tmpPath)
	switch {
	case linkErr == nil:
		_ = syncDir(dir)
		return true, nil
	case errors.Is(linkErr, fs.ErrExist):
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return true, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// syncDir best-effort fsyncs a directory so the new entry survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
