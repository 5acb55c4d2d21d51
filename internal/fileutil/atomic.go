// Package fileutil provides filesystem helpers for the state files crossdrop
// keeps under its home directory.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEmptyPath indicates an empty file path was provided.
	ErrEmptyPath = errors.New("path is empty")

	// ErrCorrupt indicates a state file is not valid JSON.
	ErrCorrupt = errors.New("state file is corrupted")
)

//nolint:gochecknoglobals // jsoniter configured once, same as encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteAtomic writes data to path through a synced temp file in the same
// directory and a rename, creating the parent directory when missing.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeSynced(tmp, data, perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is validated by caller
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	if d, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func writeSynced(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	return nil
}

// WriteJSON encodes v as indented JSON and writes it atomically with 0600.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return WriteAtomic(path, append(data, '\n'), 0o600)
}

// ReadJSON decodes the JSON file at path into v. A missing file leaves v
// untouched and returns found=false with no error.
func ReadJSON(path string, v any) (found bool, err error) {
	if path == "" {
		return false, ErrEmptyPath
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is under the crossdrop home
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: decoding %s: %w", ErrCorrupt, filepath.Base(path), err)
	}
	return true, nil
}

// Quarantine moves a corrupt state file aside to <path>.corrupt.<nanos> so
// the next write starts fresh, and returns the new name.
func Quarantine(path string) (string, error) {
	corruptPath := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UTC().UnixNano())
	if err := os.Rename(path, corruptPath); err != nil {
		return "", fmt.Errorf("moving corrupt file: %w", err)
	}
	return corruptPath, nil
}
