// Package fsio reads and writes whole video files
package fsio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

var ErrIO = errors.New("fsio: file i/o failed")

const filePerms = 0o644

// Load reads the whole file at path
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return data, nil
}

// Save replaces path with data in one step; readers never see a partial file
func Save(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	// atomic.WriteFile keeps the temp file's 0600 mode on new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrIO, path, err)
	}
	return nil
}
