package fsio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.avi")
	data := []byte("RIFF\x00\x00\x00\x00AVI ")

	require.NoError(t, Save(path, data))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerms), info.Mode().Perm())

	require.NoError(t, Save(path, []byte("short")))
	got, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("short"), got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveIntoMissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "nope", "out.mp4"), []byte("x"))
	assert.ErrorIs(t, err, ErrIO)
}
