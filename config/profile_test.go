package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datamosh/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

var twoStages = []models.Stage{
	{StartRatio: 0, EndRatio: 0.5, Intensity: 0.1, BurstSize: 4},
	{StartRatio: 0.5, EndRatio: 1, Intensity: 0.3, BurstSize: 16},
}

func TestLoadProfileTOML(t *testing.T) {
	path := writeFile(t, "heavy.toml", `
format = "AVI"

[[stages]]
start_ratio = 0.0
end_ratio = 0.5
intensity = 0.1
burst_size = 4

[[stages]]
start_ratio = 0.5
end_ratio = 1.0
intensity = 0.3
burst_size = 16
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "avi", p.Format)
	if diff := cmp.Diff(twoStages, p.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfileJSONC(t *testing.T) {
	path := writeFile(t, "heavy.jsonc", `{
  // gentle start
  "stages": [
    {"start_ratio": 0, "end_ratio": 0.5, "intensity": 0.1, "burst_size": 4},
    {"start_ratio": 0.5, "end_ratio": 1, "intensity": 0.3, "burst_size": 16},
  ],
}`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Empty(t, p.Format)
	if diff := cmp.Diff(twoStages, p.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown extension", "p.yaml", "stages: []"},
		{"toml without stages", "p.toml", `format = "mp4"`},
		{"toml unknown key", "p.toml", "[[stages]]\nstart_ratio = 0.0\nend_ratio = 1.0\nintensity = 0.1\nburst_size = 1\nspeed = 3\n"},
		{"broken toml", "p.toml", "[[stages]\n"},
		{"json unknown field", "p.json", `{"stages": [], "speed": 1}`},
		{"json without stages", "p.json", `{"format": "avi"}`},
		{"broken json", "p.json", `{"stages": [`},
		{"invalid stage", "p.json", `{"stages": [{"start_ratio": 0.6, "end_ratio": 0.2, "intensity": 0.1, "burst_size": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfile(writeFile(t, tt.file, tt.content))
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateStages(t *testing.T) {
	ok := models.Stage{StartRatio: 0.1, EndRatio: 0.2, Intensity: 0.5, BurstSize: 1}
	tests := []struct {
		name   string
		stages []models.Stage
		valid  bool
	}{
		{"valid", []models.Stage{ok}, true},
		{"empty", nil, false},
		{"ratio above one", []models.Stage{{StartRatio: 0, EndRatio: 1.5, BurstSize: 1}}, false},
		{"negative ratio", []models.Stage{{StartRatio: -0.1, EndRatio: 0.5, BurstSize: 1}}, false},
		{"start past end", []models.Stage{{StartRatio: 0.5, EndRatio: 0.4, BurstSize: 1}}, false},
		{"out of order", []models.Stage{ok, {StartRatio: 0, EndRatio: 0.1, BurstSize: 1}}, false},
		{"negative intensity", []models.Stage{{EndRatio: 1, Intensity: -1, BurstSize: 1}}, false},
		{"zero burst", []models.Stage{{EndRatio: 1, Intensity: 0.1}}, false},
		{"intensity above one", []models.Stage{{EndRatio: 1, Intensity: 3, BurstSize: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStages(tt.stages)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidProfile)
			}
		})
	}
}
