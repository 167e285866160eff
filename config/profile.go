// Package config loads custom stage profiles from TOML or JSONC files
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tailscale/hujson"

	"datamosh/models"
)

var ErrInvalidProfile = errors.New("config: invalid stage profile")

// Profile is a user-supplied stage list, optionally pinned to one format
type Profile struct {
	Format string         `toml:"format" json:"format"`
	Stages []models.Stage `toml:"stages" json:"stages"`
}

// LoadProfile reads path as TOML (.toml) or JSON with comments (.json, .jsonc)
func LoadProfile(path string) (Profile, error) {
	var (
		p   Profile
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		p, err = loadTOML(path)
	case ".json", ".jsonc":
		p, err = loadJSONC(path)
	default:
		return Profile{}, fmt.Errorf("%w: %s: expected .toml, .json or .jsonc", ErrInvalidProfile, path)
	}
	if err != nil {
		return Profile{}, err
	}

	if err := ValidateStages(p.Stages); err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	p.Format = strings.ToLower(strings.TrimSpace(p.Format))
	return p, nil
}

func loadTOML(path string) (Profile, error) {
	var p Profile
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, path, err)
	}
	if !meta.IsDefined("stages") {
		return Profile{}, fmt.Errorf("%w: %s: no [[stages]] table", ErrInvalidProfile, path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Profile{}, fmt.Errorf("%w: %s: unknown key %q", ErrInvalidProfile, path, undecoded[0].String())
	}
	return p, nil
}

func loadJSONC(path string) (Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, path, err)
	}
	return ParseJSONC(data)
}

// ParseJSONC decodes a profile from JSON that may carry comments and trailing commas
func ParseJSONC(data []byte) (Profile, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: invalid JSONC: %w", ErrInvalidProfile, err)
	}

	var p Profile
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("%w: invalid JSON: %w", ErrInvalidProfile, err)
	}
	if p.Stages == nil {
		return Profile{}, fmt.Errorf("%w: no stages", ErrInvalidProfile)
	}
	return p, nil
}

// ValidateStages checks that a stage list is usable: ratios inside [0,1] with start <= end,
// starts in non-decreasing order, an intensity within [0,1] and a burst of at least one byte.
func ValidateStages(stages []models.Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrInvalidProfile)
	}
	prevStart := 0.0
	for i, s := range stages {
		n := i + 1
		switch {
		case !inUnit(s.StartRatio) || !inUnit(s.EndRatio):
			return fmt.Errorf("%w: stage %d: ratios must be within [0,1]", ErrInvalidProfile, n)
		case s.StartRatio > s.EndRatio:
			return fmt.Errorf("%w: stage %d: start_ratio %.3f is past end_ratio %.3f",
				ErrInvalidProfile, n, s.StartRatio, s.EndRatio)
		case s.StartRatio < prevStart:
			return fmt.Errorf("%w: stage %d: stages must be ordered by start_ratio", ErrInvalidProfile, n)
		case !inUnit(s.Intensity):
			return fmt.Errorf("%w: stage %d: intensity must be within [0,1]", ErrInvalidProfile, n)
		case s.BurstSize < 1:
			return fmt.Errorf("%w: stage %d: burst_size must be at least 1", ErrInvalidProfile, n)
		}
		prevStart = s.StartRatio
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
