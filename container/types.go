// Package container scans video containers for structure that must survive corruption
package container

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"datamosh/models"
)

var (
	ErrUnsupportedFormat  = errors.New("container: unsupported format")
	ErrMalformedContainer = errors.New("container: malformed container, no corruption applied")
)

// Format identifies a container family
type Format string

const (
	FormatAVI Format = "avi"
	FormatMP4 Format = "mp4"
)

// ParseFormat resolves a case-insensitive format token
func ParseFormat(token string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(token))) {
	case FormatAVI:
		return FormatAVI, nil
	case FormatMP4:
		return FormatMP4, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: avi, mp4)", ErrUnsupportedFormat, token)
	}
}

// MatchesExtension reports whether the file name carries the extension of f
func (f Format) MatchesExtension(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.EqualFold(ext, string(f))
}

// Payload is a top-level media-data atom
type Payload struct {
	models.Region
	HeaderSize int
}

// Anchors holds the sorted, deduplicated anchor positions found by a scan
type Anchors struct {
	Signatures map[string][]int
	Video      []int
	Audio      []int
	Payloads   []Payload
}

// First returns the first position of a signature tag
func (a Anchors) First(tag string) (int, bool) {
	positions := a.Signatures[tag]
	if len(positions) == 0 {
		return 0, false
	}
	return positions[0], true
}

// NextAfter returns the first position of tag strictly after pos
func (a Anchors) NextAfter(tag string, pos int) (int, bool) {
	for _, p := range a.Signatures[tag] {
		if p > pos {
			return p, true
		}
	}
	return 0, false
}

// SignatureCount returns the number of signature hits across all tags
func (a Anchors) SignatureCount() int {
	n := 0
	for _, positions := range a.Signatures {
		n += len(positions)
	}
	return n
}

// Empty reports whether the scan found nothing at all
func (a Anchors) Empty() bool {
	return a.SignatureCount() == 0 && len(a.Video) == 0 && len(a.Audio) == 0 && len(a.Payloads) == 0
}

// StagePlan is the concrete sampling plan for one stage
type StagePlan struct {
	Index   int
	Stage   models.Stage
	Ranges  []models.Region
	Weights []int64
	Target  int
}
