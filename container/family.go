package container

import (
	"math"

	"datamosh/models"
)

// Family is the format-specific half of a corruption session: it knows where the
// structure lives, what to protect, and how stage ratios map onto bytes.
type Family interface {
	Format() Format
	HeaderProtect() int
	TailProtect() int
	DefaultStages() []models.Stage
	Mutation() models.MutationProfile

	// ScanAnchors finds structural anchors; an empty result is valid.
	ScanAnchors(buf []byte) Anchors

	// BuildMask derives the protection mask and returns it with the frame count.
	BuildMask(buf []byte, anchors Anchors) (Mask, int)

	// PlanStage maps a stage onto concrete byte ranges and a target glitch count.
	PlanStage(buf []byte, anchors Anchors, index int, stage models.Stage, frameCount int) (StagePlan, error)
}

// ForFormat returns the family implementation for f
func ForFormat(f Format) (Family, error) {
	switch f {
	case FormatAVI:
		return RiffStyle{}, nil
	case FormatMP4:
		return BoxStyle{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ratioOffset(base, size int, ratio float64) int {
	return base + int(ratio*float64(size))
}

func roundCount(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}

func cloneStages(stages []models.Stage) []models.Stage {
	out := make([]models.Stage, len(stages))
	copy(out, stages)
	return out
}
