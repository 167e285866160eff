package container

import (
	"fmt"

	"datamosh/models"
)

const (
	RiffHeaderProtect    = 32768 // AVI header: 32KB
	RiffTailProtect      = 1024
	RiffMovieListProtect = 8192 // movi list head: 8KB
	RiffFrameProtect     = 4096
	RiffMinFrameInterval = 2048
)

// Chunk ids scanned as fixed signatures
var riffSignatures = []string{"RIFF", "LIST", "idx1", "hdrl", "strh", "strf", "movi", "JUNK"}

var riffStages = []models.Stage{
	{StartRatio: 0.00, EndRatio: 0.10, Intensity: 0.01, BurstSize: 2},
	{StartRatio: 0.10, EndRatio: 0.25, Intensity: 0.02, BurstSize: 3},
	{StartRatio: 0.25, EndRatio: 0.40, Intensity: 0.05, BurstSize: 6},
	{StartRatio: 0.40, EndRatio: 0.60, Intensity: 0.10, BurstSize: 12},
	{StartRatio: 0.60, EndRatio: 0.75, Intensity: 0.20, BurstSize: 18},
	{StartRatio: 0.75, EndRatio: 0.85, Intensity: 0.35, BurstSize: 25},
	{StartRatio: 0.85, EndRatio: 1.00, Intensity: 0.60, BurstSize: 50},
}

// RiffStyle handles chunk-based RIFF containers (AVI). The whole post-header buffer is
// a single corruption region.
type RiffStyle struct{}

func (RiffStyle) Format() Format     { return FormatAVI }
func (RiffStyle) HeaderProtect() int { return RiffHeaderProtect }
func (RiffStyle) TailProtect() int   { return RiffTailProtect }

func (RiffStyle) DefaultStages() []models.Stage {
	return cloneStages(riffStages)
}

func (RiffStyle) Mutation() models.MutationProfile {
	return models.MutationProfile{
		OperatorWindow: 2,
		LowBits:        4,
		FlattenValue:   0x80, // mid gray
		Noise:          models.NoiseConstant,
		NoiseValue:     0x55,
		LookbackMin:    5000,
		LookbackSpan:   20000,
	}
}

func (RiffStyle) ScanAnchors(buf []byte) Anchors {
	return Anchors{
		Signatures: scanSignatures(buf, riffSignatures, 0),
		Video:      thin(scanChunkMarkers(buf, RiffHeaderProtect), RiffMinFrameInterval),
	}
}

func (r RiffStyle) BuildMask(buf []byte, anchors Anchors) (Mask, int) {
	mask := NewMask(len(buf))
	mask.Protect(0, RiffHeaderProtect)
	mask.Protect(len(buf)-RiffTailProtect, len(buf))

	for _, positions := range anchors.Signatures {
		for _, pos := range positions {
			mask.Protect(pos, pos+4)
		}
	}

	if movi, ok := anchors.First("movi"); ok {
		mask.Protect(movi, movi+RiffMovieListProtect)
	}

	// idx1 through the next LIST: the index table survives whatever its size
	if idx, ok := anchors.First("idx1"); ok {
		end := len(buf)
		if next, ok := anchors.NextAfter("LIST", idx); ok {
			end = next
		}
		mask.Protect(idx, end)
	}

	for _, pos := range anchors.Video {
		mask.Protect(pos, pos+RiffFrameProtect)
	}
	return mask, len(anchors.Video)
}

func (RiffStyle) PlanStage(buf []byte, _ Anchors, index int, stage models.Stage, frameCount int) (StagePlan, error) {
	safe := len(buf) - RiffHeaderProtect - RiffTailProtect
	if safe <= 0 {
		return StagePlan{}, fmt.Errorf("%w: %d bytes leaves no room past the protected header and tail",
			ErrMalformedContainer, len(buf))
	}
	start := ratioOffset(RiffHeaderProtect, safe, stage.StartRatio)
	end := ratioOffset(RiffHeaderProtect, safe, stage.EndRatio)
	if end < start {
		end = start
	}
	return StagePlan{
		Index:   index,
		Stage:   stage,
		Ranges:  []models.Region{{Offset: start, Size: end - start}},
		Weights: []int64{int64(end - start)},
		Target:  roundCount(stage.Intensity * float64(frameCount)),
	}, nil
}
