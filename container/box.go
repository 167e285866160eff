package container

import (
	"fmt"

	"datamosh/models"
)

const (
	BoxHeaderProtect         = 1024
	BoxFrameProtect          = 32
	BoxAudioFrameProtect     = 16
	BoxMinFrameInterval      = 1024
	BoxMinAudioFrameInterval = 512
	BoxGlitchFloor           = 50

	boxSmallHeader = 8
	boxLargeHeader = 16
)

var boxSignatures = []string{"ftyp", "moov", "mdat"}

var boxStages = []models.Stage{
	{StartRatio: 0.00, EndRatio: 0.05, Intensity: 0.0002, BurstSize: 1},
	{StartRatio: 0.05, EndRatio: 0.15, Intensity: 0.001, BurstSize: 1},
	{StartRatio: 0.15, EndRatio: 0.30, Intensity: 0.002, BurstSize: 2},
	{StartRatio: 0.30, EndRatio: 0.50, Intensity: 0.004, BurstSize: 2},
	{StartRatio: 0.50, EndRatio: 0.70, Intensity: 0.01, BurstSize: 3},
	{StartRatio: 0.70, EndRatio: 0.90, Intensity: 0.02, BurstSize: 3},
	{StartRatio: 0.90, EndRatio: 1.00, Intensity: 0.035, BurstSize: 5},
}

// BoxStyle handles atom-based ISO BMFF containers (MP4). Each mdat atom is its own
// corruption region.
type BoxStyle struct{}

func (BoxStyle) Format() Format     { return FormatMP4 }
func (BoxStyle) HeaderProtect() int { return BoxHeaderProtect }
func (BoxStyle) TailProtect() int   { return 0 }

func (BoxStyle) DefaultStages() []models.Stage {
	return cloneStages(boxStages)
}

func (BoxStyle) Mutation() models.MutationProfile {
	return models.MutationProfile{
		OperatorWindow:  3,
		LowBits:         2,
		FlattenValue:    0x00,
		ShiftByStrength: true,
		Noise:           models.NoiseRandom,
		LookbackMin:     5000,
		LookbackSpan:    30001,
	}
}

func (BoxStyle) ScanAnchors(buf []byte) Anchors {
	signatures := scanSignatures(buf, boxSignatures, 4)
	return Anchors{
		Signatures: signatures,
		Video:      thin(scanStartCodes(buf, BoxHeaderProtect), BoxMinFrameInterval),
		Audio:      thin(scanAudioSync(buf, BoxHeaderProtect), BoxMinAudioFrameInterval),
		Payloads:   scanPayloads(buf, signatures["mdat"]),
	}
}

// scanPayloads reads the declared size of every mdat tag. A 32-bit size of 1 means the real
// size is the 64-bit value 8 bytes past the tag and the header is 16 bytes; 0 runs to EOF.
func scanPayloads(buf []byte, tags []int) []Payload {
	var payloads []Payload
	for _, pos := range tags {
		size32, ok := boxSizeBefore(buf, pos)
		if !ok {
			continue
		}

		p := Payload{HeaderSize: boxSmallHeader}
		var size uint64
		switch size32 {
		case 1:
			ext, ok := extendedSizeAt(buf, pos)
			if !ok || pos < 8 {
				continue
			}
			p.Offset = pos - 8
			p.HeaderSize = boxLargeHeader
			size = ext
		case 0:
			p.Offset = pos - 4
			size = uint64(len(buf) - p.Offset)
		default:
			p.Offset = pos - 4
			size = uint64(size32)
		}

		p.Size = clampSpan(p.Offset, size, len(buf))
		payloads = append(payloads, p)
	}
	return payloads
}

// clampSpan bounds a declared size so offset+size never passes the buffer end
func clampSpan(offset int, size uint64, bufLen int) int {
	if offset >= bufLen {
		return 0
	}
	room := uint64(bufLen - offset)
	if size > room {
		size = room
	}
	return int(size)
}

func (BoxStyle) BuildMask(buf []byte, anchors Anchors) (Mask, int) {
	mask := NewMask(len(buf))
	mask.Protect(0, BoxHeaderProtect)

	for _, positions := range anchors.Signatures {
		for _, pos := range positions {
			mask.Protect(pos, pos+4)
		}
	}

	for _, tag := range []string{"moov", "ftyp"} {
		for _, pos := range anchors.Signatures[tag] {
			start := pos - 4
			mask.Protect(start, start+atomSpan(buf, pos))
		}
	}

	for _, p := range anchors.Payloads {
		mask.Protect(p.Offset, p.Offset+p.HeaderSize)
	}

	for _, pos := range anchors.Video {
		mask.Protect(pos, pos+BoxFrameProtect)
	}
	for _, pos := range anchors.Audio {
		mask.Protect(pos, pos+BoxAudioFrameProtect)
	}
	return mask, len(anchors.Video) + len(anchors.Audio)
}

// atomSpan returns the full declared span of the atom whose tag sits at pos
func atomSpan(buf []byte, pos int) int {
	size32, ok := boxSizeBefore(buf, pos)
	if !ok {
		return boxSmallHeader
	}
	start := pos - 4
	var size uint64
	switch size32 {
	case 0:
		size = uint64(len(buf) - start)
	case 1:
		ext, ok := extendedSizeAt(buf, pos)
		if !ok {
			return boxSmallHeader
		}
		size = ext
	default:
		size = uint64(size32)
	}
	if size < boxSmallHeader {
		return boxSmallHeader
	}
	return clampSpan(start, size, len(buf))
}

func (BoxStyle) PlanStage(buf []byte, anchors Anchors, index int, stage models.Stage, frameCount int) (StagePlan, error) {
	plan := StagePlan{
		Index:  index,
		Stage:  stage,
		Target: roundCount(max(float64(frameCount)*stage.Intensity, BoxGlitchFloor*stage.EndRatio)),
	}
	for _, p := range anchors.Payloads {
		if p.Offset < 0 || p.Offset >= len(buf) || p.Size <= p.HeaderSize {
			continue
		}
		start := ratioOffset(p.Offset, p.Size, stage.StartRatio)
		end := ratioOffset(p.Offset, p.Size, stage.EndRatio)
		if end > p.End() {
			end = p.End()
		}
		if end < start {
			end = start
		}
		plan.Ranges = append(plan.Ranges, models.Region{Offset: start, Size: end - start})
		plan.Weights = append(plan.Weights, int64(p.Size))
	}
	if len(plan.Ranges) == 0 {
		return StagePlan{}, fmt.Errorf("%w: no usable mdat atom in %d bytes", ErrMalformedContainer, len(buf))
	}
	return plan, nil
}
