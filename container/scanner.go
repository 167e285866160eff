package container

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// scanSignatures locates every literal occurrence of each tag at or after from
func scanSignatures(buf []byte, tags []string, from int) map[string][]int {
	out := make(map[string][]int, len(tags))
	for _, tag := range tags {
		if positions := findTag(buf, tag, from); len(positions) > 0 {
			out[tag] = positions
		}
	}
	return out
}

func findTag(buf []byte, tag string, from int) []int {
	if from < 0 {
		from = 0
	}
	needle := []byte(tag)
	var positions []int
	for i := from; i+len(needle) <= len(buf); {
		j := bytes.Index(buf[i:], needle)
		if j < 0 {
			break
		}
		positions = append(positions, i+j)
		i += j + 1
	}
	return positions
}

// thin sorts and deduplicates marker positions, then collapses any hit closer than
// minGap to the previously kept hit
func thin(positions []int, minGap int) []int {
	if len(positions) == 0 {
		return nil
	}
	sort.Ints(positions)
	kept := make([]int, 0, len(positions))
	for _, pos := range positions {
		if len(kept) == 0 {
			kept = append(kept, pos)
			continue
		}
		last := kept[len(kept)-1]
		if pos == last || pos-last < minGap {
			continue
		}
		kept = append(kept, pos)
	}
	return kept
}

// scanChunkMarkers finds RIFF stream chunk ids: two ASCII digits and a class tag (00dc, 01wb...)
func scanChunkMarkers(buf []byte, from int) []int {
	var positions []int
	for i := max(from, 0); i+4 <= len(buf); i++ {
		if !isDigit(buf[i]) || !isDigit(buf[i+1]) {
			continue
		}
		if isStreamClass(buf[i+2], buf[i+3]) {
			positions = append(positions, i)
			i += 3
		}
	}
	return positions
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isStreamClass(a, b byte) bool {
	switch {
	case a == 'd' && (b == 'c' || b == 'b'):
		return true
	case a == 'w' && (b == 'b' || b == 'c'):
		return true
	}
	return false
}

// scanStartCodes finds NAL unit start codes 00 00 01 and 00 00 00 01
func scanStartCodes(buf []byte, from int) []int {
	var positions []int
	for i := max(from, 0); i+3 <= len(buf); i++ {
		if buf[i] != 0x00 || buf[i+1] != 0x00 {
			continue
		}
		if buf[i+2] == 0x01 {
			positions = append(positions, i)
			i += 2
		} else if i+4 <= len(buf) && buf[i+2] == 0x00 && buf[i+3] == 0x01 {
			positions = append(positions, i)
			i += 3
		}
	}
	return positions
}

// AudioSync classifies an audio frame marker
type AudioSync int

const (
	SyncNone AudioSync = iota
	SyncADTS
	SyncMP3
	SyncALAC
	SyncFLAC
)

func (s AudioSync) String() string {
	switch s {
	case SyncADTS:
		return "adts"
	case SyncMP3:
		return "mp3"
	case SyncALAC:
		return "alac"
	case SyncFLAC:
		return "flac"
	default:
		return "none"
	}
}

// audioSyncAt checks for an audio frame marker at offset i
func audioSyncAt(buf []byte, i int) AudioSync {
	if i+2 > len(buf) {
		return SyncNone
	}
	if buf[i] == 0xFF {
		// ADTS sync 0xFFF, MPEG audio sync 0xFFE
		if buf[i+1]&0xF0 == 0xF0 {
			return SyncADTS
		}
		if buf[i+1]&0xE0 == 0xE0 {
			return SyncMP3
		}
		return SyncNone
	}
	if i+4 > len(buf) {
		return SyncNone
	}
	switch string(buf[i : i+4]) {
	case "alac":
		return SyncALAC
	case "fLaC":
		return SyncFLAC
	}
	return SyncNone
}

func scanAudioSync(buf []byte, from int) []int {
	var positions []int
	for i := max(from, 0); i+2 <= len(buf); i++ {
		if audioSyncAt(buf, i) != SyncNone {
			positions = append(positions, i)
		}
	}
	return positions
}

// boxSizeBefore reads the big-endian size field sitting in the 4 bytes before a box tag
func boxSizeBefore(buf []byte, tagPos int) (uint32, bool) {
	if tagPos < 4 || tagPos > len(buf) {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf[tagPos-4 : tagPos]), true
}

// extendedSizeAt reads the 64-bit size of a box whose 32-bit size field is 1
func extendedSizeAt(buf []byte, tagPos int) (uint64, bool) {
	if tagPos < 0 || tagPos+16 > len(buf) {
		return 0, false
	}
	return binary.BigEndian.Uint64(buf[tagPos+8 : tagPos+16]), true
}
