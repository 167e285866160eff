package container

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/abema/go-mp4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/riff"
)

var ErrStructureChanged = errors.New("container: top-level structure changed")

// Node is one top-level chunk or box
type Node struct {
	Type   string
	Offset int64
	Size   int64
}

// Describe walks the top-level layout of buf with a real container parser
func Describe(f Format, buf []byte) ([]Node, error) {
	switch f {
	case FormatAVI:
		return describeRiff(buf)
	case FormatMP4:
		return describeBoxes(buf)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func describeRiff(buf []byte) ([]Node, error) {
	p := riff.New(bytes.NewReader(buf))
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	nodes := []Node{{Type: string(p.ID[:]) + "/" + string(p.Format[:]), Offset: 0, Size: int64(p.Size)}}
	offset := int64(12)
	for offset+8 <= int64(len(buf)) {
		ch, err := p.NextChunk()
		if err != nil {
			break
		}
		nodes = append(nodes, Node{Type: string(ch.ID[:]), Offset: offset, Size: int64(ch.Size)})
		offset += 8 + int64(ch.Size)
		ch.Drain()
	}
	return nodes, nil
}

func describeBoxes(buf []byte) ([]Node, error) {
	var nodes []Node
	_, err := mp4.ReadBoxStructure(bytes.NewReader(buf), func(h *mp4.ReadHandle) (interface{}, error) {
		nodes = append(nodes, Node{
			Type:   h.BoxInfo.Type.String(),
			Offset: int64(h.BoxInfo.Offset),
			Size:   int64(h.BoxInfo.Size),
		})
		return nil, nil
	})
	if err != nil {
		return nodes, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	return nodes, nil
}

// Verify checks that corruption left the top-level layout of the original intact
func Verify(f Format, original, corrupted []byte) error {
	before, err := Describe(f, original)
	if err != nil {
		return err
	}
	after, err := Describe(f, corrupted)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStructureChanged, err)
	}
	if len(before) != len(after) {
		return fmt.Errorf("%w: %d top-level nodes before, %d after", ErrStructureChanged, len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			return fmt.Errorf("%w: node %d was %+v, now %+v", ErrStructureChanged, i, before[i], after[i])
		}
	}
	return nil
}

// Sniff detects the content type of buf and reports whether it agrees with f
func Sniff(f Format, buf []byte) (string, bool) {
	detected := mimetype.Detect(buf)
	want := map[Format]string{FormatAVI: "video/x-msvideo", FormatMP4: "video/mp4"}[f]
	if want == "" {
		return detected.String(), false
	}
	// ftyp brands such as m4v or 3gp detect as children of video/mp4
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(want) {
			return detected.String(), true
		}
	}
	return detected.String(), false
}
