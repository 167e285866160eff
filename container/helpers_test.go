package container

import (
	"encoding/binary"
)

// put copies s into buf at off
func put(buf []byte, off int, s string) {
	copy(buf[off:], s)
}

func putU32(buf []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(buf[off:], v)
}

// ftypBox is a minimal valid file-type box
func ftypBox() []byte {
	b := make([]byte, 20)
	putU32(b, 0, 20)
	put(b, 4, "ftyp")
	put(b, 8, "isom")
	putU32(b, 12, 0x200)
	put(b, 16, "isom")
	return b
}

// box builds a plain box with a 32-bit size header around payload
func box(typ string, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	putU32(b, 0, uint32(len(b)))
	put(b, 4, typ)
	copy(b[8:], payload)
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// riffChunk builds a little-endian sized RIFF chunk
func riffChunk(id string, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	put(b, 0, id)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(payload)))
	copy(b[8:], payload)
	if len(payload)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// riffFile wraps chunks in a RIFF/AVI header
func riffFile(chunks ...[]byte) []byte {
	body := concat(chunks...)
	b := make([]byte, 12)
	put(b, 0, "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(4+len(body)))
	put(b, 8, "AVI ")
	return append(b, body...)
}
