package container

// Mask marks bytes that must never be written; len(mask) == len(buffer)
type Mask []bool

func NewMask(size int) Mask {
	return make(Mask, size)
}

// Protect marks [start, end) as protected, clamped to the mask bounds
func (m Mask) Protect(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(m) {
		end = len(m)
	}
	for i := start; i < end; i++ {
		m[i] = true
	}
}

// Protected reports whether index i may not be written. Out of range counts as protected.
func (m Mask) Protected(i int) bool {
	if i < 0 || i >= len(m) {
		return true
	}
	return m[i]
}

// Count returns the number of protected bytes
func (m Mask) Count() int {
	n := 0
	for _, p := range m {
		if p {
			n++
		}
	}
	return n
}

// HasOpen reports whether [start, end) contains at least one writable byte
func (m Mask) HasOpen(start, end int) bool {
	if start < 0 {
		start = 0
	}
	if end > len(m) {
		end = len(m)
	}
	for i := start; i < end; i++ {
		if !m[i] {
			return true
		}
	}
	return false
}
