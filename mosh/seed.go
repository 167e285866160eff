// Package mosh runs staged, mask-respecting byte corruption over a container buffer
package mosh

import (
	"crypto/md5"
	"encoding/binary"
	"math/rand"
	"strconv"
	"strings"
)

// Source is the randomness handle shared by sampling and mutation. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Int63n(n int64) int64
}

// NewSource creates a deterministic stream for seed
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// GenerateSeed derives a seed from an arbitrary key
func GenerateSeed(key string) int64 {
	hash := md5.Sum([]byte(key))
	return int64(binary.BigEndian.Uint64(hash[:8]))
}

// ResolveSeed uses numeric seeds as-is and hashes anything else
func ResolveSeed(raw string) int64 {
	if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return v
	}
	return GenerateSeed(raw)
}
