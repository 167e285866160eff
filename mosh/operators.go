package mosh

import (
	"math"

	"datamosh/container"
	"datamosh/models"
)

// Operator is one byte-mutation strategy, ordered from subtle to destructive
type Operator int

const (
	OpBitFlip Operator = iota
	OpLowBits
	OpFlatten
	OpShift
	OpFreeze
	OpNoise
	OpTapeCopy

	maxOperator = OpTapeCopy
)

var operatorNames = [...]string{"bit_flip", "low_bits", "flatten", "shift", "freeze", "noise", "tape_copy"}

func (op Operator) String() string {
	if op < 0 || op > maxOperator {
		return "unknown"
	}
	return operatorNames[op]
}

// Engine applies operators to a buffer, honoring the protection mask
type Engine struct {
	buf     []byte
	mask    container.Mask
	profile models.MutationProfile
	src     Source
}

func NewEngine(buf []byte, mask container.Mask, profile models.MutationProfile, src Source) *Engine {
	return &Engine{buf: buf, mask: mask, profile: profile, src: src}
}

// Pick draws an operator uniformly from [max(0, stage-K), min(stage, 6)]. Early stages can
// only reach the subtle operators; later ones unlock the rest.
func (e *Engine) Pick(stage int) Operator {
	hi := min(stage, int(maxOperator))
	lo := max(0, stage-e.profile.OperatorWindow)
	if lo > hi {
		lo = hi
	}
	if hi < 0 {
		return OpBitFlip
	}
	return Operator(lo + e.src.Intn(hi-lo+1))
}

func (e *Engine) writable(i int) bool {
	return i >= 0 && i < len(e.buf) && !e.mask[i]
}

// Apply mutates up to burst bytes starting at pos and returns how many were written
func (e *Engine) Apply(op Operator, pos, burst int, intensity float64) int {
	if pos < 0 || pos >= len(e.buf) || burst <= 0 {
		return 0
	}
	end := min(pos+burst, len(e.buf))
	written := 0

	switch op {
	case OpBitFlip:
		for i := pos; i < end; i++ {
			bit := byte(1) << e.src.Intn(8)
			if e.writable(i) {
				e.buf[i] ^= bit
				written++
			}
		}
	case OpLowBits:
		low := byte(1)<<e.profile.LowBits - 1
		for i := pos; i < end; i++ {
			if e.writable(i) {
				e.buf[i] = e.buf[i]&^low | byte(e.src.Intn(256))&low
				written++
			}
		}
	case OpFlatten:
		for i := pos; i < end; i++ {
			if e.writable(i) {
				e.buf[i] = e.profile.FlattenValue
				written++
			}
		}
	case OpShift:
		amount := 1
		if e.profile.ShiftByStrength {
			amount = max(1, 1+int(math.Round(intensity*6)))
		}
		left := e.src.Intn(2) == 1
		for i := pos; i < end; i++ {
			if !e.writable(i) {
				continue
			}
			if left {
				e.buf[i] <<= amount
			} else {
				e.buf[i] >>= amount
			}
			written++
		}
	case OpFreeze:
		// stuck frame: repeat the first byte of the run
		v := e.buf[pos]
		for i := pos; i < end; i++ {
			if e.writable(i) {
				e.buf[i] = v
				written++
			}
		}
	case OpNoise:
		for i := pos; i < end; i++ {
			if !e.writable(i) {
				continue
			}
			if e.profile.Noise == models.NoiseRandom {
				e.buf[i] ^= byte(e.src.Intn(256))
			} else {
				e.buf[i] ^= e.profile.NoiseValue
			}
			written++
		}
	case OpTapeCopy:
		lookback := e.profile.LookbackMin
		if e.profile.LookbackSpan > 0 {
			lookback += e.src.Intn(e.profile.LookbackSpan)
		}
		for i := pos; i < end; i++ {
			src := i - lookback
			if src < 0 || src >= len(e.buf) || !e.writable(i) {
				continue
			}
			e.buf[i] = e.buf[src]
			written++
		}
	}
	return written
}
