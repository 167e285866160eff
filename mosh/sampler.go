package mosh

import (
	"datamosh/container"
	"datamosh/models"
)

type candidate struct {
	r models.Region
	w int64
}

// SamplePositions draws plan.Target unprotected positions inside the plan's ranges.
// With several ranges, a range is picked with probability proportional to its weight,
// then a position is drawn uniformly inside it and rejected while protected.
// Ranges without any writable byte are dropped up front so rejection always ends.
func SamplePositions(src Source, mask container.Mask, plan container.StagePlan) []int {
	cands, total := sampleable(mask, plan)
	if len(cands) == 0 || plan.Target <= 0 {
		return nil
	}

	positions := make([]int, 0, plan.Target)
	for len(positions) < plan.Target {
		c := cands[0]
		if len(cands) > 1 {
			c = pickWeighted(src, cands, total)
		}
		for {
			pos := c.r.Offset + src.Intn(c.r.Size)
			if !mask.Protected(pos) {
				positions = append(positions, pos)
				break
			}
		}
	}
	return positions
}

func sampleable(mask container.Mask, plan container.StagePlan) ([]candidate, int64) {
	var cands []candidate
	var total int64
	for i, r := range plan.Ranges {
		// keep ranges inside the buffer
		start, end := max(r.Offset, 0), min(r.End(), len(mask))
		if end <= start || !mask.HasOpen(start, end) {
			continue
		}
		w := int64(end - start)
		if i < len(plan.Weights) && plan.Weights[i] > 0 {
			w = plan.Weights[i]
		}
		cands = append(cands, candidate{r: models.Region{Offset: start, Size: end - start}, w: w})
		total += w
	}
	return cands, total
}

func pickWeighted(src Source, cands []candidate, total int64) candidate {
	n := src.Int63n(total)
	for _, c := range cands {
		if n < c.w {
			return c
		}
		n -= c.w
	}
	return cands[len(cands)-1]
}
