// Package quality is made to measure how far a corrupted buffer drifted from the original
package quality

import (
	"math"
	"strconv"
)

// Report is the distortion summary of one run
type Report struct {
	PSNR         float64 `json:"psnr"`
	ChangedBytes int     `json:"changed_bytes"`
	ChangedRatio float64 `json:"changed_ratio"`
}

// CalculatePSNR treats both buffers as 8-bit signals. Identical buffers give +Inf,
// mismatched lengths give 0.
func CalculatePSNR(original, corrupted []byte) float64 {
	if len(original) != len(corrupted) || len(original) == 0 {
		return 0.0
	}

	var mse float64
	for i := range original {
		diff := float64(original[i]) - float64(corrupted[i])
		mse += diff * diff
	}
	mse /= float64(len(original))

	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(255 / sqrt(MSE))
	return 20 * math.Log10(255.0/math.Sqrt(mse))
}

// ChangedBytes counts positions whose value differs
func ChangedBytes(original, corrupted []byte) int {
	n := min(len(original), len(corrupted))
	changed := 0
	for i := 0; i < n; i++ {
		if original[i] != corrupted[i] {
			changed++
		}
	}
	return changed
}

func Measure(original, corrupted []byte) Report {
	r := Report{
		PSNR:         CalculatePSNR(original, corrupted),
		ChangedBytes: ChangedBytes(original, corrupted),
	}
	if len(original) > 0 {
		r.ChangedRatio = float64(r.ChangedBytes) / float64(len(original))
	}
	return r
}

// FormatPSNR renders a PSNR for headers and logs
func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
