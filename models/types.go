// Package models contain shared types for corruption runs
package models

// Stage is one phase of a corruption pass
type Stage struct {
	StartRatio float64 `toml:"start_ratio" json:"start_ratio"` // Start position ratio (0.0-1.0)
	EndRatio   float64 `toml:"end_ratio" json:"end_ratio"`     // End position ratio (0.0-1.0)
	Intensity  float64 `toml:"intensity" json:"intensity"`     // Corruption intensity (0.0-1.0)
	BurstSize  int     `toml:"burst_size" json:"burst_size"`   // Bytes mutated per glitch
}

// Region is a payload byte range eligible for corruption
type Region struct {
	Offset int
	Size   int
}

// End returns the first offset past the region
func (r Region) End() int {
	return r.Offset + r.Size
}

// NoiseMode selects how the noise spike operator disturbs a byte
type NoiseMode int

const (
	NoiseConstant NoiseMode = iota
	NoiseRandom
)

// MutationProfile holds the per-family operator parameters
type MutationProfile struct {
	OperatorWindow  int       // K: how many lower operators stay reachable
	LowBits         int       // width of the low-bit substitution
	FlattenValue    byte      // neutral value written by flatten
	ShiftByStrength bool      // shift by 1+round(intensity*6) instead of 1
	Noise           NoiseMode // constant XOR or random XOR
	NoiseValue      byte      // XOR constant when Noise == NoiseConstant
	LookbackMin     int       // tape-copy minimum distance
	LookbackSpan    int       // tape-copy random span added to the minimum
}

// MoshConfig represents configuration for a corruption run
type MoshConfig struct {
	Seed   int64
	Stages []Stage
}

// StageReport summarizes one executed stage
type StageReport struct {
	Index      int            `json:"index"`
	Stage      Stage          `json:"stage"`
	Target     int            `json:"target"`
	Applied    int            `json:"applied"`
	Written    int            `json:"bytes_written"`
	Operators  map[string]int `json:"operators"`
	DurationMS int64          `json:"duration_ms"`
}

// RunReport summarizes a whole corruption run
type RunReport struct {
	Format         string        `json:"format"`
	Seed           int64         `json:"seed"`
	FileSize       int           `json:"file_size"`
	ProtectedBytes int           `json:"protected_bytes"`
	FrameCount     int           `json:"frame_count"`
	Stages         []StageReport `json:"stages"`
	TotalGlitches  int           `json:"total_glitches"`
}

// MoshResponse represents the JSON body returned on failed requests
type MoshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}
