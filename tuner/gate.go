package tuner

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// Signal gate threshold curves. Both thresholds are pure functions of the
// sensitivity setting and are recomputed every cycle, never cached.
const (
	minInputThreshold = 0.0005
	maxInputThreshold = 0.02

	minConfidenceThreshold = 0.4
	maxConfidenceThreshold = 0.85
)

// Detection is the raw per-window output of the pitch estimator, before
// gating. Frequency == 0 signals "no periodicity found".
type Detection struct {
	Frequency  float64 `json:"frequency"`  // Fundamental frequency in Hz
	Confidence float64 `json:"confidence"` // Periodicity strength (0-1)
	Amplitude  float64 `json:"amplitude"`  // RMS of the analysis window
}

// InputThreshold maps sensitivity in [0,1] to the minimum window RMS for a
// detection to be usable. Quadratic easing: sensitivity affects the low end
// more gently than the high end.
func InputThreshold(sensitivity float64) float64 {
	s := common.Clamp(sensitivity, 0.0, 1.0)
	inv := 1.0 - s
	return minInputThreshold + (maxInputThreshold-minInputThreshold)*inv*inv
}

// ConfidenceThreshold maps sensitivity in [0,1] linearly to the minimum
// estimator confidence for a detection to be usable
func ConfidenceThreshold(sensitivity float64) float64 {
	s := common.Clamp(sensitivity, 0.0, 1.0)
	return maxConfidenceThreshold - s*(maxConfidenceThreshold-minConfidenceThreshold)
}

// Usable reports whether the detection passes the signal gate at the given
// sensitivity
func (d Detection) Usable(sensitivity float64) bool {
	return d.Frequency > 0 &&
		d.Confidence >= ConfidenceThreshold(sensitivity) &&
		d.Amplitude >= InputThreshold(sensitivity)
}
