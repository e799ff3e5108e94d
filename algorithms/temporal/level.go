package temporal

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// LevelMeter tracks the input level of a sample stream as an exponentially
// smoothed RMS envelope. The envelope updates once per arriving block, at the
// capture cadence, independent of any frame-based analysis downstream.
type LevelMeter struct {
	alpha    float64
	envelope float64
}

// NewLevelMeter creates a level meter. alpha is the exponential smoothing
// coefficient: envelope = envelope*alpha + rms*(1-alpha).
func NewLevelMeter(alpha float64) *LevelMeter {
	return &LevelMeter{alpha: common.Clamp(alpha, 0.0, 1.0)}
}

// ProcessBlock folds one block into the envelope and returns the block's
// raw RMS
func (lm *LevelMeter) ProcessBlock(samples []float64) float64 {
	rms := common.RMS(samples)
	lm.envelope = lm.envelope*lm.alpha + rms*(1.0-lm.alpha)
	return rms
}

// Envelope returns the current smoothed level
func (lm *LevelMeter) Envelope() float64 {
	return lm.envelope
}

// Reset clears the envelope
func (lm *LevelMeter) Reset() {
	lm.envelope = 0.0
}
