package pitch

import (
	"fmt"
	"math"
)

// YinParams contains parameters for the YIN estimator
type YinParams struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`

	// Threshold is the absolute threshold on the cumulative mean normalized
	// difference; the YIN paper interprets it as the proportion of aperiodic
	// power tolerated within a periodic signal (0.1-0.5)
	Threshold float64 `json:"threshold"`

	// FallbackConfidence is the minimum confidence at which the global
	// minimum is accepted when no lag dips below Threshold
	FallbackConfidence float64 `json:"fallback_confidence"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	// UseFFT selects the FFT-accelerated difference function. The direct
	// O(n^2) form is the default; results agree to within floating-point
	// rounding
	UseFFT bool `json:"use_fft"`
}

// DefaultYinParams returns estimator parameters tuned for instrument tuning
func DefaultYinParams(sampleRate int) YinParams {
	return YinParams{
		SampleRate:         sampleRate,
		WindowSize:         4096,
		Threshold:          0.15,
		FallbackConfidence: 0.5,
		MinFreq:            20.0,
		MaxFreq:            5000.0,
	}
}

// Estimation is the result of analyzing one window
type Estimation struct {
	// Frequency is the fundamental frequency estimate in Hz; 0 signals
	// "no periodicity found"
	Frequency float64 `json:"frequency"`

	// Confidence is the periodicity strength (0-1)
	Confidence float64 `json:"confidence"`

	// Tau is the fundamental period in fractional samples; 0 when no lag
	// was accepted
	Tau float64 `json:"tau"`
}

// Voiced reports whether the window contained a usable periodicity
func (e Estimation) Voiced() bool {
	return e.Frequency > 0
}

// Yin estimates the fundamental period of a monophonic signal window
// following the YIN algorithm.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
//
// The estimator operates on half = WindowSize/2 candidate lags. All internal
// buffers are sized once at construction and reused every window, so Estimate
// performs no allocation on the direct path. Accumulation in the difference
// function is susceptible to cancellation at very low signal levels; amplitude
// gating upstream is the line of defense against spurious low-SNR periods, not
// numerical guarding inside the estimator itself.
type Yin struct {
	params YinParams
	half   int

	// Internal buffers, pre-sized to half
	diff  []float64
	cmndf []float64

	// FFT-path scratch, sized lazily when UseFFT is set
	padded []float64
	kernel []float64
	energy []float64
}

// NewYin creates a YIN estimator. The sample rate and window size are fixed
// for the lifetime of the estimator: lag-to-frequency conversion and buffer
// sizes depend on both, so a rate change requires constructing a new one.
func NewYin(params YinParams) (*Yin, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", params.SampleRate)
	}
	if params.WindowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", params.WindowSize)
	}
	if params.WindowSize%2 != 0 {
		return nil, fmt.Errorf("window size must be even, got %d", params.WindowSize)
	}
	if params.Threshold <= 0 || params.Threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0,1), got %g", params.Threshold)
	}

	half := params.WindowSize / 2
	y := &Yin{
		params: params,
		half:   half,
		diff:   make([]float64, half),
		cmndf:  make([]float64, half),
	}

	if params.UseFFT {
		y.initFFTBuffers()
	}

	return y, nil
}

// Params returns the estimator parameters
func (y *Yin) Params() YinParams {
	return y.params
}

// Estimate computes the fundamental period and confidence for exactly one
// window of mono samples
func (y *Yin) Estimate(frame []float64) (Estimation, error) {
	if len(frame) != y.params.WindowSize {
		return Estimation{}, fmt.Errorf("frame size (%d) doesn't match window size (%d)", len(frame), y.params.WindowSize)
	}

	if y.params.UseFFT {
		y.differenceFFT(frame)
	} else {
		y.difference(frame)
	}
	y.cumulativeMeanNormalize()

	tau, confidence := y.bestLag()
	if tau <= 0 {
		return Estimation{}, nil
	}

	betterTau := y.parabolicInterpolation(tau)
	frequency := float64(y.params.SampleRate) / betterTau

	if frequency < y.params.MinFreq || frequency > y.params.MaxFreq {
		return Estimation{}, nil
	}

	return Estimation{
		Frequency:  frequency,
		Confidence: confidence,
		Tau:        betterTau,
	}, nil
}

// difference computes the squared difference of the signal with a shifted
// version of itself for each candidate lag: d(tau) = sum (x[i] - x[i+tau])^2
// over the first half of the window
func (y *Yin) difference(frame []float64) {
	for tau := 0; tau < y.half; tau++ {
		sum := 0.0
		for i := 0; i < y.half; i++ {
			delta := frame[i] - frame[i+tau]
			sum += delta * delta
		}
		y.diff[tau] = sum
	}
}

// cumulativeMeanNormalize converts the raw difference into the cumulative
// mean normalized difference: y(0) = 1, y(tau) = d(tau) * tau / sum d(1..tau).
// A running sum of exactly zero (silent window) normalizes to 1 so the lag
// can never be selected.
func (y *Yin) cumulativeMeanNormalize() {
	y.cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < y.half; tau++ {
		runningSum += y.diff[tau]
		if runningSum == 0 {
			y.cmndf[tau] = 1.0
			continue
		}
		y.cmndf[tau] = y.diff[tau] * float64(tau) / runningSum
	}
}

// bestLag finds the first lag whose normalized difference dips below the
// threshold, then walks forward to the local minimum of the dip so it does
// not lock onto the leading edge. When no lag qualifies it falls back to the
// global minimum, accepted only above FallbackConfidence.
func (y *Yin) bestLag() (int, float64) {
	for tau := 2; tau < y.half; tau++ {
		if y.cmndf[tau] < y.params.Threshold {
			for tau+1 < y.half && y.cmndf[tau+1] < y.cmndf[tau] {
				tau++
			}
			return tau, 1.0 - y.cmndf[tau]
		}
	}

	// Fallback: global minimum over [2, half)
	minTau := 2
	for tau := 3; tau < y.half; tau++ {
		if y.cmndf[tau] < y.cmndf[minTau] {
			minTau = tau
		}
	}

	confidence := 1.0 - y.cmndf[minTau]
	if confidence <= y.params.FallbackConfidence {
		return 0, 0.0
	}
	return minTau, confidence
}

// parabolicInterpolation refines an integer lag to sub-sample precision by
// fitting a parabola through the minimum and its two neighbors. At the buffer
// edges the adjustment is a no-op.
func (y *Yin) parabolicInterpolation(tau int) float64 {
	if tau <= 0 || tau >= y.half-1 {
		return float64(tau)
	}

	s0 := y.cmndf[tau-1]
	s1 := y.cmndf[tau]
	s2 := y.cmndf[tau+1]

	denominator := 2.0 * (2.0*s1 - s2 - s0)
	if denominator == 0 {
		return float64(tau)
	}

	adjustment := (s2 - s0) / denominator
	return float64(tau) + math.Max(-0.5, math.Min(0.5, adjustment))
}
