package tuner

import (
	"math"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/logging"
)

// idlePitch is the arbitrary pitch a fresh or reset engine displays until
// the first valid detection
var idlePitch = Pitch{Class: A, Octave: 4}

// EngineConfig holds configuration for the tuning engine
type EngineConfig struct {
	// Yin configures the pitch estimator; its sample rate and window size
	// also fix the engine's analysis cadence
	Yin pitch.YinParams `json:"yin"`

	// SmoothingAlpha is the exponential coefficient shared by the cents
	// smoother and the input level envelope
	SmoothingAlpha float64 `json:"smoothing_alpha"`

	// Sensitivity is the initial gate sensitivity in [0,1]
	Sensitivity float64 `json:"sensitivity"`
}

// DefaultEngineConfig returns engine defaults for the given sample rate
func DefaultEngineConfig(sampleRate int) EngineConfig {
	return EngineConfig{
		Yin:            pitch.DefaultYinParams(sampleRate),
		SmoothingAlpha: 0.3,
		Sensitivity:    0.5,
	}
}

// Engine is the real-time monophonic tuning pipeline: it accumulates capture
// blocks into analysis windows, estimates the fundamental, gates the estimate
// on amplitude and confidence, maps it to a pitch and cents deviation, and
// publishes a smoothed snapshot for display.
//
// Concurrency contract: Push and Reset belong to the single producer (the
// capture callback context); all per-window work runs synchronously inside
// Push, with no internal queueing. CurrentState, SetCalibration and
// SetSensitivity are safe from any goroutine; configuration writes are
// observed no later than the next window, not necessarily the one in flight.
type Engine struct {
	cfg   EngineConfig
	acc   *common.FrameAccumulator
	yin   *pitch.Yin
	lvl   *temporal.LevelMeter
	cents *centsSmoother

	// Bound once so Push does not allocate a method value per call
	emit func(frame []float64)

	// Producer-context state
	lastPitch Pitch
	windows   uint64

	calibration atomic.Pointer[Calibration]
	sensitivity atomic.Uint64 // Float64bits
	state       atomic.Pointer[TuningState]

	logger logging.Logger
}

// NewEngine creates a tuning engine. The sample rate and window size are
// fixed for the engine's lifetime; a rate change requires constructing a new
// engine, since the estimator's buffers and lag-to-frequency conversion are
// rate-dependent.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	yin, err := pitch.NewYin(cfg.Yin)
	if err != nil {
		return nil, err
	}

	acc, err := common.NewFrameAccumulator(cfg.Yin.WindowSize)
	if err != nil {
		return nil, err
	}

	alpha := common.Clamp(cfg.SmoothingAlpha, 0.0, 1.0)

	e := &Engine{
		cfg:       cfg,
		acc:       acc,
		yin:       yin,
		lvl:       temporal.NewLevelMeter(alpha),
		cents:     newCentsSmoother(alpha),
		lastPitch: idlePitch,
		logger: logging.WithFields(logging.Fields{
			"component":   "tuner",
			"sample_rate": cfg.Yin.SampleRate,
			"window_size": cfg.Yin.WindowSize,
		}),
	}
	e.emit = e.processWindow

	calibration := DefaultCalibration()
	e.calibration.Store(&calibration)
	e.sensitivity.Store(math.Float64bits(common.Clamp(cfg.Sensitivity, 0.0, 1.0)))
	e.state.Store(&TuningState{Pitch: idlePitch})

	e.logger.Debug("engine created")

	return e, nil
}

// Push accepts a variable-length block of mono float samples at the
// negotiated sample rate. It may complete zero or more analysis windows
// before returning; each completed window runs the full detection pipeline
// and replaces the published snapshot.
func (e *Engine) Push(samples []float64) {
	e.lvl.ProcessBlock(samples)
	e.acc.Push(samples, e.emit)
}

// SetCalibration replaces the calibration used by subsequent windows. Values
// outside the documented ranges are clamped. Takes effect on the next window,
// not retroactively.
func (e *Engine) SetCalibration(c Calibration) {
	normalized := c.normalized()
	e.calibration.Store(&normalized)
	e.logger.Debug("calibration updated", logging.Fields{
		"reference_pitch_hz": normalized.ReferencePitchHz,
	})
}

// Calibration returns the calibration that will apply to the next window
func (e *Engine) Calibration() Calibration {
	return *e.calibration.Load()
}

// SetSensitivity clamps the value to [0,1] and replaces the sensitivity used
// for threshold derivation on subsequent windows
func (e *Engine) SetSensitivity(value float64) {
	e.sensitivity.Store(math.Float64bits(common.Clamp(value, 0.0, 1.0)))
}

// Sensitivity returns the sensitivity that will apply to the next window
func (e *Engine) Sensitivity() float64 {
	return math.Float64frombits(e.sensitivity.Load())
}

// CurrentState returns the latest published snapshot without blocking
func (e *Engine) CurrentState() TuningState {
	return *e.state.Load()
}

// Reset discards partially accumulated samples and returns the engine to its
// idle state. Calibration and sensitivity are retained. Reset belongs to the
// producer context, like Push.
func (e *Engine) Reset() {
	e.acc.Reset()
	e.cents.reset()
	e.lvl.Reset()
	e.lastPitch = idlePitch
	e.windows = 0
	e.state.Store(&TuningState{Pitch: idlePitch})
	e.logger.Debug("engine reset")
}

// processWindow runs the detection pipeline for one completed analysis
// window. This is the hot path: one O(half^2) estimator pass plus constant
// work, no allocation beyond the published snapshot.
func (e *Engine) processWindow(frame []float64) {
	amplitude := common.RMS(frame)
	peak := common.PeakAbs(frame)

	est, err := e.yin.Estimate(frame)
	if err != nil {
		// Unreachable while the accumulator and estimator agree on the
		// window size
		e.logger.Error(err, "pitch estimation failed")
		return
	}

	detection := Detection{
		Frequency:  est.Frequency,
		Confidence: est.Confidence,
		Amplitude:  amplitude,
	}

	sensitivity := e.Sensitivity()
	calibration := *e.calibration.Load()

	displayPitch := e.lastPitch
	cents := 0.0
	valid := detection.Usable(sensitivity)
	if valid {
		mapped, raw := MapFrequency(detection.Frequency, calibration, e.lastPitch)
		cents = e.cents.update(raw)
		displayPitch = mapped
		e.lastPitch = mapped
	}

	e.windows++
	e.state.Store(&TuningState{
		Frequency:  detection.Frequency,
		Pitch:      displayPitch,
		Cents:      cents,
		Confidence: detection.Confidence,
		Amplitude:  amplitude,
		Peak:       peak,
		Level:      e.lvl.Envelope(),
		Valid:      valid,
		Window:     e.windows,
	})
}
