package tuner

import (
	"math"
	"testing"
)

const testSampleRate = 44100

// sineSamples generates n samples of a sine at the given frequency and peak
// amplitude at the test sample rate
func sineSamples(freq float64, n int, peak float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = peak * math.Sin(2*math.Pi*freq*float64(i)/float64(testSampleRate))
	}
	return samples
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultEngineConfig(testSampleRate))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// feedWindows pushes n whole analysis windows of a sine through the engine
// in capture-sized blocks
func feedWindows(e *Engine, freq, peak float64, n int) {
	samples := sineSamples(freq, 4096*n, peak)
	for start := 0; start < len(samples); start += 512 {
		e.Push(samples[start : start+512])
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	cfg := DefaultEngineConfig(0)
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("NewEngine should reject a zero sample rate")
	}

	cfg = DefaultEngineConfig(testSampleRate)
	cfg.Yin.WindowSize = 4095
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("NewEngine should reject an odd window size")
	}
}

func TestEngineIdleState(t *testing.T) {
	e := newTestEngine(t)

	state := e.CurrentState()
	if state.Valid {
		t.Fatal("fresh engine should not be valid")
	}
	if state.Cents != 0 {
		t.Fatalf("Cents = %v, want 0 while idle", state.Cents)
	}
	if state.Window != 0 {
		t.Fatalf("Window = %d, want 0 while idle", state.Window)
	}
}

func TestEngineBuffersPartialWindows(t *testing.T) {
	e := newTestEngine(t)

	e.Push(sineSamples(440.0, 2048, 0.2))
	if got := e.CurrentState().Window; got != 0 {
		t.Fatalf("Window = %d before a full window accumulated, want 0", got)
	}

	e.Push(sineSamples(440.0, 2048, 0.2))
	if got := e.CurrentState().Window; got != 1 {
		t.Fatalf("Window = %d after 4096 samples, want 1", got)
	}
}

func TestEngineDetects440(t *testing.T) {
	e := newTestEngine(t)

	// 440 Hz sine at RMS amplitude 0.1 (peak 0.1*sqrt(2)).
	feedWindows(e, 440.0, 0.1*math.Sqrt2, 1)

	state := e.CurrentState()
	if !state.Valid {
		t.Fatal("440 Hz sine at RMS 0.1 should be valid")
	}
	if math.Abs(state.Frequency-440.0) > 1.0 {
		t.Fatalf("Frequency = %v, want 440 +/- 1", state.Frequency)
	}
	if state.Confidence <= 0.6 {
		t.Fatalf("Confidence = %v, want > 0.6", state.Confidence)
	}
	if state.Pitch != (Pitch{A, 4}) {
		t.Fatalf("Pitch = %v, want A4", state.Pitch)
	}
	if math.Abs(state.Cents) > 2.0 {
		t.Fatalf("Cents = %v, want 0 +/- 2", state.Cents)
	}
	if math.Abs(state.Amplitude-0.1) > 0.005 {
		t.Fatalf("Amplitude = %v, want ~0.1", state.Amplitude)
	}
	if math.Abs(state.Peak-0.1*math.Sqrt2) > 0.01 {
		t.Fatalf("Peak = %v, want ~%v", state.Peak, 0.1*math.Sqrt2)
	}
	if state.Level <= 0 {
		t.Fatalf("Level = %v, want > 0", state.Level)
	}
}

func TestEngineDetectsSharpSignal(t *testing.T) {
	e := newTestEngine(t)

	// ~49 cents sharp of A4: nearest pitch is still A4. Several windows so
	// the smoothed cents converge onto the raw deviation.
	freq := 440.0 * math.Pow(2.0, 49.0/1200.0)
	feedWindows(e, freq, 0.2, 10)

	state := e.CurrentState()
	if !state.Valid {
		t.Fatal("sharp sine should be valid")
	}
	if state.Pitch != (Pitch{A, 4}) {
		t.Fatalf("Pitch = %v, want A4", state.Pitch)
	}
	if math.Abs(state.Cents-49.0) > 2.0 {
		t.Fatalf("Cents = %v, want 49 +/- 2", state.Cents)
	}
}

func TestEngineSilenceInvalid(t *testing.T) {
	e := newTestEngine(t)

	feedWindows(e, 440.0, 0.2, 1)
	if !e.CurrentState().Valid {
		t.Fatal("precondition: sine window should be valid")
	}
	lastPitch := e.CurrentState().Pitch

	e.Push(make([]float64, 4096))
	state := e.CurrentState()
	if state.Valid {
		t.Fatal("silence should be invalid")
	}
	if state.Cents != 0 {
		t.Fatalf("Cents = %v, want 0 while invalid", state.Cents)
	}
	if state.Pitch != lastPitch {
		t.Fatalf("Pitch = %v, want last known %v retained", state.Pitch, lastPitch)
	}
	if state.Peak != 0 {
		t.Fatalf("Peak = %v, want 0 for silence", state.Peak)
	}
}

func TestEngineCentsScaleInvariant(t *testing.T) {
	// Uniform amplitude scaling above the gate threshold must not change
	// the detected frequency or cents, only the amplitude.
	quiet := newTestEngine(t)
	loud := newTestEngine(t)

	freq := 440.0 * math.Pow(2.0, 20.0/1200.0)
	feedWindows(quiet, freq, 0.05, 5)
	feedWindows(loud, freq, 0.5, 5)

	a := quiet.CurrentState()
	b := loud.CurrentState()
	if !a.Valid || !b.Valid {
		t.Fatal("both amplitudes should be valid")
	}
	if math.Abs(a.Frequency-b.Frequency) > 1e-6 {
		t.Fatalf("Frequency differs: %v vs %v", a.Frequency, b.Frequency)
	}
	if math.Abs(a.Cents-b.Cents) > 1e-6 {
		t.Fatalf("Cents differs: %v vs %v", a.Cents, b.Cents)
	}
	if a.Amplitude >= b.Amplitude {
		t.Fatal("amplitude should scale with the input")
	}
}

func TestEngineSensitivityGating(t *testing.T) {
	// RMS ~0.003 sits between the sensitivity-1 threshold (0.0005) and the
	// sensitivity-0 threshold (0.02).
	peak := 0.003 * math.Sqrt2

	insensitive := newTestEngine(t)
	insensitive.SetSensitivity(0.0)
	feedWindows(insensitive, 440.0, peak, 1)
	if insensitive.CurrentState().Valid {
		t.Fatal("quiet signal should be rejected at sensitivity 0")
	}

	sensitive := newTestEngine(t)
	sensitive.SetSensitivity(1.0)
	feedWindows(sensitive, 440.0, peak, 1)
	if !sensitive.CurrentState().Valid {
		t.Fatal("quiet signal should be accepted at sensitivity 1")
	}
}

func TestEngineSmoothingConverges(t *testing.T) {
	e := newTestEngine(t)
	freq := 440.0 * math.Pow(2.0, 30.0/1200.0)

	// Geometric convergence with ratio 0.3: each window closes 70% of the
	// remaining gap to the raw value.
	feedWindows(e, freq, 0.2, 1)
	first := e.CurrentState().Cents

	feedWindows(e, freq, 0.2, 19)
	settled := e.CurrentState().Cents

	if math.Abs(settled-30.0) > 2.0 {
		t.Fatalf("Cents = %v, want 30 +/- 2 after convergence", settled)
	}
	if math.Abs(first-settled) < 5.0 {
		t.Fatalf("first window cents %v should start well short of settled %v", first, settled)
	}
}

func TestEngineSmoothingResumesAfterDropout(t *testing.T) {
	e := newTestEngine(t)
	freq := 440.0 * math.Pow(2.0, 20.0/1200.0)

	feedWindows(e, freq, 0.2, 20)
	settled := e.CurrentState().Cents

	// One silent window: cents reads 0, but the smoothing accumulator is
	// untouched.
	e.Push(make([]float64, 4096))
	if e.CurrentState().Cents != 0 {
		t.Fatal("cents should read 0 during the dropout")
	}

	// The next valid window resumes near the settled value instead of
	// restarting from zero.
	feedWindows(e, freq, 0.2, 1)
	resumed := e.CurrentState().Cents
	if math.Abs(resumed-settled) > 2.0 {
		t.Fatalf("Cents = %v after dropout, want to resume near %v", resumed, settled)
	}
}

func TestEngineCalibrationAppliesNextWindow(t *testing.T) {
	e := newTestEngine(t)

	feedWindows(e, 440.0, 0.2, 5)
	if math.Abs(e.CurrentState().Cents) > 2.0 {
		t.Fatalf("Cents = %v, want ~0 at concert pitch", e.CurrentState().Cents)
	}

	// Against a 442 reference, concert 440 reads about 7.85 cents flat.
	calibration := DefaultCalibration()
	calibration.ReferencePitchHz = 442.0
	e.SetCalibration(calibration)

	feedWindows(e, 440.0, 0.2, 20)
	want := 1200.0 * math.Log2(440.0/442.0)
	if math.Abs(e.CurrentState().Cents-want) > 2.0 {
		t.Fatalf("Cents = %v, want %v with 442 reference", e.CurrentState().Cents, want)
	}
}

func TestEngineCalibrationClamped(t *testing.T) {
	e := newTestEngine(t)

	c := DefaultCalibration()
	c.ReferencePitchHz = 500.0
	e.SetCalibration(c)

	if got := e.Calibration().ReferencePitchHz; got != MaxReferencePitchHz {
		t.Fatalf("ReferencePitchHz = %v, want clamped to %v", got, MaxReferencePitchHz)
	}
}

func TestEngineSensitivityClamped(t *testing.T) {
	e := newTestEngine(t)

	e.SetSensitivity(1.5)
	if got := e.Sensitivity(); got != 1.0 {
		t.Fatalf("Sensitivity() = %v, want 1.0", got)
	}
	e.SetSensitivity(-0.5)
	if got := e.Sensitivity(); got != 0.0 {
		t.Fatalf("Sensitivity() = %v, want 0.0", got)
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t)
	e.SetSensitivity(0.8)

	feedWindows(e, 440.0, 0.2, 3)
	e.Push(sineSamples(440.0, 100, 0.2)) // leave a partial window buffered
	e.Reset()

	state := e.CurrentState()
	if state.Valid {
		t.Fatal("state should be invalid after reset")
	}
	if state.Window != 0 {
		t.Fatalf("Window = %d, want 0 after reset", state.Window)
	}
	if state.Cents != 0 {
		t.Fatalf("Cents = %v, want 0 after reset", state.Cents)
	}

	// Calibration and sensitivity survive a reset.
	if got := e.Sensitivity(); got != 0.8 {
		t.Fatalf("Sensitivity() = %v, want 0.8 after reset", got)
	}

	// The partial window was discarded: a fresh half window is not enough
	// to complete a frame.
	e.Push(sineSamples(440.0, 2048, 0.2))
	if got := e.CurrentState().Window; got != 0 {
		t.Fatalf("Window = %d, want 0 (partial pre-reset samples discarded)", got)
	}
}
