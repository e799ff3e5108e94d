package tuner

// TuningState is the externally observable output of the engine. One instance
// is live at a time and is replaced atomically after each completed analysis
// window; readers always see a fully formed snapshot.
//
// When Valid is false, Cents is forced to zero and Pitch retains its last
// known value instead of resetting to a default note.
type TuningState struct {
	// Frequency is the detected fundamental in Hz; 0 when no pitch was found
	Frequency float64 `json:"frequency"`

	// Pitch is the nearest musical pitch for the last valid detection
	Pitch Pitch `json:"pitch"`

	// Cents is the smoothed deviation from the calibrated target; positive
	// is sharp, negative is flat. Zero while invalid.
	Cents float64 `json:"cents"`

	// Confidence is the estimator's periodicity strength (0-1)
	Confidence float64 `json:"confidence"`

	// Amplitude is the RMS of the analysis window behind this snapshot
	Amplitude float64 `json:"amplitude"`

	// Peak is the largest absolute sample in the analysis window; values
	// near 1.0 indicate the capture is clipping
	Peak float64 `json:"peak"`

	// Level is the smoothed input level envelope, updated at block cadence
	Level float64 `json:"level"`

	// Valid reports whether the last window passed the signal gate
	Valid bool `json:"valid"`

	// Window counts completed analysis windows since construction or the
	// last reset, so a polling consumer can tell whether a new window has
	// landed since its previous read
	Window uint64 `json:"window"`
}
