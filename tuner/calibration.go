package tuner

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// Calibration limits
const (
	MinReferencePitchHz = 415.0
	MaxReferencePitchHz = 466.0
	MaxNoteOffsetCents  = 50.0
)

// Calibration holds the reference pitch and per-note intonation offsets used
// to translate a detected frequency into a cents deviation. The offsets are
// indexed by NoteClass.
type Calibration struct {
	// ReferencePitchHz is the frequency of A4 (415-466 Hz)
	ReferencePitchHz float64 `json:"reference_pitch_hz"`

	// NoteOffsetsCents shifts the target of each semitone class by up to
	// +/-50 cents; positive offsets move the target sharp
	NoteOffsetsCents [12]float64 `json:"note_offsets_cents"`
}

// DefaultCalibration returns concert pitch with no per-note offsets
func DefaultCalibration() Calibration {
	return Calibration{ReferencePitchHz: 440.0}
}

// normalized clamps all calibration values into their documented ranges
func (c Calibration) normalized() Calibration {
	out := Calibration{
		ReferencePitchHz: common.Clamp(c.ReferencePitchHz, MinReferencePitchHz, MaxReferencePitchHz),
	}
	for i, offset := range c.NoteOffsetsCents {
		out.NoteOffsetsCents[i] = common.Clamp(offset, -MaxNoteOffsetCents, MaxNoteOffsetCents)
	}
	return out
}
