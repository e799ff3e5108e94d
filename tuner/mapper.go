package tuner

import (
	"math"
)

// MapFrequency converts a validated frequency into the nearest musical pitch
// and the signed cents deviation from its calibrated target. Positive cents
// means sharp (frequency above target), negative means flat.
//
// Frequencies <= 0 are rejected upstream by the signal gate and should never
// reach here; if one does, the previous pitch is returned unchanged with
// zero cents.
func MapFrequency(frequencyHz float64, calibration Calibration, previous Pitch) (Pitch, float64) {
	if frequencyHz <= 0 {
		return previous, 0.0
	}

	semitonesFromA4 := 12.0 * math.Log2(frequencyHz/calibration.ReferencePitchHz)
	roundedSemitones := math.Round(semitonesFromA4)
	midiNumber := int(roundedSemitones) + 69

	pitch := PitchFromMIDI(midiNumber)
	baseCents := (semitonesFromA4 - roundedSemitones) * 100.0
	cents := baseCents - calibration.NoteOffsetsCents[pitch.Class]

	return pitch, cents
}
