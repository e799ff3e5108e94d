package tuner

import (
	"fmt"
	"math"
)

// NoteClass is one of the 12 semitone classes (0=C, 1=C#, ..., 11=B)
type NoteClass int

const (
	C NoteClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var noteClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (nc NoteClass) String() string {
	if nc < 0 || nc > 11 {
		return "?"
	}
	return noteClassNames[nc]
}

// Pitch is a musical pitch: a semitone class plus an octave in scientific
// pitch notation (A4 = concert A). It is an immutable value recomputed per
// detection cycle.
type Pitch struct {
	Class  NoteClass `json:"class"`
	Octave int       `json:"octave"`
}

// PitchFromMIDI converts a MIDI note number to a Pitch. The class is reduced
// with a non-negative modulo so numbers below C-1 still map into [0,11].
func PitchFromMIDI(midi int) Pitch {
	class := ((midi % 12) + 12) % 12
	octave := int(math.Floor(float64(midi)/12.0)) - 1
	return Pitch{Class: NoteClass(class), Octave: octave}
}

// MIDINumber returns the MIDI note number: (octave+1)*12 + class
func (p Pitch) MIDINumber() int {
	return (p.Octave+1)*12 + int(p.Class)
}

// Frequency returns the equal-temperament frequency of the pitch for the
// given reference (the frequency of A4)
func (p Pitch) Frequency(referenceHz float64) float64 {
	return referenceHz * math.Pow(2.0, float64(p.MIDINumber()-69)/12.0)
}

// String returns the display name, e.g. "A4" or "C#3"
func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class, p.Octave)
}
