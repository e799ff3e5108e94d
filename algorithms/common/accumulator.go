package common

import (
	"fmt"
)

// FrameAccumulator merges arbitrarily-sized incoming sample blocks into
// fixed-size analysis frames for streaming processing. Frames do not overlap:
// each sample belongs to exactly one frame, and no frame is ever emitted with
// fewer than frameSize samples.
type FrameAccumulator struct {
	buffer    []float64
	frameSize int
	writePos  int
}

// NewFrameAccumulator creates a frame accumulator for the given frame size.
func NewFrameAccumulator(frameSize int) (*FrameAccumulator, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}

	return &FrameAccumulator{
		buffer:    make([]float64, frameSize),
		frameSize: frameSize,
	}, nil
}

// Push appends samples and invokes emit once for every frame completed by
// this block, in arrival order. The slice passed to emit is the accumulator's
// internal buffer; it is valid only for the duration of the call and must be
// copied if retained. Push never allocates.
func (fa *FrameAccumulator) Push(samples []float64, emit func(frame []float64)) {
	for len(samples) > 0 {
		n := copy(fa.buffer[fa.writePos:], samples)
		fa.writePos += n
		samples = samples[n:]

		if fa.writePos == fa.frameSize {
			fa.writePos = 0
			if emit != nil {
				emit(fa.buffer)
			}
		}
	}
}

// Buffered returns the number of samples accumulated toward the next frame.
func (fa *FrameAccumulator) Buffered() int {
	return fa.writePos
}

// FrameSize returns the frame size.
func (fa *FrameAccumulator) FrameSize() int {
	return fa.frameSize
}

// Reset discards any partially accumulated samples.
func (fa *FrameAccumulator) Reset() {
	fa.writePos = 0
}
