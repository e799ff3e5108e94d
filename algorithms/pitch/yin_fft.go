package pitch

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// FFT-accelerated difference function. The squared difference expands to
//
//	d(tau) = E(0) + E(tau) - 2*C(tau)
//
// where E(tau) is the signal energy over [tau, tau+half) and C(tau) is the
// cross-correlation of the window with its first half. C is computed in
// O(n log n) via the Wiener-Khinchin identity; the energies come from a
// prefix sum of squares. The result matches the direct form to within
// floating-point rounding.

// initFFTBuffers sizes the FFT-path scratch. The transform length must cover
// window + half samples so the circular correlation has no wrap-around inside
// the lag range of interest.
func (y *Yin) initFFTBuffers() {
	n := common.NextPowerOfTwo(y.params.WindowSize + y.half)
	y.padded = make([]float64, n)
	y.kernel = make([]float64, n)
	y.energy = make([]float64, y.params.WindowSize+1)
}

func (y *Yin) differenceFFT(frame []float64) {
	if y.padded == nil {
		y.initFFTBuffers()
	}

	// Prefix sum of squares: energy[k] = sum frame[0:k]^2
	y.energy[0] = 0
	for i, v := range frame {
		y.energy[i+1] = y.energy[i] + v*v
	}

	copy(y.padded, frame)
	for i := len(frame); i < len(y.padded); i++ {
		y.padded[i] = 0
	}
	copy(y.kernel, frame[:y.half])
	for i := y.half; i < len(y.kernel); i++ {
		y.kernel[i] = 0
	}

	signalSpec := fft.FFTReal(y.padded)
	kernelSpec := fft.FFTReal(y.kernel)

	// C = IFFT(FFT(x) * conj(FFT(x[0:half])))
	for i := range signalSpec {
		a := signalSpec[i]
		b := kernelSpec[i]
		signalSpec[i] = complex(
			real(a)*real(b)+imag(a)*imag(b),
			imag(a)*real(b)-real(a)*imag(b),
		)
	}
	correlation := fft.IFFT(signalSpec)

	e0 := y.energy[y.half]
	for tau := 0; tau < y.half; tau++ {
		eTau := y.energy[tau+y.half] - y.energy[tau]
		d := e0 + eTau - 2.0*real(correlation[tau])
		// Rounding can push an exact-zero difference slightly negative
		if d < 0 {
			d = 0
		}
		y.diff[tau] = d
	}
}
