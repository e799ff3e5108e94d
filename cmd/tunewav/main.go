// Command tunewav runs the tuning pipeline over a WAV file and prints one
// line per completed analysis window. Useful for checking the detector
// against recorded instrument samples.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

const blockLen = 4096

func main() {
	in := flag.String("i", "", "Input WAV filename")
	sensitivity := flag.Float64("sensitivity", 0.5, "Gate sensitivity in [0,1]")
	reference := flag.Float64("ref", 440.0, "Reference pitch for A4 in Hz (415-466)")
	flag.Parse()

	logger := logging.WithFields(logging.Fields{"component": "cmd/tunewav"})

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		logger.Fatal(err, "failed to open input")
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		logger.Fatal(nil, "not a valid WAV file", logging.Fields{"file": *in})
	}
	format := decoder.Format()

	cfg := tuner.DefaultEngineConfig(format.SampleRate)
	cfg.Sensitivity = *sensitivity
	engine, err := tuner.NewEngine(cfg)
	if err != nil {
		logger.Fatal(err, "failed to create engine")
	}

	calibration := tuner.DefaultCalibration()
	calibration.ReferencePitchHz = *reference
	engine.SetCalibration(calibration)

	logger.Info("analyzing", logging.Fields{
		"file":        *in,
		"sample_rate": format.SampleRate,
		"channels":    format.NumChannels,
	})

	intBuf := &audio.IntBuffer{Data: make([]int, blockLen*format.NumChannels)}
	mono := make([]float64, blockLen)
	var lastWindow uint64

	for {
		n, err := decoder.PCMBuffer(intBuf)
		if err != nil {
			logger.Fatal(err, "failed to decode PCM")
		}
		if n == 0 {
			break
		}

		scale := 1.0 / float64(int(1)<<(intBuf.SourceBitDepth-1))
		frames := n / format.NumChannels
		mono = mono[:frames]
		for i := 0; i < frames; i++ {
			// Downmix to mono by averaging channels.
			sum := 0
			for ch := 0; ch < format.NumChannels; ch++ {
				sum += intBuf.Data[i*format.NumChannels+ch]
			}
			mono[i] = float64(sum) * scale / float64(format.NumChannels)
		}

		engine.Push(mono)

		if state := engine.CurrentState(); state.Window != lastWindow {
			lastWindow = state.Window
			printWindow(state)
		}
	}

	if lastWindow == 0 {
		logger.Warn("file shorter than one analysis window; nothing to report")
	}
}

func printWindow(state tuner.TuningState) {
	if state.Valid {
		fmt.Printf("window %4d  %4s  %+6.1f cents  %7.2f Hz  conf %.2f  rms %.4f  peak %.3f\n",
			state.Window, state.Pitch, state.Cents, state.Frequency, state.Confidence, state.Amplitude, state.Peak)
	} else {
		fmt.Printf("window %4d    --      --        %7.2f Hz  conf %.2f  rms %.4f  peak %.3f\n",
			state.Window, state.Frequency, state.Confidence, state.Amplitude, state.Peak)
	}
}
