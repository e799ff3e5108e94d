// Command tuner is a terminal instrument tuner: it captures mono audio from
// an input device and prints the detected pitch, cents deviation and input
// level at a fixed refresh rate.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

func main() {
	rate := flag.Int("rate", 44100, "Capture sample rate in Hz")
	device := flag.String("device", "", "Substring match on the capture device name (default device if empty)")
	sensitivity := flag.Float64("sensitivity", 0.5, "Gate sensitivity in [0,1]; higher accepts quieter input")
	reference := flag.Float64("ref", 440.0, "Reference pitch for A4 in Hz (415-466)")
	interval := flag.Duration("interval", 100*time.Millisecond, "Display refresh interval")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	// Set the level before deriving: WithFields copies the level at
	// derivation time.
	if *verbose {
		logging.SetLevel(logging.DebugLevel)
	}
	logger := logging.WithFields(logging.Fields{"component": "cmd/tuner"})

	cfg := tuner.DefaultEngineConfig(*rate)
	cfg.Sensitivity = *sensitivity
	engine, err := tuner.NewEngine(cfg)
	if err != nil {
		logger.Fatal(err, "failed to create engine")
	}

	calibration := tuner.DefaultCalibration()
	calibration.ReferencePitchHz = *reference
	engine.SetCalibration(calibration)

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		logger.Fatal(err, "failed to init audio context")
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(*rate)
	deviceConfig.Alsa.NoMMap = 1

	if *device != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			logger.Fatal(err, "failed to enumerate capture devices")
		}
		found := false
		for _, info := range infos {
			if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(*device)) {
				deviceConfig.Capture.DeviceID = info.ID.Pointer()
				logger.Info("selected capture device", logging.Fields{"name": info.Name()})
				found = true
				break
			}
		}
		if !found {
			logger.Fatal(nil, "no capture device matched", logging.Fields{"device": *device})
		}
	}

	// The capture callback is the single producer: every per-window
	// computation happens synchronously inside Push, on this context.
	block := make([]float64, 0, 4096)
	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if len(pInputSamples) == 0 {
			return
		}
		samples := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount))

		block = block[:0]
		for _, s := range samples {
			block = append(block, float64(s))
		}
		engine.Push(block)
	}

	capture, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		logger.Fatal(err, "failed to init capture device")
	}
	defer capture.Uninit()

	if err := capture.Start(); err != nil {
		logger.Fatal(err, "failed to start capture")
	}
	logger.Info("listening", logging.Fields{
		"sample_rate": *rate,
		"reference":   *reference,
		"sensitivity": *sensitivity,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			fmt.Println()
			logger.Info("stopping")
			return
		case <-ticker.C:
			render(engine.CurrentState())
		}
	}
}

// render draws a single-line needle display, overwriting the previous line
func render(state tuner.TuningState) {
	const width = 21 // odd so the in-tune marker sits in the middle

	needle := [width]byte{}
	for i := range needle {
		needle[i] = '-'
	}
	needle[width/2] = '|'

	if state.Valid {
		// Full scale is +/-50 cents.
		pos := int((state.Cents/50.0)*float64(width/2)) + width/2
		if pos < 0 {
			pos = 0
		}
		if pos >= width {
			pos = width - 1
		}
		needle[pos] = 'o'
		fmt.Printf("\r%4s [%s] %+6.1f cents  %7.2f Hz  level %.3f ",
			state.Pitch, needle, state.Cents, state.Frequency, state.Level)
		return
	}

	fmt.Printf("\r  -- [%s]    --  cents       --  Hz  level %.3f ", needle, state.Level)
}
