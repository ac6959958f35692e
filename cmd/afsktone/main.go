// Command afsktone is a calibration and self-test tool: it can burst a
// steady mark or space tone out a sound card for level-setting, or run a
// software-only loopback of the full TX/RX chain to confirm the modem
// itself is healthy before involving any hardware.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kd9xyz/afsk1200/hardware/audio"
	"github.com/kd9xyz/afsk1200/modem"
)

func main() {
	var (
		mode        = pflag.StringP("mode", "m", "loopback", "Test mode: loopback, mark, or space.")
		deviceIndex = pflag.IntP("audio-device", "a", -1, "Audio device index for mark/space tone bursts.")
		duration    = pflag.DurationP("duration", "d", 5*time.Second, "Tone burst duration for mark/space modes.")
		help        = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	var err error
	switch *mode {
	case "loopback":
		err = runLoopbackTest()
	case "mark":
		err = runToneBurst(*deviceIndex, modem.MarkFreq, *duration)
	case "space":
		err = runToneBurst(*deviceIndex, modem.SpaceFreq, *duration)
	default:
		err = fmt.Errorf("unknown mode %q (want loopback, mark, or space)", *mode)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "afsktone:", err)
		os.Exit(1)
	}
}

// runLoopbackTest exercises the full TX FSM, DDS, discriminator, and
// deframer against each other with no sound card involved, confirming the
// pure software path round-trips a frame correctly.
func runLoopbackTest() error {
	cfg := modem.DefaultConfig()
	cfg.RXTimeoutMS = 0 // poll non-blocking; readAvailable decides when to stop
	m, err := modem.New(cfg)
	if err != nil {
		return fmt.Errorf("construct modem: %w", err)
	}

	frame := []byte{modem.HDLCFlag, 'T', 'N', 'C', modem.HDLCFlag}
	if _, err := m.Write(frame); err != nil {
		return fmt.Errorf("write test frame: %w", err)
	}

	hw := &loopback{}
	for i := 0; i < 10_000_000 && m.Sending(); i++ {
		hw.dacCalled = false
		m.TickDAC(hw)
		if !hw.dacCalled {
			break
		}
		m.TickADC(hw)
	}

	got := make([]byte, 64)
	n, err := readAvailable(m, got)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d bytes, read back %d: % X\n", len(frame), n, got[:n])
	return nil
}

// readAvailable drains whatever the RX FIFO already has, relying on the
// modem having been constructed with RXTimeoutMS == 0 (non-blocking).
func readAvailable(m *modem.Modem, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		one := buf[n : n+1]
		k, err := m.Read(one)
		if err != nil {
			return n, err
		}
		if k == 0 {
			break
		}
		n++
	}
	return n, nil
}

// runToneBurst keys a steady mark or space tone out the named audio device
// for duration, for setting transmit audio levels against an SWR/deviation
// meter the same way the original firmware's AFSK_DAC_TEST_SINE build does.
func runToneBurst(deviceIndex, freq int, duration time.Duration) error {
	card, err := audio.Open(deviceIndex, float64(modem.SampleRate))
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	defer card.Close()

	inc := modem.ToneIncrement(freq, modem.SampleRate)
	var phase uint16

	period := time.Second / time.Duration(modem.SampleRate)
	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		<-ticker.C
		phase = (phase + inc) % modem.SinLen
		card.SetDAC(modem.SinSample(phase))
	}
	return nil
}

type loopback struct {
	last      byte
	dacCalled bool
}

func (l *loopback) SetDAC(sample byte) { l.last = sample; l.dacCalled = true }
func (l *loopback) ReadADC() int8      { return int8(int(l.last) - 128) }
