// Package audio provides a portaudio-backed modem.Hardware: a full-duplex
// sound card stream that feeds one ADC sample at a time to the modem's
// discriminator and drains one DAC sample at a time from its transmit
// state machine.
package audio

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// Device describes one portaudio.DeviceInfo the caller can select, mirroring
// the fields cmd/afsktncd prints for --list-devices.
type Device struct {
	Index      int
	Name       string
	SampleRate float64
}

// ListDevices returns every portaudio input-and-output-capable device, for
// a --list-devices style startup flag.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialize: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio device list: %w", err)
	}

	var out []Device
	for i, d := range infos {
		if d.MaxInputChannels > 0 && d.MaxOutputChannels > 0 {
			out = append(out, Device{Index: i, Name: d.Name, SampleRate: d.DefaultSampleRate})
		}
	}
	return out, nil
}

// Card is a live full-duplex portaudio stream. It implements
// modem.Hardware: ReadADC and SetDAC each touch one sample of a small
// mutex-guarded ring, filled and drained by the portaudio callback — the
// same ISR-to-FIFO handoff the original ALSA driver's audio_get/audio_put
// perform for its ring buffer.
type Card struct {
	stream *portaudio.Stream

	mu      sync.Mutex
	inRing  []int8
	inHead  int // next write position, advanced by the callback
	inTail  int // next read position, advanced by ReadADC
	outRing []byte
	outHead int // next write position, advanced by SetDAC
	outTail int // next read position, advanced by the callback

	ringLen int
}

const defaultRingLen = 4096

// Open starts a full-duplex stream at sampleRate on deviceIndex (-1 for the
// system default), one mono channel each way, int8-quantized to match the
// modem's sample width.
func Open(deviceIndex int, sampleRate float64) (*Card, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialize: %w", err)
	}

	c := &Card{ringLen: defaultRingLen}
	c.inRing = make([]int8, c.ringLen)
	c.outRing = make([]byte, c.ringLen)

	var params portaudio.StreamParameters
	if deviceIndex >= 0 {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("portaudio device list: %w", err)
		}
		if deviceIndex >= len(devices) {
			return nil, fmt.Errorf("audio: device index %d out of range", deviceIndex)
		}
		dev := devices[deviceIndex]
		params = portaudio.LowLatencyParameters(dev, dev)
	} else {
		defIn, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("portaudio default input: %w", err)
		}
		defOut, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("portaudio default output: %w", err)
		}
		params = portaudio.LowLatencyParameters(defIn, defOut)
	}
	params.Input.Channels = 1
	params.Output.Channels = 1
	params.SampleRate = sampleRate
	params.FramesPerBuffer = 256

	stream, err := portaudio.OpenStream(params, c.callback)
	if err != nil {
		return nil, fmt.Errorf("portaudio open stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("portaudio start stream: %w", err)
	}

	log.Info("audio card opened", "sample_rate", sampleRate, "device", deviceIndex)
	return c, nil
}

// callback runs on portaudio's own audio thread: it copies the card's
// samples into the ADC ring (scaling float32 [-1,1] into int8) and pulls
// the next DAC bytes out of the output ring, repeating the last sample when
// the modem hasn't produced one yet (silence, 128, if the ring was already
// empty at the start of this buffer).
func (c *Card) callback(in []float32, out []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range in {
		c.inRing[(c.inHead+i)%c.ringLen] = int8(s * 127)
	}
	c.inHead = (c.inHead + len(in)) % c.ringLen

	var last byte = 128
	for i := range out {
		if c.outTail != c.outHead {
			last = c.outRing[c.outTail]
			c.outTail = (c.outTail + 1) % c.ringLen
		}
		out[i] = (float32(last) - 128) / 128
	}
}

// ReadADC implements modem.Hardware. If the callback hasn't supplied a
// fresh sample yet it repeats the last one rather than racing the audio
// thread's write cursor.
func (c *Card) ReadADC() int8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTail == c.inHead {
		return c.inRing[(c.inTail-1+c.ringLen)%c.ringLen]
	}
	s := c.inRing[c.inTail]
	c.inTail = (c.inTail + 1) % c.ringLen
	return s
}

// SetDAC implements modem.Hardware.
func (c *Card) SetDAC(sample byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outRing[c.outHead] = sample
	c.outHead = (c.outHead + 1) % c.ringLen
}

// Close stops the stream and releases portaudio's global state.
func (c *Card) Close() error {
	if err := c.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
