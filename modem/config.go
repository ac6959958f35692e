package modem

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Filter selects which integer-approximation IIR lowpass the discriminator
// uses. Either is a faithful realization of the delay-line discriminator's
// lowpass stage; the choice only affects passband shape, not the
// demodulator's control flow.
type Filter int

const (
	Butterworth Filter = iota
	Chebyshev
)

// Config holds the tunables exposed as CONFIG_AFSK_* keys in the original
// firmware.
type Config struct {
	// DACSampleRate is the output sample rate; must be a multiple of
	// BitRate. The ADC side always runs at the fixed SampleRate.
	DACSampleRate int `yaml:"dac_sample_rate"`
	Filter        Filter `yaml:"filter"`
	RXBufLen      int    `yaml:"rx_buflen"`
	TXBufLen      int    `yaml:"tx_buflen"`

	// PreambleMS/TrailerMS are milliseconds of flag bytes sent before
	// and after frame data.
	PreambleMS int `yaml:"preamble_ms"`
	TrailerMS  int `yaml:"trailer_ms"`

	// RXTimeoutMS: 0 = non-blocking, -1 = block until full read, >0 =
	// bounded wait in milliseconds.
	RXTimeoutMS int `yaml:"rx_timeout_ms"`
}

// DefaultConfig returns sensible out-of-the-box settings: a DAC running
// at the same 9600 Hz as the ADC, Butterworth filtering, maxFrameLen-sized
// RX/TX queues, a 300 ms preamble, a 50 ms trailer, and blocking reads.
func DefaultConfig() Config {
	return Config{
		DACSampleRate: SampleRate,
		Filter:        Butterworth,
		RXBufLen:      maxFrameLen,
		TXBufLen:      maxFrameLen,
		PreambleMS:    300,
		TrailerMS:     50,
		RXTimeoutMS:   -1,
	}
}

// LoadConfig reads a YAML document at path, starting from DefaultConfig
// so the file may specify only the keys it wants to override.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate enforces what the original firmware caught at compile time via
// a preprocessor check: DACSampleRate must be an integer multiple of
// BitRate (and at least one bit wide, i.e. positive).
func (c Config) Validate() error {
	if c.DACSampleRate <= 0 || c.DACSampleRate%BitRate != 0 {
		return ErrBadSampleRate
	}
	if c.RXBufLen <= 0 || c.TXBufLen <= 0 {
		return ErrBadBufLen
	}
	return nil
}

func (c Config) dacSamplePerBit() int {
	return c.DACSampleRate / BitRate
}
