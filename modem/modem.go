package modem

import (
	"sync"
	"sync/atomic"
)

// Hardware is the ADC/DAC collaborator contract the surrounding system
// must satisfy. TickADC/TickDAC call exactly one ReadADC/SetDAC per
// invocation, matching "called once per ADC ISR" / "called once per DAC
// ISR". Enabling, disabling, and acknowledging the sample-timer interrupt
// itself (AFSK_DAC_IRQ_START/STOP/END, AFSK_ADC_IRQ_END) has no Go
// equivalent here: a driver-timed callback invocation already is the
// acknowledgement, and Sending reports the "should I still be calling
// TickDAC" state that AFSK_DAC_IRQ_STOP signaled in the original.
type Hardware interface {
	// ReadADC returns one signed, zero-centered input sample.
	ReadADC() int8
	// SetDAC pushes one unsigned output sample.
	SetDAC(sample byte)
}

// Modem is a single AFSK1200 modem instance: RX and TX byte queues, the
// bit-sync/discriminator state, the HDLC receive state machine, the DDS
// oscillator, and the HDLC transmit state machine. The zero value is not
// usable; construct with New.
type Modem struct {
	cfg Config

	rx, tx *fifo
	delay  *fifo // signed samples stored as byte(int8), capacity SamplePerBit/2

	// Discriminator / IIR lowpass state.
	iirX, iirY [2]int16

	// Bit-sync state.
	sampledBits byte
	foundBits   byte
	currPhase   int

	// HDLC receive state.
	hdlcRXStart  bool
	hdlcCurrChar byte
	hdlcBitIdx   int
	demodBits    byte

	// DDS state, shared by TX.
	phaseAcc uint16
	phaseInc uint16

	markInc, spaceInc uint16
	dacSamplePerBit   int

	// TX bit-level state.
	sampleCount int
	txBit       byte
	currOut     byte
	bitStuff    bool
	stuffCnt    int

	// TX byte-level counters. preambleLen/trailerLen are touched both by
	// txStart (called from Write, on the caller's goroutine) and by
	// TickDAC (called from the DAC callback); txMu is the critical
	// section guarding trailerLen while a transmission may already be
	// draining it.
	txMu        sync.Mutex
	preambleLen int
	trailerLen  int

	sending atomic.Bool
}

// New constructs a Modem from cfg. It returns ErrBadSampleRate or
// ErrBadBufLen if cfg fails Validate — what the original firmware caught
// at compile time, realized here as a runtime check since Go has no
// build-time assertion over a value loaded from a config file.
func New(cfg Config) (*Modem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Modem{
		cfg:             cfg,
		rx:              newFIFO(cfg.RXBufLen),
		tx:              newFIFO(cfg.TXBufLen),
		delay:           newFIFO(SamplePerBit / 2),
		markInc:         toneInc(MarkFreq, cfg.DACSampleRate),
		spaceInc:        toneInc(SpaceFreq, cfg.DACSampleRate),
		dacSamplePerBit: cfg.dacSamplePerBit(),
	}
	m.phaseInc = m.markInc

	// Pre-load the delay FIFO with zeros so the discriminator always has
	// a valid delayed sample from the very first ADC tick.
	for i := 0; i < SamplePerBit/2; i++ {
		m.delay.push(0)
	}

	return m, nil
}

// Sending reports whether the modem currently has a transmission in
// progress. Safe to read from any goroutine without a lock.
func (m *Modem) Sending() bool {
	return m.sending.Load()
}
