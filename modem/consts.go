// Package modem implements a full-duplex AFSK1200 software modem: HDLC
// framing/deframing over a Bell 202 (1200/2200 Hz) tone pair, clocked by a
// caller-supplied ADC/DAC sample source.
package modem

// Demodulator constants. SampleRate and BitRate must divide evenly;
// everything else in this file is derived from that ratio.
const (
	SampleRate   = 9600
	BitRate      = 1200
	SamplePerBit = SampleRate / BitRate // 8

	PhaseBit   = 8
	PhaseInc   = 1
	PhaseMax   = SamplePerBit * PhaseBit // 64
	PhaseThres = PhaseMax / 2            // 32
)

// Modulator constants.
const (
	MarkFreq  = 1200
	SpaceFreq = 2200
	SinLen    = 512

	BitStuffLen = 5
)

// HDLC control bytes shared with the byte stream above the modem.
const (
	HDLCFlag  byte = 0x7E
	HDLCReset byte = 0x7F
	AX25Esc   byte = 0x1B
)

// hdlcResetMask isolates the low 7 bits of the demod-bit shift register;
// seven consecutive 1-bits (the HDLC_RESET pattern) trip the reset check
// regardless of the 8th (oldest) bit's value.
const hdlcResetMask = 0x7F

// maxFrameLen is the default RX/TX FIFO capacity used by DefaultConfig.
// The deframer pushes byte-at-a-time into the RX FIFO, so the FIFO
// capacity, not this constant, is what bounds a received frame.
const maxFrameLen = 400
