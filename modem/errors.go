package modem

import "errors"

// Sentinel errors grouped by how a caller can observe them. Only
// ErrBadSampleRate and ErrBadBufLen are ever returned from an exported
// function; ErrRXOverflow and ErrEscapeUnderrun describe conditions the
// modem handles internally (frame drop, transmission abort) and are only
// ever passed to the logger — there is no notification channel back to
// the caller, the same way the upstream protocol detects loss via missing
// frames rather than an explicit signal.
var (
	ErrBadSampleRate  = errors.New("afsk: DAC sample rate must be a positive multiple of the bit rate")
	ErrBadBufLen      = errors.New("afsk: rx/tx buffer length must be positive")
	ErrRXOverflow     = errors.New("afsk: rx fifo overflow, frame dropped")
	ErrEscapeUnderrun = errors.New("afsk: AX25_ESC with empty tx fifo, transmission aborted")
)
