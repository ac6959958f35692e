package modem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// loopbackHW feeds a Modem's own DAC output back into its ADC input,
// sample for sample, converting the unsigned 128-centered DAC byte to a
// signed zero-centered ADC sample exactly as a real loopback cable would
// (minus any analog distortion).
type loopbackHW struct {
	last      byte
	dacCalled bool
}

func (h *loopbackHW) SetDAC(sample byte) { h.last = sample; h.dacCalled = true }
func (h *loopbackHW) ReadADC() int8      { return int8(int(h.last) - 128) }

// runLoopback transmits buf through m's own TX FSM and demodulates it
// back through m's own RX chain, returning every byte accumulated in the
// RX FIFO one bit period after the transmission ends. onBit, if non-nil, is
// called once per bit period with the DDS phase increment in effect for
// that bit (used to inspect the on-air tone sequence).
func runLoopback(t *testing.T, m *Modem, buf []byte, onBit func(phaseInc uint16)) []byte {
	t.Helper()
	_, err := m.Write(buf)
	require.NoError(t, err)

	var hw loopbackHW
	for i := 0; i < 10_000_000; i++ {
		prevSampleCount := m.sampleCount
		hw.dacCalled = false
		m.TickDAC(&hw)
		if !hw.dacCalled {
			break // transmission ended without emitting a new sample
		}
		if prevSampleCount == 0 && onBit != nil {
			onBit(m.phaseInc)
		}
		m.TickADC(&hw)
	}
	require.False(t, m.Sending(), "loopback did not finish within the iteration budget")

	// The receiver decides each bit some samples after the transmitter
	// sent it, so keep clocking the ADC for one more bit period, with the
	// line held at its last level, to let the final bit reach the deframer.
	for i := 0; i < SamplePerBit; i++ {
		m.TickADC(&hw)
	}

	return drainRX(m)
}

// escapeSpecials prefixes AX25_ESC before every literal HDLC_FLAG,
// HDLC_RESET, or AX25_ESC byte in data, mirroring what an AX.25 layer
// above the modem is responsible for doing before calling Write.
func escapeSpecials(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == HDLCFlag || b == HDLCReset || b == AX25Esc {
			out = append(out, AX25Esc)
		}
		out = append(out, b)
	}
	return out
}

func noPreambleTrailerConfig() Config {
	cfg := DefaultConfig()
	cfg.PreambleMS = 0
	cfg.TrailerMS = 0
	return cfg
}

// TestLoopbackSingleByteFrame writes [flag, 0x41, flag] (with no
// preamble/trailer padding) and expects it to yield
// [flag, ESC, flag, 0x41, ESC, flag] out the RX FIFO.
func TestLoopbackSingleByteFrame(t *testing.T) {
	m, err := New(noPreambleTrailerConfig())
	require.NoError(t, err)

	got := runLoopback(t, m, []byte{HDLCFlag, 0x41, HDLCFlag}, nil)
	want := []byte{HDLCFlag, AX25Esc, HDLCFlag, 0x41, AX25Esc, HDLCFlag}
	assert.Equal(t, want, got)
}

// TestLoopbackEscapesAllSpecialBytesAsPayload sends all three special
// byte values as ESC-escaped payload between two real delimiter flags
// and checks each one survives bit stuffing and comes back re-escaped
// identically.
func TestLoopbackEscapesAllSpecialBytesAsPayload(t *testing.T) {
	m, err := New(noPreambleTrailerConfig())
	require.NoError(t, err)

	in := []byte{
		HDLCFlag,
		AX25Esc, HDLCFlag,
		AX25Esc, HDLCReset,
		AX25Esc, AX25Esc,
		HDLCFlag,
	}
	got := runLoopback(t, m, in, nil)
	want := []byte{
		HDLCFlag,
		AX25Esc, HDLCFlag,
		AX25Esc, HDLCReset,
		AX25Esc, AX25Esc,
		HDLCFlag,
	}
	assert.Equal(t, want, got)
}

// TestLoopbackRandomPayloadRoundTrip checks the NRZI and bit-stuffing
// round-trip property: any payload (including runs of ≥5 consecutive
// 1-bits at any alignment, which forces stuffing) survives transmission
// and demodulation unchanged once escaped.
func TestLoopbackRandomPayloadRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "payload")

		m, err := New(noPreambleTrailerConfig())
		require.NoError(t, err)

		framed := append([]byte{HDLCFlag}, escapeSpecials(payload)...)
		framed = append(framed, HDLCFlag)

		got := runLoopback(t, m, framed, nil)
		assert.Equal(t, framed, got)
	})
}

// TestLoopbackMaxStuffRun checks that transmitting 0xFF (eight consecutive
// 1-bits) between flags never puts more than BitStuffLen+1 consecutive
// same-tone bit periods on the air within the payload: the toggled bit
// that starts a run plus at most BitStuffLen held 1-bits before the
// stuffed zero toggles the tone. The two flags are sent unstuffed (six
// 1-bits each), so only the payload's bit periods are checked.
func TestLoopbackMaxStuffRun(t *testing.T) {
	m, err := New(noPreambleTrailerConfig())
	require.NoError(t, err)

	var tones []uint16
	runLoopback(t, m, []byte{HDLCFlag, 0xFF, HDLCFlag}, func(inc uint16) {
		tones = append(tones, inc)
	})

	// Opening flag, 8 payload bits plus 1 stuffed bit, closing flag.
	require.Len(t, tones, 8+8+1+8)

	run := 1
	for i := 8; i < len(tones)-8; i++ {
		if tones[i] == tones[i-1] {
			run++
			assert.LessOrEqualf(t, run, BitStuffLen+1, "tone held for %d consecutive bits at index %d", run, i)
		} else {
			run = 1
		}
	}
}

// TestPLLLock checks that feeding a perfect 2200 Hz tone converges
// curr_phase to within ±PHASE_INC of PHASE_MAX/2 well before 100 bit
// intervals have elapsed.
func TestPLLLock(t *testing.T) {
	m, err := New(DefaultConfig())
	require.NoError(t, err)

	hw := toneSource{freq: SpaceFreq}
	for i := 0; i < 100*SamplePerBit; i++ {
		m.TickADC(&hw)
		hw.n++
	}

	assert.LessOrEqualf(t, abs(m.currPhase-PhaseMax/2), PhaseInc,
		"curr_phase=%d did not converge near PhaseMax/2=%d", m.currPhase, PhaseMax/2)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// toneSource is a Hardware that only implements ReadADC, generating a
// synthetic steady carrier at freq Hz sampled at SampleRate; it is not
// used as a DAC target.
type toneSource struct {
	freq int
	n    int
}

func (s *toneSource) SetDAC(byte) {}
func (s *toneSource) ReadADC() int8 {
	v := 100 * math.Sin(2*math.Pi*float64(s.freq)*float64(s.n)/float64(SampleRate))
	return int8(math.Round(v))
}

// TestPreambleFlagCount checks the preamble-count property: with
// PreambleMS = L, the deframer observes exactly
// round(L*BitRate/8000) flag bytes before the first payload byte.
func TestPreambleFlagCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreambleMS = 100
	cfg.TrailerMS = 0
	m, err := New(cfg)
	require.NoError(t, err)

	want := round(cfg.PreambleMS*BitRate, 8000)

	got := runLoopback(t, m, []byte{0x41}, nil)

	flagCount := 0
	for flagCount < len(got) && got[flagCount] == HDLCFlag {
		flagCount++
	}
	assert.Equal(t, want, flagCount)
	if assert.Less(t, flagCount, len(got)) {
		assert.Equal(t, byte(0x41), got[flagCount])
	}
}

// TestTrailerExtension checks that calling Write while the trailer is
// still draining extends the transmission with the new bytes instead of
// letting the trailer run to completion first.
func TestTrailerExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreambleMS = 0
	cfg.TrailerMS = 400 // long enough to reliably catch mid-drain
	m, err := New(cfg)
	require.NoError(t, err)

	// With no preamble, the opening flag is written explicitly: the
	// deframer ignores every bit before the first flag.
	_, err = m.Write([]byte{HDLCFlag, 0x41})
	require.NoError(t, err)

	var hw loopbackHW
	secondWriteDone := false
	for i := 0; i < 10_000_000 && m.Sending(); i++ {
		hw.dacCalled = false
		m.TickDAC(&hw)
		if !hw.dacCalled {
			break
		}
		m.TickADC(&hw)

		if !secondWriteDone && m.trailerLen > 0 && m.trailerLen < round(cfg.TrailerMS*BitRate, 8000) {
			_, err := m.Write([]byte{0x42})
			require.NoError(t, err)
			secondWriteDone = true
		}
	}
	require.True(t, secondWriteDone, "test did not catch the trailer mid-drain")
	require.False(t, m.Sending())

	got := drainRX(m)
	assert.Contains(t, got, byte(0x42))

	idx41, idx42 := -1, -1
	for i, b := range got {
		if b == 0x41 && idx41 == -1 {
			idx41 = i
		}
		if b == 0x42 && idx42 == -1 {
			idx42 = i
		}
	}
	require.NotEqual(t, -1, idx41)
	require.NotEqual(t, -1, idx42)
	assert.Less(t, idx41, idx42, "second write's byte should be received after the first")
}

// TestReadNonBlockingEmpty checks that with RXTimeoutMS == 0 and an
// empty RX FIFO, Read returns 0 immediately.
func TestReadNonBlockingEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RXTimeoutMS = 0
	m, err := New(cfg)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestReadTimeoutReturnsShortCount checks the bounded-timeout branch of
// Read: with an empty RX FIFO it returns a short count instead of
// blocking forever.
func TestReadTimeoutReturnsShortCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RXTimeoutMS = 20
	m, err := New(cfg)
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
