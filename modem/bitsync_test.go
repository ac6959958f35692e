package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTickADCFilterSelection checks that Config.Filter actually switches
// the IIR recurrence used in TickADC: Butterworth and Chebyshev disagree
// on at least one sample for the same input sequence.
func TestTickADCFilterSelection(t *testing.T) {
	run := func(filter Filter) int16 {
		cfg := DefaultConfig()
		cfg.Filter = filter
		m, err := New(cfg)
		require.NoError(t, err)

		hw := toneSource{freq: MarkFreq}
		for i := 0; i < 16; i++ {
			m.TickADC(&hw)
			hw.n++
		}
		return m.iirY[1]
	}

	bw := run(Butterworth)
	cheb := run(Chebyshev)
	assert.NotEqual(t, bw, cheb, "Butterworth and Chebyshev recurrences should diverge")
}

func TestEdgeDetection(t *testing.T) {
	assert.False(t, edge(0x00))
	assert.False(t, edge(0x03))
	assert.True(t, edge(0x01))
	assert.True(t, edge(0x02))
}
