package modem

// txStart is called from Write each time a byte is queued. It arms the
// transmitter if it is idle (resetting the DDS to MARK and computing a
// fresh preamble length) and, unconditionally, refreshes trailerLen so a
// byte arriving while the trailer is draining extends the transmission
// instead of truncating it.
func (m *Modem) txStart() {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if !m.sending.Load() {
		m.phaseInc = m.markInc
		m.phaseAcc = 0
		m.stuffCnt = 0
		m.sending.Store(true)
		m.preambleLen = round(m.cfg.PreambleMS*BitRate, 8000)
	}
	m.trailerLen = round(m.cfg.TrailerMS*BitRate, 8000)
}

func round(num, den int) int {
	return (num + den/2) / den
}

func switchTone(inc, mark, space uint16) uint16 {
	if inc == mark {
		return space
	}
	return mark
}

// TickDAC is the transmit state machine: at each bit boundary it pulls
// the next byte from the TX FIFO (or a preamble/trailer
// flag), NRZI-encodes and bit-stuffs it, and advances the DDS by one
// sample, emitting the result to hw. When no byte is left to send it
// stops the transmitter and returns without calling hw.SetDAC.
func (m *Modem) TickDAC(hw Hardware) {
	if m.sampleCount == 0 {
		if m.txBit == 0 {
			if !m.acquireByte() {
				return
			}
		}

		if m.bitStuff && m.stuffCnt >= BitStuffLen {
			m.stuffCnt = 0
			m.phaseInc = switchTone(m.phaseInc, m.markInc, m.spaceInc)
		} else {
			if m.currOut&m.txBit != 0 {
				m.stuffCnt++
			} else {
				m.stuffCnt = 0
				m.phaseInc = switchTone(m.phaseInc, m.markInc, m.spaceInc)
			}
			m.txBit <<= 1
		}
		m.sampleCount = m.dacSamplePerBit
	}

	m.phaseAcc = (m.phaseAcc + m.phaseInc) % SinLen
	hw.SetDAC(SinSample(m.phaseAcc))
	m.sampleCount--
}

// acquireByte fetches the next byte to clock out (preamble flag, trailer
// flag, or a TX FIFO byte with escape handling) and reports whether
// transmission should continue. It returns false after stopping the
// transmitter, in which case the caller must return immediately without
// touching sampleCount/txBit.
func (m *Modem) acquireByte() bool {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if m.tx.isEmpty() && m.trailerLen == 0 {
		m.sending.Store(false)
		return false
	}

	if !m.bitStuff {
		m.stuffCnt = 0
	}
	m.bitStuff = true

	switch {
	case m.preambleLen > 0:
		m.currOut = HDLCFlag
		m.preambleLen--
	case m.tx.isEmpty():
		m.currOut = HDLCFlag
		m.trailerLen--
	default:
		m.currOut, _ = m.tx.pop()
	}

	if m.currOut == AX25Esc {
		b, ok := m.tx.pop()
		if !ok {
			m.sending.Store(false)
			warnf("tx escape underrun, aborting transmission", ErrEscapeUnderrun)
			return false
		}
		m.currOut = b
	} else if m.currOut == HDLCFlag || m.currOut == HDLCReset {
		m.bitStuff = false
	}

	m.txBit = 0x01
	return true
}
