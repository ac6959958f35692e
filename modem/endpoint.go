package modem

import (
	"runtime"
	"time"
)

// relax yields the current goroutine briefly. It is the userspace Go
// substitute for cpu_relax()/an idle-until-interrupt primitive, used by
// every busy-wait loop below so a blocked Read/Write/Flush doesn't spin
// a core at 100%.
func relax() {
	runtime.Gosched()
	time.Sleep(100 * time.Microsecond)
}

// Write queues buf for transmission, busy-waiting for TX FIFO space
// before each byte and kicking the transmitter via txStart after every
// push. It returns the number of bytes written, which is always len(buf)
// since Write never gives up (it can only be interrupted by the process
// exiting, matching the original's unbounded busy-wait).
func (m *Modem) Write(buf []byte) (int, error) {
	for _, b := range buf {
		for m.tx.isFull() {
			relax()
		}
		m.tx.push(b)
		m.txStart()
	}
	return len(buf), nil
}

// Read drains up to len(buf) bytes from the RX FIFO, with blocking
// behavior controlled by Config.RXTimeoutMS:
//
//   - 0: non-blocking — return immediately once the RX FIFO is empty.
//   - -1: block until len(buf) bytes have been read.
//   - >0: busy-wait per byte up to that many milliseconds, returning a
//     short count on timeout.
func (m *Modem) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		switch {
		case m.cfg.RXTimeoutMS == 0:
			if m.rx.isEmpty() {
				return n, nil
			}
		case m.cfg.RXTimeoutMS < 0:
			for m.rx.isEmpty() {
				relax()
			}
		default:
			start := time.Now()
			timeout := time.Duration(m.cfg.RXTimeoutMS) * time.Millisecond
			for m.rx.isEmpty() {
				if time.Since(start) > timeout {
					return n, nil
				}
				relax()
			}
		}

		b, ok := m.rx.pop()
		if !ok {
			continue
		}
		buf[n] = b
		n++
	}
	return n, nil
}

// Flush busy-waits until the transmitter has finished sending.
func (m *Modem) Flush() {
	for m.Sending() {
		relax()
	}
}
