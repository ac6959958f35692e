// Package ptt keys a transmitter's push-to-talk line when the modem has a
// frame to send. It mirrors the original PTT_METHOD_* family of backends
// with one Keyer implementation per transport.
package ptt

// Keyer keys and unkeys a transmitter's PTT line: Set(true) keys it and
// Set(false) unkeys it. cmd/afsktncd calls Set whenever the modem's
// Sending state changes, so unkeying follows the end of the trailer.
type Keyer interface {
	Set(on bool) error
	Close() error
}

// NoneKeyer is the PTT_METHOD_NONE backend: no hardware keying at all,
// for VOX-keyed rigs or loopback testing.
type NoneKeyer struct{}

func (NoneKeyer) Set(bool) error { return nil }
func (NoneKeyer) Close() error   { return nil }
