package ptt

import (
	"fmt"

	"github.com/xylo04/goHamlib"
)

// HamlibKeyer is the PTT_METHOD_HAMLIB backend: CAT control of a rig's PTT
// line through hamlib's rig backends, for transceivers with no separate
// hardware PTT wire.
type HamlibKeyer struct {
	rig *goHamlib.Rig
}

// NewHamlibKeyer opens rig model modelID on device (e.g. "/dev/ttyUSB0")
// and readies it for PTT control.
func NewHamlibKeyer(modelID int, device string) (*HamlibKeyer, error) {
	rig := &goHamlib.Rig{}
	if err := rig.Init(modelID); err != nil {
		return nil, fmt.Errorf("ptt: hamlib init model %d: %w", modelID, err)
	}
	if err := rig.SetConf("rig_pathname", device); err != nil {
		return nil, fmt.Errorf("ptt: hamlib set device %s: %w", device, err)
	}
	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("ptt: hamlib open %s: %w", device, err)
	}
	return &HamlibKeyer{rig: rig}, nil
}

// Set implements Keyer.
func (k *HamlibKeyer) Set(on bool) error {
	if err := k.rig.SetPTT(goHamlib.VFO_CURR, on); err != nil {
		return fmt.Errorf("ptt: hamlib set ptt: %w", err)
	}
	return nil
}

// Close implements Keyer.
func (k *HamlibKeyer) Close() error {
	return k.rig.Close()
}
