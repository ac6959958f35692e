package ptt

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOKeyer is the PTT_METHOD_GPIOD backend: a single GPIO line driven
// high or low through the kernel's gpio-cdev ABI, the modern replacement
// for a sysfs GPIO export dance.

// gpioLine is the subset of *gpiocdev.Line this package drives, factored
// out so tests can substitute a fake without opening a real gpio-cdev.
type gpioLine interface {
	SetValue(value int) error
	Close() error
}

type GPIOKeyer struct {
	line   gpioLine
	invert bool
	chip   string
	offset int
}

// NewGPIOKeyer requests offset on chip (e.g. "gpiochip0") as an output and
// drives it to the unkeyed level: low, or high if invert is set. If invert
// is set, Set(true) drives the line low instead of high (open-drain keying
// circuits commonly need this).
func NewGPIOKeyer(chip string, offset int, invert bool) (*GPIOKeyer, error) {
	initial := 0
	if invert {
		initial = 1
	}
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(initial))
	if err != nil {
		return nil, fmt.Errorf("ptt: request gpio line %s:%d: %w", chip, offset, err)
	}
	return &GPIOKeyer{line: line, invert: invert, chip: chip, offset: offset}, nil
}

// Set implements Keyer.
func (k *GPIOKeyer) Set(on bool) error {
	v := 0
	if on != k.invert {
		v = 1
	}
	if err := k.line.SetValue(v); err != nil {
		return fmt.Errorf("ptt: set gpio %s:%d: %w", k.chip, k.offset, err)
	}
	return nil
}

// Close implements Keyer.
func (k *GPIOKeyer) Close() error {
	return k.line.Close()
}
