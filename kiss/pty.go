package kiss

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// ServePTY allocates a pseudo-TTY, puts the slave side in raw mode so KISS
// framing bytes (notably FEND, 0xC0) pass through untouched, and pumps
// frames between it and the modem until either direction's goroutine
// returns. This exposes the KISS stream as a symlinked /dev/pts device
// for legacy AX.25 client software that only knows how to open a serial
// port.
func ServePTY(ctx context.Context, g *Gateway, symlinkPath string) error {
	master, slave, err := pty.Open()
	if err != nil {
		return fmt.Errorf("kiss: open pty: %w", err)
	}
	defer master.Close()
	defer slave.Close()

	if err := setRaw(slave); err != nil {
		return fmt.Errorf("kiss: set pty raw mode: %w", err)
	}

	if symlinkPath != "" {
		_ = os.Remove(symlinkPath)
		if err := os.Symlink(slave.Name(), symlinkPath); err != nil {
			return fmt.Errorf("kiss: symlink %s: %w", symlinkPath, err)
		}
		defer os.Remove(symlinkPath)
	}

	log.Info("kiss pty ready", "device", slave.Name(), "symlink", symlinkPath)

	errc := make(chan error, 2)
	go func() { errc <- g.PumpToTransport(ctx, master) }()
	go func() { errc <- g.PumpFromTransport(master) }()
	return <-errc
}

// setRaw disables line discipline processing on f's underlying fd so every
// byte, including the KISS control bytes, is delivered unmodified.
func setRaw(f *os.File) error {
	var attr unix.Termios
	if err := termios.Tcgetattr(f.Fd(), &attr); err != nil {
		return err
	}
	termios.Cfmakeraw(&attr)
	return termios.Tcsetattr(f.Fd(), unix.TCSANOW, &attr)
}
