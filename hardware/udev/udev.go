// Package udev watches for USB sound cards appearing and disappearing, so
// a daemon bound to a specific card by name can reopen it after a
// hot-unplug/replug instead of exiting.
package udev

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// Event reports a sound-card device appearing (Action == "add") or
// disappearing (Action == "remove").
type Event struct {
	Action  string
	SysName string
	DevNode string
}

// Watch streams sound subsystem events until ctx is done. It exists so
// the daemon can react to a USB audio interface being unplugged
// mid-session instead of relying on a restart to pick the card back up.
func Watch(ctx context.Context) (<-chan Event, error) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		return nil, fmt.Errorf("udev: add sound subsystem filter: %w", err)
	}

	devCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("udev: start monitor: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errCh:
				if !ok {
					return
				}
				log.Warn("udev monitor error", "err", err)
			case dev, ok := <-devCh:
				if !ok {
					return
				}
				out <- Event{
					Action:  dev.Action(),
					SysName: dev.Sysname(),
					DevNode: dev.Devnode(),
				}
			}
		}
	}()

	return out, nil
}
