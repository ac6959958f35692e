// Command afsktncd is the AFSK1200 TNC daemon: it opens a sound card,
// drives the modem's ADC/DAC ticks from it, keys PTT around transmissions,
// and exposes the resulting byte stream as a KISS TNC over a pseudo-TTY
// and/or TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/kd9xyz/afsk1200/hardware/audio"
	"github.com/kd9xyz/afsk1200/hardware/ptt"
	"github.com/kd9xyz/afsk1200/hardware/udev"
	"github.com/kd9xyz/afsk1200/kiss"
	"github.com/kd9xyz/afsk1200/modem"
)

func main() {
	var (
		configFile    = pflag.StringP("config-file", "c", "", "YAML configuration file. Unset keys keep their default.")
		listDevices   = pflag.BoolP("list-devices", "l", false, "List full-duplex audio devices and exit.")
		deviceIndex   = pflag.IntP("audio-device", "a", -1, "Audio device index, -1 for the system default.")
		pttChip       = pflag.String("ptt-gpio-chip", "", "gpio-cdev chip (e.g. gpiochip0) for PTT. Empty disables GPIO PTT.")
		pttLine       = pflag.Int("ptt-gpio-line", 0, "gpio-cdev line offset for PTT.")
		pttInvert     = pflag.Bool("ptt-invert", false, "Invert PTT GPIO polarity.")
		symlinkPath   = pflag.StringP("ptty", "p", "", "Create a KISS pseudo-TTY symlink at this path.")
		tcpAddr       = pflag.StringP("kiss-tcp", "t", "", "Also serve KISS over TCP at this address (e.g. :8001).")
		dnssdName     = pflag.String("dns-sd-name", "", "Advertise the KISS TCP service under this name via mDNS.")
		timestampFmt  = pflag.StringP("timestamp-format", "T", "", "strftime format to log before each received frame.")
		watchUdev     = pflag.Bool("watch-udev", false, "Log sound card hotplug events.")
		help          = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	if *listDevices {
		devices, err := audio.ListDevices()
		if err != nil {
			log.Fatal("list devices", "err", err)
		}
		for _, d := range devices {
			fmt.Printf("%3d  %-40s %.0f Hz\n", d.Index, d.Name, d.SampleRate)
		}
		return
	}

	cfg := modem.DefaultConfig()
	if *configFile != "" {
		loaded, err := modem.LoadConfig(*configFile)
		if err != nil {
			log.Fatal("load config", "file", *configFile, "err", err)
		}
		cfg = loaded
	}

	var tsFormatter *strftime.Strftime
	if *timestampFmt != "" {
		f, err := strftime.New(*timestampFmt)
		if err != nil {
			log.Fatal("parse timestamp-format", "err", err)
		}
		tsFormatter = f
	}

	m, err := modem.New(cfg)
	if err != nil {
		log.Fatal("construct modem", "err", err)
	}

	card, err := audio.Open(*deviceIndex, float64(cfg.DACSampleRate))
	if err != nil {
		log.Fatal("open audio device", "err", err)
	}
	defer card.Close()

	keyer, err := buildKeyer(*pttChip, *pttLine, *pttInvert)
	if err != nil {
		log.Fatal("configure ptt", "err", err)
	}
	defer keyer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Info("shutting down")
		cancel()
	}()

	go runModemTicks(ctx, m, card)
	go runPTTSupervisor(ctx, m, keyer)

	if *watchUdev {
		go logUdevEvents(ctx)
	}

	gw := kiss.New(m)

	var onFrame func(frame []byte)
	if tsFormatter != nil {
		onFrame = func(frame []byte) {
			log.Info("frame received", "at", tsFormatter.FormatString(time.Now()), "bytes", len(frame))
		}
	}
	go func() {
		if err := gw.Run(ctx, onFrame); err != nil && ctx.Err() == nil {
			log.Error("kiss gateway reader exited", "err", err)
		}
	}()

	errc := make(chan error, 2)
	if *symlinkPath != "" {
		go func() { errc <- kiss.ServePTY(ctx, gw, *symlinkPath) }()
	}
	if *tcpAddr != "" {
		go func() { errc <- kiss.ServeTCP(ctx, gw, *tcpAddr, *dnssdName) }()
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error("kiss transport exited", "err", err)
	}
}

func buildKeyer(chip string, line int, invert bool) (ptt.Keyer, error) {
	if chip == "" {
		return ptt.NoneKeyer{}, nil
	}
	return ptt.NewGPIOKeyer(chip, line, invert)
}

// runModemTicks drives the modem's ADC/DAC state machines from card at the
// modem's own sample rate; this stands in for the original's hardware
// sample-timer interrupt, which called afsk_rx_bottom/afsk_tx_bottom once
// per sample without any scheduling help from the OS.
func runModemTicks(ctx context.Context, m *modem.Modem, card *audio.Card) {
	period := time.Second / time.Duration(modem.SampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.TickADC(card)
			m.TickDAC(card)
		}
	}
}

// runPTTSupervisor polls the modem's Sending state every millisecond and
// keys the transmitter when it turns true, unkeying it once it turns false
// (after the trailer has finished).
func runPTTSupervisor(ctx context.Context, m *modem.Modem, keyer ptt.Keyer) {
	wasSending := false
	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			sending := m.Sending()
			if sending == wasSending {
				continue
			}
			wasSending = sending
			if err := keyer.Set(sending); err != nil {
				log.Warn("ptt set failed", "on", sending, "err", err)
			}
		}
	}
}

func logUdevEvents(ctx context.Context) {
	events, err := udev.Watch(ctx)
	if err != nil {
		log.Warn("udev watch failed", "err", err)
		return
	}
	for ev := range events {
		log.Info("sound card event", "action", ev.Action, "device", ev.SysName, "node", ev.DevNode)
	}
}

