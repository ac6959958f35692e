package kiss

import (
	"context"
	"fmt"
	"net"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServeTCP accepts KISS-over-TCP clients on addr (e.g. ":8001") and, if
// serviceName is non-empty, advertises the port via mDNS/DNS-SD so clients
// can discover the TNC instead of typing in an address.
func ServeTCP(ctx context.Context, g *Gateway, addr, serviceName string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("kiss: listen %s: %w", addr, err)
	}
	defer ln.Close()

	if serviceName != "" {
		port := ln.Addr().(*net.TCPAddr).Port
		if err := announce(ctx, serviceName, port); err != nil {
			log.Warn("kiss: dns-sd announce failed", "err", err)
		}
	}

	log.Info("kiss tcp listening", "addr", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kiss: accept: %w", err)
		}
		go serveConn(ctx, g, conn)
	}
}

func serveConn(ctx context.Context, g *Gateway, conn net.Conn) {
	defer conn.Close()
	errc := make(chan error, 2)
	go func() { errc <- g.PumpToTransport(ctx, conn) }()
	go func() { errc <- g.PumpFromTransport(conn) }()
	if err := <-errc; err != nil {
		log.Warn("kiss tcp client disconnected", "remote", conn.RemoteAddr(), "err", err)
	}
}

const dnsSDServiceType = "_kiss-tnc._tcp"

// announce registers name on port via DNS-SD until ctx is canceled.
func announce(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: dnsSDServiceType,
		Port: port,
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("dnssd: new service: %w", err)
	}
	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("dnssd: new responder: %w", err)
	}
	if _, err := responder.Add(svc); err != nil {
		return fmt.Errorf("dnssd: add service: %w", err)
	}

	go func() {
		if err := responder.Respond(ctx); err != nil {
			log.Warn("dns-sd responder error", "err", err)
		}
	}()
	return nil
}
