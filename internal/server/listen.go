package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ListenAvailable binds host:start and walks upward while the port is in
// use. Any other bind error is returned as is. The returned listener is the
// one that should be served; it is never closed and rebound.
func ListenAvailable(ctx context.Context, host string, start, attempts int) (net.Listener, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lc net.ListenConfig
	for port := start; port < start+attempts; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("server: listen %s: %w", addr, err)
		}
		log.Debug().Str("addr", addr).Msg("port in use, trying next")
	}
	return nil, fmt.Errorf("server: no free port in %d..%d", start, start+attempts-1)
}

// Listen binds addr exactly.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return ln, nil
}
