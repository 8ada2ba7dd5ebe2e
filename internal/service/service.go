package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/ducklive/internal/frames"
	"github.com/danmuck/ducklive/internal/server"
	"github.com/danmuck/ducklive/internal/stream"
	"github.com/rs/zerolog/log"
)

var ErrInvalidConfig = errors.New("service: invalid config")

// ServiceConfig configures one ducklive process.
type ServiceConfig struct {
	ID              string
	ListenAddr      string
	ListenHost      string
	StartPort       int
	PortAttempts    int
	FramesDir       string
	FrameInterval   time.Duration
	ReadyTimeout    time.Duration
	ShutdownTimeout time.Duration
	RedirectURL     string
	CorsOrigins     []string
}

func DefaultServiceConfig() ServiceConfig {
	srv := server.DefaultConfig()
	return ServiceConfig{
		ID:              srv.ID,
		ListenAddr:      "",
		ListenHost:      "",
		StartPort:       3000,
		PortAttempts:    100,
		FramesDir:       "frames",
		FrameInterval:   stream.DefaultInterval,
		ReadyTimeout:    srv.ReadyTimeout,
		ShutdownTimeout: srv.ShutdownTimeout,
		RedirectURL:     srv.RedirectURL,
		CorsOrigins:     srv.CorsOrigins,
	}
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.FramesDir) == "" {
		return fmt.Errorf("%w: frames dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		if c.StartPort < 0 || c.StartPort > 65535 {
			return fmt.Errorf("%w: start port %d out of range", ErrInvalidConfig, c.StartPort)
		}
		if c.PortAttempts <= 0 {
			return fmt.Errorf("%w: port attempts must be positive", ErrInvalidConfig)
		}
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame interval must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c ServiceConfig) serverConfig() server.Config {
	return server.Config{
		ID:              c.ID,
		RedirectURL:     c.RedirectURL,
		CorsOrigins:     c.CorsOrigins,
		ReadyTimeout:    c.ReadyTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		Stream:          stream.Config{Interval: c.FrameInterval},
	}
}

type Service struct {
	cfg    ServiceConfig
	store  *frames.Store
	server *server.Server

	addrMu sync.Mutex
	addr   net.Addr
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	store := frames.NewStore()
	return &Service{
		cfg:    cfg,
		store:  store,
		server: server.Appear(cfg.serverConfig(), store),
	}
}

func (s *Service) Store() *frames.Store {
	return s.store
}

func (s *Service) Server() *server.Server {
	return s.server
}

// Addr returns the bound address once the service is listening.
func (s *Service) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext loads frames in the background and serves until ctx is done.
// Requests arriving before the load finishes wait briefly or get a 503.
func (s *Service) RunContext(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := s.listen(ctx)
	if err != nil {
		return err
	}
	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()
	log.Info().Str("addr", fmt.Sprintf("http://%s", ln.Addr())).Msg("ducklive is running")

	go func() {
		_ = s.store.LoadInto(ctx, s.cfg.FramesDir)
	}()
	return s.server.Serve(ctx, ln)
}

func (s *Service) listen(ctx context.Context) (net.Listener, error) {
	if addr := strings.TrimSpace(s.cfg.ListenAddr); addr != "" {
		return server.Listen(ctx, addr)
	}
	return server.ListenAvailable(ctx, s.cfg.ListenHost, s.cfg.StartPort, s.cfg.PortAttempts)
}
