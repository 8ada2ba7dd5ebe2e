package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/ducklive/internal/frames"
	"github.com/danmuck/ducklive/internal/node"
	"github.com/danmuck/ducklive/internal/observability"
	"github.com/danmuck/ducklive/internal/stream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const DefaultRedirectURL = "https://github.com/PatoFlamejanteTV/duck.live"

// Config is the HTTP surface configuration.
type Config struct {
	ID              string
	RedirectURL     string
	CorsOrigins     []string
	ReadyTimeout    time.Duration
	ShutdownTimeout time.Duration
	Stream          stream.Config
}

func DefaultConfig() Config {
	return Config{
		ID:              "ducklive",
		RedirectURL:     DefaultRedirectURL,
		CorsOrigins:     []string{"*"},
		ReadyTimeout:    2 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Stream:          stream.DefaultConfig(),
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.ID) == "" {
		c.ID = def.ID
	}
	if strings.TrimSpace(c.RedirectURL) == "" {
		c.RedirectURL = def.RedirectURL
	}
	if len(c.CorsOrigins) == 0 {
		c.CorsOrigins = def.CorsOrigins
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = def.ReadyTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	c.Stream = c.Stream.WithDefaults()
	return c
}

type Server struct {
	ID       string
	Appeared time.Time

	cfg      Config
	store    *frames.Store
	streamer *stream.Streamer
	router   *gin.Engine
	routes   sync.Once
}

var _ node.Node = (*Server)(nil)

// Appear builds the router and middleware stack around store. Routes are
// registered on first RegisterRoutes or Serve.
func Appear(cfg Config, store *frames.Store) *Server {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(corsConfig(cfg.CorsOrigins)))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		ID:       cfg.ID,
		Appeared: time.Now(),
		cfg:      cfg,
		store:    store,
		streamer: stream.New(cfg.Stream),
		router:   r,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "HEAD"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "ducklive"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve answers HTTP on ln until ctx is done. Request contexts derive from
// ctx, so open streams tear down before the graceful shutdown deadline.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	log.Info().Str("id", s.ID).Str("addr", ln.Addr().String()).Msg("server listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return err
	}
	log.Info().Str("id", s.ID).Msg("server stopped")
	return nil
}
