package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/ducklive/internal/frames"
	"github.com/danmuck/ducklive/internal/observability"
	"github.com/danmuck/ducklive/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const healthBody = `{"status":"ok"}`

func (s *Server) RegisterRoutes() {
	s.routes.Do(func() {
		s.router.Any("/healthcheck", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(healthBody))
		})

		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

		s.router.GET("/ready", func(c *gin.Context) {
			state := s.store.State()
			body := gin.H{
				"ready":   state == frames.StateReady,
				"state":   state.String(),
				"frames":  s.store.Set().Len(),
				"uptime":  time.Since(s.Appeared).String(),
				"service": s.ID,
			}
			if err := s.store.Err(); err != nil {
				body["error"] = err.Error()
			}
			status := http.StatusOK
			if state != frames.StateReady {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, body)
		})

		s.router.NoRoute(s.handleStream)
	})
}

// ParseOptions reads the flip and debug switches. Only a case-insensitive
// "true" enables a switch.
func ParseOptions(c *gin.Context) stream.Options {
	return stream.Options{
		Flip:  strings.EqualFold(c.Query("flip"), "true"),
		Debug: strings.EqualFold(c.Query("debug"), "true"),
	}
}

// isTerminalClient reports whether the request should get the animation
// rather than a redirect. Requests without a User-Agent are streamed.
func isTerminalClient(r *http.Request) bool {
	ua := r.Header.Get("User-Agent")
	return ua == "" || strings.Contains(ua, "curl")
}

func (s *Server) handleStream(c *gin.Context) {
	if !isTerminalClient(c.Request) {
		c.Header("Location", s.cfg.RedirectURL)
		c.AbortWithStatus(http.StatusFound)
		return
	}

	opts := ParseOptions(c)
	waitCtx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ReadyTimeout)
	set, err := s.store.Wait(waitCtx)
	cancel()
	if err != nil {
		s.reject(c, err)
		return
	}
	selected := set.Select(opts.Flip)
	if len(selected) == 0 {
		s.reject(c, stream.ErrNoFrames)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if opts.Debug {
		fmt.Fprintf(c.Writer, "Debug mode enabled. Streaming will begin shortly...\n")
		fmt.Fprintf(c.Writer, "Flip: %t\n", opts.Flip)
		fmt.Fprintf(c.Writer, "Total frames: %d\n", len(selected))
		fmt.Fprintf(c.Writer, "---\n")
	}

	session, err := s.streamer.Start(c.Writer, selected, opts)
	if err != nil {
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("stream start failed")
		return
	}
	defer session.Stop()

	select {
	case <-c.Request.Context().Done():
	case <-session.Done():
	}
	log.Debug().Str("session", session.ID()).Uint64("written", session.Written()).Msg("request closed, cleaning up")
}

func (s *Server) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, frames.ErrLoading):
		observability.RecordStreamRejected("loading")
		c.Header("Retry-After", "1")
		c.String(http.StatusServiceUnavailable, "frames are still loading, retry shortly\n")
	case errors.Is(err, frames.ErrLoadFailed):
		observability.RecordStreamRejected("failed")
		c.String(http.StatusServiceUnavailable, "frames unavailable: %v\n", err)
	case errors.Is(err, stream.ErrNoFrames):
		observability.RecordStreamRejected("empty")
		c.String(http.StatusServiceUnavailable, "no frames available\n")
	default:
		observability.RecordStreamRejected("error")
		c.String(http.StatusInternalServerError, "stream error: %v\n", err)
	}
	log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("stream rejected")
}
