package stream

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/ducklive/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Terminal control sequences written around the frames.
const (
	ClearScreen = "\x1b[2J\x1b[3J\x1b[H"
	HideCursor  = "\x1b[?25l"
	ShowCursor  = "\x1b[?25h"
	CursorHome  = "\x1b[H"
)

const DefaultInterval = 100 * time.Millisecond

var ErrNoFrames = errors.New("stream: no frames to play")

// Options are the per-request playback switches.
type Options struct {
	Flip  bool
	Debug bool
}

// TickerFunc returns a tick channel and its stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

type Config struct {
	Interval  time.Duration
	NewTicker TickerFunc
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

func (c Config) WithDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.NewTicker == nil {
		c.NewTicker = wallTicker
	}
	return c
}

func wallTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Streamer starts sessions that push frames to a sink on a fixed cadence.
type Streamer struct {
	cfg Config
}

func New(cfg Config) *Streamer {
	return &Streamer{cfg: cfg.WithDefaults()}
}

// Session is one running playback. The frame index is owned by the
// session goroutine; Stop is the only way to end it from outside.
type Session struct {
	id     string
	sink   io.Writer
	frames [][]byte
	opts   Options
	logger zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	written  atomic.Uint64
}

// Start writes the screen preamble and begins pushing frames. frames must be
// the already selected variant and is never modified.
func (st *Streamer) Start(sink io.Writer, frames [][]byte, opts Options) (*Session, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	id := uuid.New().String()
	s := &Session{
		id:     id,
		sink:   sink,
		frames: frames,
		opts:   opts,
		logger: log.With().Str("session", id).Bool("flip", opts.Flip).Logger(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	s.event().Int("frames", len(frames)).Dur("interval", st.cfg.Interval).Msg("stream initializing")
	if err := s.write(ClearScreen, HideCursor); err != nil {
		return nil, err
	}

	ticks, stopTicker := st.cfg.NewTicker(st.cfg.Interval)
	observability.StreamOpened()
	go s.run(ticks, stopTicker)
	return s, nil
}

func (s *Session) run(ticks <-chan time.Time, stopTicker func()) {
	defer close(s.done)
	defer stopTicker()

	index := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ticks:
		}

		if err := s.writeFrame(s.frames[index]); err != nil {
			s.logger.Debug().Err(err).Uint64("written", s.written.Load()).Msg("stream sink closed")
			return
		}
		index = (index + 1) % len(s.frames)
		if index == 0 {
			s.event().Uint64("written", s.written.Load()).Msg("completed one full cycle of frames")
		}
	}
}

func (s *Session) writeFrame(frame []byte) error {
	if _, err := io.WriteString(s.sink, CursorHome); err != nil {
		return err
	}
	if _, err := s.sink.Write(frame); err != nil {
		return err
	}
	s.flush()
	s.written.Add(1)
	observability.RecordFrameWritten(s.opts.Flip)
	return nil
}

func (s *Session) write(parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(s.sink, p); err != nil {
			return err
		}
	}
	s.flush()
	return nil
}

func (s *Session) flush() {
	if f, ok := s.sink.(http.Flusher); ok {
		f.Flush()
	}
}

// Stop halts the ticker, waits for the session goroutine to exit and then
// restores the cursor. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		_ = s.write(ShowCursor)
		observability.StreamClosed()
		s.event().Uint64("written", s.written.Load()).Msg("stream ended")
	})
}

// Done is closed when the session stops pushing frames, either through
// Stop or because the sink failed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Written() uint64 {
	return s.written.Load()
}

// Lifecycle chatter is only worth info level when the client asked for it.
func (s *Session) event() *zerolog.Event {
	if s.opts.Debug {
		return s.logger.Info()
	}
	return s.logger.Debug()
}
