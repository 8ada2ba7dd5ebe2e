package frames

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/ducklive/internal/observability"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

var (
	ErrLoading    = errors.New("frames: still loading")
	ErrLoadFailed = errors.New("frames: load failed")
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Store publishes the frame set exactly once. Readers either see Loading
// or the final Ready/Failed outcome; there is no transition back.
type Store struct {
	mu    sync.RWMutex
	state State
	set   *Set
	err   error
	ready chan struct{}
	once  sync.Once
}

func NewStore() *Store {
	return &Store{ready: make(chan struct{})}
}

// Resolve publishes set. Only the first Resolve or Fail takes effect.
func (s *Store) Resolve(set *Set) bool {
	if set == nil {
		set = &Set{}
	}
	return s.finish(StateReady, set, nil)
}

// Fail records a load error. Only the first Resolve or Fail takes effect.
func (s *Store) Fail(err error) bool {
	if err == nil {
		err = errors.New("unknown error")
	}
	return s.finish(StateFailed, nil, err)
}

func (s *Store) finish(state State, set *Set, err error) bool {
	applied := false
	s.once.Do(func() {
		s.mu.Lock()
		s.state = state
		s.set = set
		s.err = err
		s.mu.Unlock()
		close(s.ready)
		applied = true
	})
	return applied
}

// LoadInto runs Load for dir and publishes the outcome.
func (s *Store) LoadInto(ctx context.Context, dir string) error {
	start := time.Now()
	set, err := Load(ctx, dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("frames load failed")
		s.Fail(err)
		return err
	}
	s.Resolve(set)
	observability.RecordFramesLoaded(len(set.Original), len(set.Flipped))

	event := log.Info()
	if set.Len() == 0 {
		event = log.Warn()
	}
	event.
		Str("dir", dir).
		Int("frames", set.Len()).
		Int("height", set.Height).
		Str("size", humanize.Bytes(set.Size())).
		Dur("took", time.Since(start)).
		Msg("frames loaded")
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set returns the published set, or nil until the store is Ready.
func (s *Store) Set() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Ready is closed once the store leaves Loading.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until the set is published or ctx ends. It returns
// ErrLoading when ctx ends first and wraps ErrLoadFailed when loading
// failed.
func (s *Store) Wait(ctx context.Context) (*Set, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		select {
		case <-s.ready:
		default:
			return nil, ErrLoading
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateFailed {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, s.err)
	}
	return s.set, nil
}
