// Package session owns the geometry kernel lifecycle. A Session initializes
// its kernel once, however many callers race to use it, and tears it down
// on request. Every teardown starts a new epoch; solid handles minted in an
// earlier epoch are rejected by the new arena.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrTornDown is returned to callers whose initialization was overtaken by
// a Teardown.
var ErrTornDown = errors.New("session: torn down during initialization")

// State is the kernel lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Factory constructs a kernel instance.
type Factory func(ctx context.Context) (kernel.Kernel, error)

// Session holds one kernel instance and the arena of solids built with it.
type Session struct {
	id      string
	factory Factory
	logger  *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	state  State
	epoch  uint32
	kernel kernel.Kernel
	graph  *graph.Graph
}

// New returns an uninitialized session. A nil logger discards output.
func New(factory Factory, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.New().String()
	return &Session{
		id:      id,
		factory: factory,
		logger:  logger.With("session", id),
		epoch:   1,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Epoch returns the current generation. Handles carry the epoch that
// minted them.
func (s *Session) Epoch() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Init constructs the kernel if it is not ready yet. Concurrent calls
// share a single construction. A failed construction returns the session
// to the uninitialized state so a later call may retry.
func (s *Session) Init(ctx context.Context) error {
	if s.State() == StateReady {
		return nil
	}

	// The construction outlives any single waiter, so it does not run on
	// the caller's context; a waiter that gives up just stops waiting.
	ch := s.group.DoChan("init", func() (any, error) {
		return nil, s.construct()
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) construct() error {
	s.mu.Lock()
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInitializing
	epoch := s.epoch
	s.mu.Unlock()

	s.logger.Debug("session: initializing kernel", "epoch", epoch)
	k, err := s.factory(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Teardown already reset the state.
		return ErrTornDown
	}
	if err != nil {
		s.state = StateUninitialized
		s.logger.Error("session: kernel init failed", "error", err)
		return fmt.Errorf("session: init kernel: %w", err)
	}
	s.kernel = k
	s.graph = graph.New(epoch)
	s.state = StateReady
	s.logger.Info("session: kernel ready", "backend", k.Name(), "epoch", epoch)
	return nil
}

// Acquire returns the ready kernel and its arena, initializing lazily.
func (s *Session) Acquire(ctx context.Context) (kernel.Kernel, *graph.Graph, error) {
	if err := s.Init(ctx); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, nil, ErrTornDown
	}
	return s.kernel, s.graph, nil
}

// Teardown releases the kernel and its solids and returns the session to
// the uninitialized state under a new epoch. It is safe to call repeatedly.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = StateUninitialized
	s.kernel = nil
	s.graph = nil
	s.epoch++
	// Later callers start a fresh construction instead of joining one
	// that will be discarded.
	s.group.Forget("init")
	s.logger.Info("session: torn down", "previous", prev.String(), "epoch", s.epoch)
}
