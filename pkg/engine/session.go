// Package engine drives a script machine and its world from a game loop.
//
// A Session steps the machine and the world together. RunHeadless drives a
// session with a fixed tick and no window; Run opens an ebiten window with
// a thread overlay.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zurustar/scmvm/pkg/logger"
	"github.com/zurustar/scmvm/pkg/vm"
	"github.com/zurustar/scmvm/pkg/world"
)

// Session is one running game: a machine, the world its handlers act on
// and the tick count.
type Session struct {
	machine *vm.Machine
	world   *world.World
	ticks   int
	elapsed time.Duration

	// keepGoing logs fatal thread errors instead of stopping the session.
	keepGoing bool
	log       *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithKeepGoing makes fatal thread errors non-terminal: the faulted thread
// stays parked and the remaining threads keep running.
func WithKeepGoing(enabled bool) Option {
	return func(s *Session) {
		s.keepGoing = enabled
	}
}

// NewSession pairs m with w. w may be nil for machines without world
// opcodes.
func NewSession(m *vm.Machine, w *world.World, opts ...Option) *Session {
	s := &Session{
		machine: m,
		world:   w,
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Machine returns the script machine.
func (s *Session) Machine() *vm.Machine {
	return s.machine
}

// World returns the world, or nil.
func (s *Session) World() *world.World {
	return s.world
}

// Ticks returns the number of completed steps.
func (s *Session) Ticks() int {
	return s.ticks
}

// Elapsed returns the game time stepped so far.
func (s *Session) Elapsed() time.Duration {
	return s.elapsed
}

// Finished reports whether no threads are left to run.
func (s *Session) Finished() bool {
	return s.machine.ThreadCount() == 0
}

// Step runs one tick of dt: scripts first, then the world.
func (s *Session) Step(dt time.Duration) error {
	if err := s.machine.Execute(dt); err != nil {
		if !s.keepGoing {
			return fmt.Errorf("tick %d: %w", s.ticks, err)
		}
		s.log.Error("Thread stopped", "tick", s.ticks, "error", err)
	}
	if s.world != nil {
		s.world.Update(dt)
	}
	s.ticks++
	s.elapsed += dt
	return nil
}
