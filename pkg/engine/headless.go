package engine

import (
	"context"
	"errors"
	"time"
)

// HeadlessOptions configures RunHeadless.
type HeadlessOptions struct {
	// Tick is the game time advanced per step.
	Tick time.Duration
	// Ticks stops after this many steps, run back to back. With 0 the
	// session is paced in real time until it finishes or ctx ends.
	Ticks int
	// Timeout bounds the wall-clock run time; 0 means no limit.
	Timeout time.Duration
}

// RunHeadless steps s without a window. It returns nil when the step count
// is reached, every thread has ended, or the timeout expires.
func RunHeadless(ctx context.Context, s *Session, opts HeadlessOptions) error {
	if opts.Tick <= 0 {
		opts.Tick = 16 * time.Millisecond
	}

	// タイムアウト処理用のコンテキスト
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	s.log.Info("Headless run started", "tick", opts.Tick, "ticks", opts.Ticks, "timeout", opts.Timeout)

	var pace <-chan time.Time
	if opts.Ticks == 0 {
		ticker := time.NewTicker(opts.Tick)
		defer ticker.Stop()
		pace = ticker.C
	}

	for opts.Ticks == 0 || s.Ticks() < opts.Ticks {
		if s.Finished() {
			s.log.Info("All threads ended", "ticks", s.Ticks())
			return nil
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				return stopReason(s, ctx.Err())
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return stopReason(s, err)
		}

		if err := s.Step(opts.Tick); err != nil {
			return err
		}
	}

	s.log.Info("Headless run completed", "ticks", s.Ticks())
	return nil
}

// stopReason turns a timeout into a normal stop and passes cancellation on.
func stopReason(s *Session, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Info("Timeout reached, terminating", "ticks", s.Ticks())
		return nil
	}
	return err
}
