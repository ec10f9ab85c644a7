package activity

import (
	"time"
)

// Controller holds the current activity and one queued activity.
type Controller struct {
	Current Activity
	Next    Activity
}

// SetNext queues a. An idle controller starts it immediately; otherwise it
// replaces whatever was queued.
func (c Controller) SetNext(a Activity) Controller {
	if c.Current.Idle() {
		c.Current = a
		c.Next = Activity{}
		return c
	}
	c.Next = a
	return c
}

// Skip cancels the current activity if it allows it. The queued activity
// stays queued.
func (c Controller) Skip() Controller {
	if !c.Current.Idle() && c.Current.CanSkip() {
		c.Current = Activity{}
	}
	return c
}

// Is reports whether the current activity is of kind k.
func (c Controller) Is(k Kind) bool {
	return c.Current.Kind == k
}

// Update advances the current activity. When it finishes the queued one
// takes its place. Dead bodies do not act.
func (c Controller) Update(b Body, dt time.Duration) (Controller, Body, bool) {
	if c.Current.Idle() || !b.Alive {
		return c, b, false
	}
	var done bool
	c.Current, b, done = c.Current.Step(b, dt)
	if done {
		c.Current, c.Next = c.Next, Activity{}
	}
	return c, b, done
}
