// Package activity drives what a character is doing from tick to tick.
//
// An Activity is a plain value. Advancing it returns the next value of the
// activity and of the body it acts on, so controllers can be copied,
// compared and saved without sharing state.
package activity

import (
	"fmt"
	"math"
	"time"
)

// Movement speeds in world units per second.
const (
	WalkSpeed = 1.5
	RunSpeed  = 5.0

	// ArrivalRadius is how close GoTo has to get, ignoring height.
	ArrivalRadius = 0.1

	// JumpAirtime is how long a jump keeps the body airborne.
	JumpAirtime = 500 * time.Millisecond
)

// Vec3 is a world position.
type Vec3 struct {
	X, Y, Z float32
}

// Body is the part of a character an activity moves.
type Body struct {
	Position Vec3
	Heading  float32 // degrees
	Moving   bool
	Running  bool
	Airborne bool
	Alive    bool
}

// Kind selects the variant of an Activity.
type Kind uint8

const (
	// None is the idle activity.
	None Kind = iota
	GoTo
	Jump
	Wait
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case GoTo:
		return "GoTo"
	case Jump:
		return "Jump"
	case Wait:
		return "Wait"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Activity is one unit of character behaviour.
type Activity struct {
	Kind   Kind
	Target Vec3
	Sprint bool
	// Remaining is the time left for Wait and for an airborne Jump.
	Remaining time.Duration
	Jumped    bool
}

// GoToActivity walks (or sprints) to target, ignoring height.
func GoToActivity(target Vec3, sprint bool) Activity {
	return Activity{Kind: GoTo, Target: target, Sprint: sprint}
}

// JumpActivity jumps once and finishes on landing.
func JumpActivity() Activity {
	return Activity{Kind: Jump}
}

// WaitActivity does nothing for d.
func WaitActivity(d time.Duration) Activity {
	return Activity{Kind: Wait, Remaining: d}
}

// Name returns the activity name.
func (a Activity) Name() string {
	return a.Kind.String()
}

// Idle reports whether there is no activity.
func (a Activity) Idle() bool {
	return a.Kind == None
}

// CanSkip reports whether the activity may be cancelled. A jump in the air
// has to land first.
func (a Activity) CanSkip() bool {
	return !(a.Kind == Jump && a.Jumped)
}

// Step advances a by dt and returns the updated activity and body, and
// whether the activity finished.
func (a Activity) Step(b Body, dt time.Duration) (Activity, Body, bool) {
	switch a.Kind {
	case GoTo:
		return a.stepGoTo(b, dt)
	case Jump:
		return a.stepJump(b, dt)
	case Wait:
		a.Remaining -= dt
		return a, b, a.Remaining <= 0
	default:
		return a, b, false
	}
}

func (a Activity) stepGoTo(b Body, dt time.Duration) (Activity, Body, bool) {
	dx := float64(a.Target.X - b.Position.X)
	dy := float64(a.Target.Y - b.Position.Y)
	dist := math.Hypot(dx, dy)

	speed := WalkSpeed
	if a.Sprint {
		speed = RunSpeed
	}
	step := speed * dt.Seconds()

	if dist < ArrivalRadius || step >= dist {
		b.Position.X, b.Position.Y = a.Target.X, a.Target.Y
		b.Moving, b.Running = false, false
		return a, b, true
	}

	b.Heading = float32(math.Atan2(dy, dx)*180/math.Pi - 90)
	b.Position.X += float32(dx / dist * step)
	b.Position.Y += float32(dy / dist * step)
	b.Moving, b.Running = true, a.Sprint
	return a, b, false
}

func (a Activity) stepJump(b Body, dt time.Duration) (Activity, Body, bool) {
	if !a.Jumped {
		a.Jumped = true
		a.Remaining = JumpAirtime
		b.Airborne = true
		return a, b, false
	}
	a.Remaining -= dt
	if a.Remaining <= 0 {
		b.Airborne = false
		return a, b, true
	}
	return a, b, false
}
