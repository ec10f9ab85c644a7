// Package world is the in-memory game world scripts act on.
//
// It owns the characters created by scripts, remembers which of them belong
// to the running mission, and tracks whether the player has been wasted or
// busted. A World satisfies vm.Environment and contributes the "World"
// opcode module.
package world

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/zurustar/scmvm/pkg/activity"
	"github.com/zurustar/scmvm/pkg/logger"
)

// GroundLevel is the height used when a script asks for a character to be
// placed on the ground (z <= -100).
const GroundLevel = 0

// Character is a pedestrian placed by a script.
type Character struct {
	PedType    int32
	Model      int32
	Body       activity.Body
	Controller activity.Controller
	Mission    bool
}

// World holds every scripted object.
type World struct {
	characters Pool[Character]
	mission    []Handle
	wasted     bool
	busted     bool
	log        *slog.Logger
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateCharacter places a live character at pos. Mission characters are
// removed by CleanupMission.
func (w *World) CreateCharacter(pedType, model int32, pos activity.Vec3, mission bool) (Handle, error) {
	if pos.Z <= -100 {
		pos.Z = GroundLevel
	}
	h := w.characters.Insert(Character{
		PedType: pedType,
		Model:   model,
		Body:    activity.Body{Position: pos, Alive: true},
		Mission: mission,
	})
	if h == NoHandle {
		return NoHandle, fmt.Errorf("character pool full (%d objects)", w.characters.Len())
	}
	if mission {
		w.mission = append(w.mission, h)
	}
	w.log.Debug("Character created", "handle", int32(h), "type", pedType, "model", model, "mission", mission)
	return h, nil
}

// Character resolves h.
func (w *World) Character(h Handle) (*Character, bool) {
	return w.characters.Get(h)
}

// DeleteCharacter removes the character behind h.
func (w *World) DeleteCharacter(h Handle) bool {
	if !w.characters.Remove(h) {
		return false
	}
	w.mission = slices.DeleteFunc(w.mission, func(m Handle) bool { return m == h })
	w.log.Debug("Character deleted", "handle", int32(h))
	return true
}

// CharacterCount returns the number of live characters.
func (w *World) CharacterCount() int {
	return w.characters.Len()
}

// Characters returns the handles of every live character.
func (w *World) Characters() []Handle {
	out := make([]Handle, 0, w.characters.Len())
	for h := range w.characters.All() {
		out = append(out, h)
	}
	return out
}

// MissionObjects returns the handles CleanupMission would remove.
func (w *World) MissionObjects() []Handle {
	return slices.Clone(w.mission)
}

// CleanupMission destroys every object created by mission threads.
func (w *World) CleanupMission() {
	n := 0
	for _, h := range w.mission {
		if w.characters.Remove(h) {
			n++
		}
	}
	w.mission = w.mission[:0]
	w.log.Info("Mission cleaned up", "removed", n)
}

// SetPlayerWasted records that the player died.
func (w *World) SetPlayerWasted(v bool) {
	w.wasted = v
}

// SetPlayerBusted records that the player was arrested.
func (w *World) SetPlayerBusted(v bool) {
	w.busted = v
}

// PlayerWasted reports whether the player died.
func (w *World) PlayerWasted() bool {
	return w.wasted
}

// PlayerBusted reports whether the player was arrested.
func (w *World) PlayerBusted() bool {
	return w.busted
}

// PlayerWastedOrBusted reports whether the player died or was arrested.
func (w *World) PlayerWastedOrBusted() bool {
	return w.wasted || w.busted
}

// Update advances every character's activity by dt.
func (w *World) Update(dt time.Duration) {
	for h, c := range w.characters.All() {
		var done bool
		c.Controller, c.Body, done = c.Controller.Update(c.Body, dt)
		if done {
			w.log.Debug("Activity finished", "handle", int32(h), "next", c.Controller.Current.Name())
		}
	}
}
