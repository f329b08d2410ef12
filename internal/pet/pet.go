// Package pet holds the pet's mutable state: the counter store, the age
// tracker and the fresh-lifecycle constructor.
package pet

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/digivice/internal/stage"
)

// State is the single pet owned by the lifecycle controller.
type State struct {
	Form             stage.Stage
	Experience       float64
	StartedAt        time.Time
	AssociationCount int
	DeauthCount      int
	HandshakeCount   int

	// LifecycleID tags history records of one lifecycle. It is regenerated on reset.
	LifecycleID string

	dirty bool
}

// NewLifecycleID returns a fresh lifecycle identifier.
func NewLifecycleID() string {
	return uuid.NewString()
}

// PickStarter resolves a starter option to a rookie form. "random" (or
// anything unrecognized) draws uniformly from the starters.
func PickStarter(option string, rng *rand.Rand) stage.Stage {
	if name := stage.ParseStarter(option); name != stage.Random {
		return stage.Stage(name)
	}
	starters := stage.Starters()
	return starters[rng.IntN(len(starters))]
}

// Fresh creates a new lifecycle: starter form, zero experience and counters,
// started now.
func Fresh(starter string, now time.Time, rng *rand.Rand) State {
	return State{
		Form:        PickStarter(starter, rng),
		StartedAt:   now,
		LifecycleID: NewLifecycleID(),
		dirty:       true,
	}
}

// Reset reinitializes s in place as a new lifecycle with a random starter.
func (s *State) Reset(now time.Time, rng *rand.Rand) {
	*s = Fresh(stage.Random, now, rng)
}

// Dirty reports whether the state changed since the last MarkClean.
func (s State) Dirty() bool { return s.dirty }

// MarkClean records that the state has been flushed.
func (s *State) MarkClean() { s.dirty = false }

// MarkDirty flags the state for the next flush.
func (s *State) MarkDirty() { s.dirty = true }

// Evolve moves the pet into form.
func (s *State) Evolve(form stage.Stage) {
	s.Form = form
	s.dirty = true
}
