// Package notify announces lifecycle transitions (evolutions and resets) to
// the display and to external subscribers.
package notify

import (
	"context"
	stderrors "errors"
	"time"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Kind classifies a transition.
type Kind string

const (
	KindEvolved Kind = "evolved"
	KindReset   Kind = "reset"
)

// DefaultEvolveIcon is shown while the host restarts.
const DefaultEvolveIcon = "/custom-faces/evolve.png"

// EvolvingMessage is the status text shown during a transition.
const EvolvingMessage = "Evolving..."

// Transition describes a change of form that ends the current process.
type Transition struct {
	Kind        Kind        `json:"kind"`
	LifecycleID string      `json:"lifecycle_id"`
	From        stage.Stage `json:"from"`
	To          stage.Stage `json:"to"`
	Experience  float64     `json:"experience"`
	AgeDays     int         `json:"age_days"`
	At          time.Time   `json:"at"`
}

// Notifier receives transitions.
type Notifier interface {
	Notify(ctx context.Context, t Transition) error
}

// DisplayNotifier shows the transitional status and icon on a surface.
type DisplayNotifier struct {
	Surface display.Surface
	Icon    string
}

// NewDisplayNotifier creates a DisplayNotifier. An empty icon means DefaultEvolveIcon.
func NewDisplayNotifier(surface display.Surface, icon string) *DisplayNotifier {
	if icon == "" {
		icon = DefaultEvolveIcon
	}
	return &DisplayNotifier{Surface: surface, Icon: icon}
}

func (d *DisplayNotifier) Notify(_ context.Context, _ Transition) error {
	display.ShowTransition(d.Surface, display.Transition{Message: EvolvingMessage, Icon: d.Icon})
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, t Transition) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Noop discards transitions.
type Noop struct{}

func (Noop) Notify(context.Context, Transition) error { return nil }
