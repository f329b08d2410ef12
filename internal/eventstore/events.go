package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

// Event type names.
const (
	TypeLifecycleStarted = "LifecycleStarted"
	TypeEvolved          = "Evolved"
	TypeLifecycleEnded   = "LifecycleEnded"
)

// Reasons a lifecycle starts.
const (
	StartFresh  = "fresh"
	StartReinit = "reinit"
	StartReset  = "reset"
)

// LifecycleStarted is emitted when a new pet hatches.
type LifecycleStarted struct {
	BaseEvent
	Starter string `json:"starter"`
	Reason  string `json:"reason"`
}

// NewLifecycleStarted creates a LifecycleStarted event.
func NewLifecycleStarted(lifecycleID, starter, reason string, at time.Time) (*LifecycleStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"starter": starter,
		"reason":  reason,
	})
	if err != nil {
		return nil, ErrMarshalPayloadFailed.WithCause(err).WithContext("event_type", TypeLifecycleStarted)
	}

	return &LifecycleStarted{
		BaseEvent: BaseEvent{
			EventLifecycleID: lifecycleID,
			EventType:        TypeLifecycleStarted,
			EventTimestamp:   at,
			EventPayload:     payload,
		},
		Starter: starter,
		Reason:  reason,
	}, nil
}

// Progress captures the counters at the moment of a transition.
type Progress struct {
	Experience   float64 `json:"experience"`
	AgeDays      int     `json:"age_days"`
	Handshakes   int     `json:"handshakes"`
	Associations int     `json:"associations"`
	Deauths      int     `json:"deauths"`
}

// Evolved is emitted when the pet changes form.
type Evolved struct {
	BaseEvent
	From     string   `json:"from"`
	To       string   `json:"to"`
	Progress Progress `json:"progress"`
}

// NewEvolved creates an Evolved event.
func NewEvolved(lifecycleID, from, to string, progress Progress, at time.Time) (*Evolved, error) {
	payload, err := json.Marshal(map[string]any{
		"from":     from,
		"to":       to,
		"progress": progress,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal Evolved payload").
			WithCause(err).
			WithContext("lifecycle_id", lifecycleID).
			Build()
	}

	return &Evolved{
		BaseEvent: BaseEvent{
			EventLifecycleID: lifecycleID,
			EventType:        TypeEvolved,
			EventTimestamp:   at,
			EventPayload:     payload,
		},
		From:     from,
		To:       to,
		Progress: progress,
	}, nil
}

// LifecycleEnded is emitted when the pet reaches its maximum lifespan.
type LifecycleEnded struct {
	BaseEvent
	FinalForm string   `json:"final_form"`
	Progress  Progress `json:"progress"`
}

// NewLifecycleEnded creates a LifecycleEnded event.
func NewLifecycleEnded(lifecycleID, finalForm string, progress Progress, at time.Time) (*LifecycleEnded, error) {
	payload, err := json.Marshal(map[string]any{
		"final_form": finalForm,
		"progress":   progress,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal LifecycleEnded payload").
			WithCause(err).
			WithContext("lifecycle_id", lifecycleID).
			Build()
	}

	return &LifecycleEnded{
		BaseEvent: BaseEvent{
			EventLifecycleID: lifecycleID,
			EventType:        TypeLifecycleEnded,
			EventTimestamp:   at,
			EventPayload:     payload,
		},
		FinalForm: finalForm,
		Progress:  progress,
	}, nil
}
