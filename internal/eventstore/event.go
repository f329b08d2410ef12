package eventstore

import "time"

// Event is one entry of the pet's history.
type Event interface {
	// ID returns the row identifier, zero until stored.
	ID() int64
	// LifecycleID returns the lifecycle this event belongs to.
	LifecycleID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as JSON bytes.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID          int64
	EventLifecycleID string
	EventType        string
	EventTimestamp   time.Time
	EventPayload     []byte
	EventMetadata    map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) LifecycleID() string         { return e.EventLifecycleID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
