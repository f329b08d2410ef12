package pet

import (
	"fmt"
	"strings"
)

// EventKind is an externally reported network event.
type EventKind string

const (
	EventAssociation      EventKind = "association"
	EventDeauthentication EventKind = "deauthentication"
	EventHandshake        EventKind = "handshake"
)

// EventKinds lists every kind in a stable order.
func EventKinds() []EventKind {
	return []EventKind{EventAssociation, EventDeauthentication, EventHandshake}
}

// ParseEventKind accepts the full names and the short aliases used by hosts
// (assoc, deauth).
func ParseEventKind(raw string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "association", "assoc":
		return EventAssociation, nil
	case "deauthentication", "deauth":
		return EventDeauthentication, nil
	case "handshake":
		return EventHandshake, nil
	}
	return "", fmt.Errorf("unknown event kind %q", raw)
}

// Rewards is the experience granted per event kind.
type Rewards map[EventKind]float64

// DefaultRewards matches the plugin's tuning.
func DefaultRewards() Rewards {
	return Rewards{
		EventHandshake:        1.5,
		EventAssociation:      0.8,
		EventDeauthentication: 1.2,
	}
}

// For returns the reward for kind, or 0 when untuned.
func (r Rewards) For(kind EventKind) float64 {
	return r[kind]
}

// RecordEvent increments the counter matching kind and adds xpDelta to the
// experience. Negative deltas count as zero so experience never decreases.
func (s *State) RecordEvent(kind EventKind, xpDelta float64) {
	switch kind {
	case EventAssociation:
		s.AssociationCount++
	case EventDeauthentication:
		s.DeauthCount++
	case EventHandshake:
		s.HandshakeCount++
	}
	if xpDelta > 0 {
		s.Experience += xpDelta
	}
	s.dirty = true
}
