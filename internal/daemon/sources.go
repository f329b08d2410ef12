package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/logfields"
	"git.home.luguber.info/inful/digivice/internal/pet"
)

// Sink receives parsed network events. It blocks until the event is queued
// or the daemon stops.
type Sink func(kind pet.EventKind)

// EventSource feeds network events reported by the host into the daemon.
type EventSource interface {
	Name() string
	Start(ctx context.Context, sink Sink) error
	Stop() error
}

// ParseEventPayload accepts a bare kind ("handshake") or a JSON object with
// a "kind" (or "event") field.
func ParseEventPayload(data []byte) (pet.EventKind, error) {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, "{") {
		var msg struct {
			Kind  string `json:"kind"`
			Event string `json:"event"`
		}
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return "", fmt.Errorf("decode event: %w", err)
		}
		raw = msg.Kind
		if raw == "" {
			raw = msg.Event
		}
	}
	return pet.ParseEventKind(raw)
}

// NATSSource subscribes to the host's event subject.
type NATSSource struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATSSource creates a source reading subject on conn.
func NewNATSSource(conn *nats.Conn, subject string) *NATSSource {
	return &NATSSource{conn: conn, subject: subject}
}

func (s *NATSSource) Name() string { return "nats:" + s.subject }

func (s *NATSSource) Start(_ context.Context, sink Sink) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		kind, err := ParseEventPayload(msg.Data)
		if err != nil {
			slog.Warn("Ignoring malformed event message", logfields.Subject(msg.Subject), logfields.Error(err))
			return
		}
		sink(kind)
	})
	if err != nil {
		return errors.TransportError("failed to subscribe to event subject").
			WithCause(err).
			WithContext("subject", s.subject).
			Build()
	}
	s.sub = sub
	slog.Info("Subscribed to host events", logfields.Subject(s.subject))
	return nil
}

func (s *NATSSource) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

// ReaderSource reads one event kind per line, e.g. from stdin. Blank lines
// and lines starting with '#' are skipped.
type ReaderSource struct {
	name string
	r    io.Reader
	done chan struct{}
}

// NewReaderSource creates a line-oriented source.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, r: r, done: make(chan struct{})}
}

func (s *ReaderSource) Name() string { return s.name }

func (s *ReaderSource) Start(ctx context.Context, sink Sink) error {
	go func() {
		defer close(s.done)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			kind, err := ParseEventPayload([]byte(line))
			if err != nil {
				slog.Warn("Ignoring unknown event", slog.String("source", s.name), logfields.Error(err))
				continue
			}
			sink(kind)
		}
		if err := scanner.Err(); err != nil {
			slog.Error("Event reader failed", slog.String("source", s.name), logfields.Error(err))
		}
	}()
	return nil
}

// Stop does not interrupt a blocked read; the goroutine ends at EOF or on the
// next line after the context is cancelled.
func (s *ReaderSource) Stop() error { return nil }

// Done is closed once the reader is exhausted.
func (s *ReaderSource) Done() <-chan struct{} { return s.done }
