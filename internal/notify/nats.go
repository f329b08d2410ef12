package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/logfields"
)

// DefaultSubject is where transitions are published.
const DefaultSubject = "digivice.transitions"

const publishTimeout = 5 * time.Second

// publishFunc abstracts core NATS and JetStream publishing.
type publishFunc func(ctx context.Context, subject string, data []byte) error

// NATSPublisher publishes transitions as JSON messages.
type NATSPublisher struct {
	publish publishFunc
	subject string
}

// NewNATSPublisher publishes on conn. With jetStream set, messages go through
// JetStream and are acknowledged by a stream bound to the subject.
func NewNATSPublisher(conn *nats.Conn, subject string, jetStream bool) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if !jetStream {
		return &NATSPublisher{
			subject: subject,
			publish: func(_ context.Context, subj string, data []byte) error {
				return conn.Publish(subj, data)
			},
		}, nil
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTransport, "failed to create JetStream context").Build()
	}
	return &NATSPublisher{
		subject: subject,
		publish: func(ctx context.Context, subj string, data []byte) error {
			_, err := js.Publish(ctx, subj, data)
			return err
		},
	}, nil
}

func (p *NATSPublisher) Notify(ctx context.Context, t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.InternalError("failed to marshal transition").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.publish(ctx, p.subject, data); err != nil {
		return errors.TransportError("failed to publish transition").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	slog.Debug("Published transition",
		logfields.Subject(p.subject),
		logfields.FromStage(t.From.String()),
		logfields.ToStage(t.To.String()))
	return nil
}
