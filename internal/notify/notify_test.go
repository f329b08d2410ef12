package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

var sample = Transition{
	Kind:        KindEvolved,
	LifecycleID: "life",
	From:        stage.Agumon,
	To:          stage.Greymon,
	Experience:  1502,
	AgeDays:     4,
	At:          time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestDisplayNotifier(t *testing.T) {
	mem := display.NewMemory()
	require.NoError(t, NewDisplayNotifier(mem, "").Notify(t.Context(), sample))

	status, _ := mem.Field(display.FieldStatus)
	face, _ := mem.Field(display.FieldFace)
	assert.Equal(t, EvolvingMessage, status)
	assert.Equal(t, DefaultEvolveIcon, face)
}

type recordingNotifier struct {
	got []Transition
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, t Transition) error {
	r.got = append(r.got, t)
	return r.err
}

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	boom := stderrors.New("boom")
	a := &recordingNotifier{err: boom}
	b := &recordingNotifier{}

	err := Multi{a, b}.Notify(t.Context(), sample)
	require.ErrorIs(t, err, boom)
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestNATSPublisherMarshalsTransition(t *testing.T) {
	var subject string
	var payload []byte
	p := &NATSPublisher{
		subject: DefaultSubject,
		publish: func(_ context.Context, subj string, data []byte) error {
			subject, payload = subj, data
			return nil
		},
	}

	require.NoError(t, p.Notify(t.Context(), sample))
	assert.Equal(t, DefaultSubject, subject)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "evolved", decoded["kind"])
	assert.Equal(t, "agumon", decoded["from"])
	assert.Equal(t, "greymon", decoded["to"])
}

func TestNATSPublisherClassifiesFailures(t *testing.T) {
	p := &NATSPublisher{
		subject: "x",
		publish: func(context.Context, string, []byte) error { return stderrors.New("no responders") },
	}

	err := p.Notify(t.Context(), sample)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTransport))
}
