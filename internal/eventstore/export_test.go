package eventstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	started, err := NewLifecycleStarted(testLifecycleID, "agumon", StartFresh, epoch)
	require.NoError(t, err)
	evolved, err := NewEvolved(testLifecycleID, "agumon", "greymon",
		Progress{Experience: 1500, AgeDays: 2, Handshakes: 40, Associations: 3, Deauths: 1}, epoch)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Event{started, evolved}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,timestamp,lifecycle_id,type,from,to,experience,age_days,handshakes,associations,deauths", lines[0])

	var rows []*Record
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "agumon", rows[0].To)
	assert.Empty(t, rows[0].From)
	assert.Equal(t, TypeEvolved, rows[1].Type)
	assert.Equal(t, "greymon", rows[1].To)
	assert.Equal(t, 40, rows[1].Handshakes)
	assert.Equal(t, "2026-05-01T08:00:00Z", rows[1].Timestamp)
}

func TestToRecordIgnoresBadPayload(t *testing.T) {
	rec := ToRecord(&BaseEvent{EventLifecycleID: "x", EventType: TypeEvolved, EventTimestamp: epoch, EventPayload: []byte("nope")})
	assert.Equal(t, "x", rec.LifecycleID)
	assert.Empty(t, rec.To)
}
