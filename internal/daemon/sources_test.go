package daemon

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/pet"
)

func TestParseEventPayload(t *testing.T) {
	tests := []struct {
		in   string
		want pet.EventKind
		ok   bool
	}{
		{"handshake", pet.EventHandshake, true},
		{"  DEAUTH \n", pet.EventDeauthentication, true},
		{`{"kind":"assoc"}`, pet.EventAssociation, true},
		{`{"event":"handshake","bssid":"aa:bb"}`, pet.EventHandshake, true},
		{`{"kind":`, "", false},
		{"beacon", "", false},
	}
	for _, tc := range tests {
		got, err := ParseEventPayload([]byte(tc.in))
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestReaderSource(t *testing.T) {
	src := NewReaderSource("stdin", strings.NewReader("handshake\n\n# comment\nbogus\nassoc\ndeauthentication\n"))

	var got []pet.EventKind
	require.NoError(t, src.Start(t.Context(), func(k pet.EventKind) { got = append(got, k) }))

	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reader source did not finish")
	}
	assert.Equal(t, []pet.EventKind{pet.EventHandshake, pet.EventAssociation, pet.EventDeauthentication}, got)
	assert.NoError(t, src.Stop())
	assert.Equal(t, "stdin", src.Name())
}
