package pet

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/stage"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRand() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func TestRecordEvent(t *testing.T) {
	s := State{Form: stage.Agumon, StartedAt: epoch}
	rewards := DefaultRewards()

	s.RecordEvent(EventHandshake, rewards.For(EventHandshake))
	s.RecordEvent(EventAssociation, rewards.For(EventAssociation))
	s.RecordEvent(EventDeauthentication, rewards.For(EventDeauthentication))
	s.RecordEvent(EventDeauthentication, rewards.For(EventDeauthentication))

	assert.Equal(t, 1, s.HandshakeCount)
	assert.Equal(t, 1, s.AssociationCount)
	assert.Equal(t, 2, s.DeauthCount)
	assert.InDelta(t, 1.5+0.8+1.2+1.2, s.Experience, 1e-9)
	assert.True(t, s.Dirty())

	s.MarkClean()
	assert.False(t, s.Dirty())
}

func TestDirtyOnReturnedValue(t *testing.T) {
	snapshot := func() State {
		s := State{Form: stage.Gabumon}
		s.RecordEvent(EventHandshake, 1.5)
		return s
	}
	assert.True(t, snapshot().Dirty())
	assert.False(t, State{}.Dirty())
}

func TestRecordEventIgnoresNegativeDelta(t *testing.T) {
	s := State{Experience: 10}
	s.RecordEvent(EventHandshake, -5)
	assert.Equal(t, 10.0, s.Experience)
	assert.Equal(t, 1, s.HandshakeCount)
}

func TestParseEventKind(t *testing.T) {
	for raw, want := range map[string]EventKind{
		"handshake":        EventHandshake,
		"ASSOC":            EventAssociation,
		" deauth ":         EventDeauthentication,
		"deauthentication": EventDeauthentication,
	} {
		got, err := ParseEventKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseEventKind("probe")
	assert.Error(t, err)
}

func TestAgeDays(t *testing.T) {
	s := State{StartedAt: epoch}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"same instant", epoch, 0},
		{"just under a day", epoch.Add(23*time.Hour + 59*time.Minute), 0},
		{"exactly one day", epoch.Add(24 * time.Hour), 1},
		{"two and a half days", epoch.Add(60 * time.Hour), 2},
		{"clock skew", epoch.Add(-72 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := AgeDays(s, tt.now)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, AgeDays(s, tt.now), "idempotent for same now")
			assert.GreaterOrEqual(t, first, 0)
		})
	}
}

func TestIsExpired(t *testing.T) {
	s := State{StartedAt: epoch}
	assert.False(t, IsExpired(s, epoch.Add(14*day), 15))
	assert.True(t, IsExpired(s, epoch.Add(15*day), 15))
	assert.True(t, IsExpired(s, epoch.Add(16*day), 15))
}

func TestFreshAndReset(t *testing.T) {
	rng := testRand()

	s := Fresh("gabumon", epoch, rng)
	assert.Equal(t, stage.Gabumon, s.Form)
	assert.Equal(t, epoch, s.StartedAt)
	assert.NotEmpty(t, s.LifecycleID)

	s.RecordEvent(EventHandshake, 100)
	s.Form = stage.Garurumon
	oldID := s.LifecycleID

	later := epoch.Add(16 * day)
	s.Reset(later, rng)
	assert.True(t, s.Form.IsStarter())
	assert.Zero(t, s.Experience)
	assert.Zero(t, s.HandshakeCount+s.AssociationCount+s.DeauthCount)
	assert.Equal(t, later, s.StartedAt)
	assert.NotEqual(t, oldID, s.LifecycleID)
}

func TestPickStarterRandomCoversAllStarters(t *testing.T) {
	rng := testRand()
	seen := map[stage.Stage]bool{}
	for range 200 {
		seen[PickStarter("random", rng)] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, stage.Betamon, PickStarter("Betamon", rng))
	assert.True(t, PickStarter("greymon", rng).IsStarter(), "invalid starter option means random")
}
