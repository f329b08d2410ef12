package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/config"
	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/eventstore"
	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/metrics"
	"git.home.luguber.info/inful/digivice/internal/notify"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/restart"
	"git.home.luguber.info/inful/digivice/internal/stage"
	"git.home.luguber.info/inful/digivice/internal/state"
)

var now = time.Date(2026, 7, 20, 14, 5, 0, 0, time.UTC)

type faceLog struct{ applied []stage.Stage }

func (f *faceLog) Apply(_ context.Context, s stage.Stage) error {
	f.applied = append(f.applied, s)
	return nil
}

type countingRecorder struct {
	metrics.NoopRecorder
	persistence map[string]int
	evolutions  int
	resets      int
	restarts    int
}

func (r *countingRecorder) IncPersistenceFailure(op string) {
	if r.persistence == nil {
		r.persistence = map[string]int{}
	}
	r.persistence[op]++
}
func (r *countingRecorder) IncEvolution(string, string) { r.evolutions++ }
func (r *countingRecorder) IncLifecycleReset()          { r.resets++ }
func (r *countingRecorder) IncRestartFailure()          { r.restarts++ }

type failingSaveGateway struct{ state.Gateway }

func (failingSaveGateway) Save(context.Context, pet.State) foundation.Result[struct{}, error] {
	return foundation.Err[struct{}, error](state.ErrSnapshotWrite)
}

type harness struct {
	ctrl      *Controller
	gateway   *state.FileGateway
	clock     *clockwork.FakeClock
	faces     *faceLog
	restarter *restart.Noop
	surface   *display.Memory
	history   *eventstore.SQLiteStore
	recorder  *countingRecorder
}

type option func(*Deps, *Settings)

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	gateway := state.NewFileGateway(filepath.Join(t.TempDir(), "digivice_data.json"), state.Defaults{Now: clock.Now})
	history, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	h := &harness{
		gateway:   gateway,
		clock:     clock,
		faces:     &faceLog{},
		restarter: &restart.Noop{},
		surface:   display.NewMemory(),
		history:   history,
		recorder:  &countingRecorder{},
	}
	deps := Deps{
		Gateway:   gateway,
		Faces:     h.faces,
		Restarter: h.restarter,
		Surface:   h.surface,
		History:   history,
		Recorder:  h.recorder,
		Clock:     clock,
		Rand:      rand.New(rand.NewPCG(7, 11)),
	}
	deps.Notifier = notify.NewDisplayNotifier(h.surface, "")
	settings := Settings{
		Starter:      "random",
		LifespanDays: 15,
		Presenter:    display.Presenter{Digistats: true, XPBar: display.Point{X: 53, Y: 64}},
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}
	h.ctrl = New(deps, settings)
	return h
}

func (h *harness) writeSnapshot(t *testing.T, rec map[string]any) {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(h.gateway.Path(), data, 0o600))
}

func (h *harness) saved(t *testing.T) pet.State {
	t.Helper()
	s, err := h.gateway.Load(t.Context()).ToTuple()
	require.NoError(t, err)
	return s
}

func (h *harness) historyTypes(t *testing.T) []string {
	t.Helper()
	events, err := h.history.GetRange(t.Context(), time.Time{}, now.Add(365*24*time.Hour))
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
	}
	return types
}

func agumonSnapshot(startedAt time.Time) map[string]any {
	return map[string]any{
		"exp":             1498.5,
		"current_form":    "agumon",
		"start_time":      startedAt.Format(time.RFC3339),
		"assoc_count":     0,
		"deauth_count":    40,
		"handshake_count": 79,
		"lifecycle_id":    "old-life",
	}
}

func TestLoadMissingSnapshotHatchesStarter(t *testing.T) {
	h := newHarness(t, func(_ *Deps, s *Settings) { s.Starter = "gabumon" })

	require.NoError(t, h.ctrl.Load(t.Context()))

	got := h.ctrl.State()
	assert.Equal(t, stage.Gabumon, got.Form)
	assert.Zero(t, got.Experience)
	assert.True(t, now.Equal(got.StartedAt))
	assert.NotEmpty(t, got.LifecycleID)
	assert.Equal(t, PhaseStable, h.ctrl.Phase())

	assert.Equal(t, stage.Gabumon, h.saved(t).Form)
	assert.Equal(t, []stage.Stage{stage.Gabumon}, h.faces.applied)
	assert.Zero(t, h.restarter.Calls)
	assert.Equal(t, []string{eventstore.TypeLifecycleStarted}, h.historyTypes(t))
}

func TestLoadCorruptSnapshotReinitializes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.gateway.Path(), []byte("{not json"), 0o600))

	require.NoError(t, h.ctrl.Load(t.Context()))

	got := h.ctrl.State()
	assert.True(t, got.Form.IsStarter())
	assert.Equal(t, got.Form, h.saved(t).Form)
	assert.Len(t, h.faces.applied, 1)
	assert.Zero(t, h.restarter.Calls)
}

func TestLoadUnknownStageReinitializes(t *testing.T) {
	h := newHarness(t)
	snap := agumonSnapshot(now)
	snap["current_form"] = "patamon"
	h.writeSnapshot(t, snap)

	require.NoError(t, h.ctrl.Load(t.Context()))
	assert.True(t, h.ctrl.State().Form.IsStarter())
	assert.Zero(t, h.ctrl.State().HandshakeCount)
}

func TestLoadCancelledContextIsReturned(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.ErrorIs(t, h.ctrl.Load(ctx), context.Canceled)
	_, err := os.Stat(h.gateway.Path())
	assert.True(t, os.IsNotExist(err))
}

type failingFaces struct{ err error }

func (f failingFaces) Apply(context.Context, stage.Stage) error { return f.err }

func TestFaceResolutionFailureLogsError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"missing mapping", errors.ConfigResolutionError("missing face folder for stage").Build(), `"level":"ERROR"`},
		{"write failure", errors.PersistenceError("overlay write failed").Build(), `"level":"WARN"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := newHarness(t, func(d *Deps, _ *Settings) {
				d.Faces = failingFaces{err: tc.err}
				d.Logger = slog.New(slog.NewJSONHandler(&logs, nil))
			})
			require.NoError(t, h.ctrl.Load(t.Context()))
			assert.Contains(t, logs.String(), tc.level)
		})
	}
}

func TestEventBelowThresholdKeepsForm(t *testing.T) {
	h := newHarness(t)
	snap := agumonSnapshot(now)
	snap["exp"] = 100.0
	h.writeSnapshot(t, snap)
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.OnAssociation(t.Context())
	h.ctrl.OnDeauthentication(t.Context())

	got := h.ctrl.State()
	assert.Equal(t, stage.Agumon, got.Form)
	assert.InDelta(t, 102.0, got.Experience, 1e-9)
	assert.Equal(t, 1, got.AssociationCount)
	assert.Equal(t, 41, got.DeauthCount)
	assert.Equal(t, 41, h.saved(t).DeauthCount)
	assert.False(t, h.ctrl.Done())
}

func TestEventTriggersEvolution(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-48*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.OnHandshake(t.Context())

	got := h.ctrl.State()
	assert.Contains(t, []stage.Stage{stage.Greymon, stage.Tyrannomon, stage.Numemon}, got.Form)
	assert.InDelta(t, 1500.0, got.Experience, 1e-9)
	assert.Equal(t, 80, got.HandshakeCount)

	assert.Equal(t, PhaseEvolving, h.ctrl.Phase())
	assert.True(t, h.ctrl.Done())
	assert.Equal(t, 1, h.restarter.Calls)
	assert.Equal(t, 1, h.recorder.evolutions)
	assert.Equal(t, got.Form, h.saved(t).Form)
	assert.Equal(t, []stage.Stage{got.Form}, h.faces.applied)

	status, _ := h.surface.Field(display.FieldStatus)
	assert.Equal(t, notify.EvolvingMessage, status)
	assert.Equal(t, []string{eventstore.TypeEvolved}, h.historyTypes(t))

	// Terminal for this process: further events are ignored.
	h.ctrl.OnHandshake(t.Context())
	h.ctrl.Tick(t.Context())
	assert.Equal(t, 80, h.ctrl.State().HandshakeCount)
	assert.Equal(t, 1, h.restarter.Calls)
}

func TestTickRendersDisplay(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-3*24*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.Tick(t.Context())

	fields := h.surface.Snapshot()
	assert.Equal(t, "Agumon", fields[display.FieldCurrentForm])
	assert.Equal(t, "02:05 PM", fields[display.FieldClock])
	assert.Equal(t, "3A", fields[display.FieldAge])
	assert.Equal(t, "79", fields[display.FieldHandshakes])
	assert.Equal(t, "99%", fields[display.FieldXPCount])
	assert.Equal(t, "54,65,113,71", fields[display.FieldXPBarFill])
	assert.False(t, h.ctrl.Done())
}

func TestTickResetsAfterLifespan(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-16*24*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.Tick(t.Context())

	got := h.ctrl.State()
	assert.True(t, got.Form.IsStarter())
	assert.Zero(t, got.Experience)
	assert.Zero(t, got.HandshakeCount)
	assert.Zero(t, got.DeauthCount)
	assert.Zero(t, got.AssociationCount)
	assert.True(t, now.Equal(got.StartedAt))
	assert.NotEqual(t, "old-life", got.LifecycleID)

	assert.Equal(t, PhaseExpired, h.ctrl.Phase())
	assert.Equal(t, 1, h.restarter.Calls)
	assert.Equal(t, 1, h.recorder.resets)
	assert.Zero(t, h.saved(t).HandshakeCount)
	assert.Equal(t, []string{eventstore.TypeLifecycleEnded, eventstore.TypeLifecycleStarted}, h.historyTypes(t))
}

func TestTickBeforeLifespanDoesNotReset(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-14*24*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.Tick(t.Context())
	assert.Equal(t, stage.Agumon, h.ctrl.State().Form)

	h.clock.Advance(24 * time.Hour)
	h.ctrl.Tick(t.Context())
	assert.Equal(t, PhaseExpired, h.ctrl.Phase())
}

func TestRestartFailureRetriesOnNextTick(t *testing.T) {
	attempts := 0
	h := newHarness(t, func(d *Deps, _ *Settings) {
		d.Restarter = restart.Func(func(context.Context) error {
			attempts++
			if attempts == 1 {
				return stderrors.New("systemctl missing")
			}
			return nil
		})
	})
	h.writeSnapshot(t, agumonSnapshot(now))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.OnHandshake(t.Context())
	assert.Equal(t, PhaseStable, h.ctrl.Phase())
	assert.True(t, h.ctrl.RestartPending())
	assert.Equal(t, 1, h.recorder.restarts)
	assert.NotEqual(t, stage.Agumon, h.ctrl.State().Form)

	h.ctrl.Tick(t.Context())
	assert.Equal(t, 2, attempts)
	assert.Equal(t, PhaseEvolving, h.ctrl.Phase())
	assert.False(t, h.ctrl.RestartPending())
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now))
	ctrl := New(Deps{
		Gateway:  failingSaveGateway{h.gateway},
		Clock:    h.clock,
		Recorder: h.recorder,
		Rand:     rand.New(rand.NewPCG(1, 1)),
	}, Settings{LifespanDays: 15})
	require.NoError(t, ctrl.Load(t.Context()))

	ctrl.OnAssociation(t.Context())

	assert.Equal(t, 1, ctrl.State().AssociationCount)
	assert.True(t, ctrl.State().Dirty())
	assert.Equal(t, 1, h.recorder.persistence["snapshot"])
	assert.Zero(t, h.saved(t).AssociationCount)
}

func TestResetWithoutRestart(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-24*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	h.ctrl.Reset(t.Context(), false)

	assert.True(t, h.ctrl.State().Form.IsStarter())
	assert.Zero(t, h.ctrl.State().Experience)
	assert.Equal(t, PhaseStable, h.ctrl.Phase())
	assert.Zero(t, h.restarter.Calls)
	assert.Equal(t, 1, h.recorder.resets)
}

func TestApplySettingsChangesLifespan(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now.Add(-5*24*time.Hour)))
	require.NoError(t, h.ctrl.Load(t.Context()))

	settings := h.ctrl.Settings()
	settings.LifespanDays = 5
	h.ctrl.Apply(settings)

	h.ctrl.Tick(t.Context())
	assert.Equal(t, PhaseExpired, h.ctrl.Phase())
}

func TestExplainReportsCurrentRule(t *testing.T) {
	h := newHarness(t)
	h.writeSnapshot(t, agumonSnapshot(now))
	require.NoError(t, h.ctrl.Load(t.Context()))

	rep := h.ctrl.Explain()
	assert.Equal(t, stage.Agumon, rep.Form)
	assert.False(t, rep.XPReached)
	assert.NotEmpty(t, rep.Candidates)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("life_span: 9\ndigistats: false\nrewards:\n  handshake: 3\n"))
	require.NoError(t, err)

	s := SettingsFromConfig(cfg)
	assert.Equal(t, 9, s.LifespanDays)
	assert.False(t, s.Presenter.Digistats)
	assert.Equal(t, display.Point{X: 53, Y: 64}, s.Presenter.XPBar)
	assert.InDelta(t, 3.0, s.Rewards.For(pet.EventHandshake), 1e-9)
}
