package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/lifecycle"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/restart"
	"git.home.luguber.info/inful/digivice/internal/stage"
	"git.home.luguber.info/inful/digivice/internal/state"
)

type chanSource struct {
	events chan pet.EventKind
}

func newChanSource() *chanSource { return &chanSource{events: make(chan pet.EventKind, 8)} }

func (c *chanSource) Name() string { return "test" }

func (c *chanSource) Start(ctx context.Context, sink Sink) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case k := <-c.events:
				sink(k)
			}
		}
	}()
	return nil
}

func (c *chanSource) Stop() error { return nil }

type failingLoadGateway struct{ state.Gateway }

func (failingLoadGateway) Load(context.Context) foundation.Result[pet.State, error] {
	return foundation.Err[pet.State, error](stderrors.New("disk on fire"))
}

func newController(t *testing.T, startedAgo time.Duration, lifespan int) (*lifecycle.Controller, *restart.Noop) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digivice_data.json")
	data, err := json.Marshal(map[string]any{
		"exp":             1498.5,
		"current_form":    "agumon",
		"start_time":      time.Now().Add(-startedAgo).Format(time.RFC3339),
		"assoc_count":     0,
		"deauth_count":    40,
		"handshake_count": 79,
		"lifecycle_id":    "daemon-test",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	restarter := &restart.Noop{}
	ctrl := lifecycle.New(lifecycle.Deps{
		Gateway:   state.NewFileGateway(path, state.Defaults{}),
		Restarter: restarter,
		Rand:      rand.New(rand.NewPCG(3, 4)),
	}, lifecycle.Settings{LifespanDays: lifespan})
	return ctrl, restarter
}

func runAsync(t *testing.T, ctx context.Context, d *Daemon) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return done
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{TickInterval: time.Second})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDaemon))

	ctrl, _ := newController(t, 0, 15)
	_, err = New(Options{Controller: ctrl})
	require.Error(t, err)
}

func TestDaemonExitsAfterEvolutionRestart(t *testing.T) {
	ctrl, restarter := newController(t, 0, 15)
	src := newChanSource()
	d, err := New(Options{Controller: ctrl, TickInterval: time.Hour, Sources: []EventSource{src}})
	require.NoError(t, err)

	done := runAsync(t, t.Context(), d)
	src.events <- pet.EventHandshake

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not exit after restart")
	}
	assert.Equal(t, lifecycle.PhaseEvolving, ctrl.Phase())
	assert.NotEqual(t, stage.Agumon, ctrl.State().Form)
	assert.Equal(t, 1, restarter.Calls)
}

func TestDaemonStopsOnCancel(t *testing.T) {
	ctrl, restarter := newController(t, 0, 15)
	d, err := New(Options{Controller: ctrl, TickInterval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := runAsync(t, ctx, d)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.Zero(t, restarter.Calls)
	assert.Equal(t, lifecycle.PhaseStable, ctrl.Phase())
}

func TestDaemonCancelledBeforeLoadStopsCleanly(t *testing.T) {
	ctrl, restarter := newController(t, 0, 15)
	d, err := New(Options{Controller: ctrl, TickInterval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.NoError(t, d.Run(ctx))
	assert.Zero(t, restarter.Calls)
}

func TestDaemonLoadFailureIsWrapped(t *testing.T) {
	ctrl := lifecycle.New(lifecycle.Deps{Gateway: failingLoadGateway{}}, lifecycle.Settings{LifespanDays: 15})
	d, err := New(Options{Controller: ctrl, TickInterval: time.Hour})
	require.NoError(t, err)

	err = d.Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDaemon))
}

func TestDaemonTicksExpireThePet(t *testing.T) {
	ctrl, restarter := newController(t, 20*24*time.Hour, 15)
	d, err := New(Options{Controller: ctrl, TickInterval: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case err := <-runAsync(t, t.Context(), d):
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not expire the pet")
	}
	assert.Equal(t, lifecycle.PhaseExpired, ctrl.Phase())
	assert.Zero(t, ctrl.State().Experience)
	assert.Equal(t, 1, restarter.Calls)
}

func TestDaemonAppliesReloadedConfig(t *testing.T) {
	ctrl, _ := newController(t, 5*24*time.Hour, 15)
	cfgPath := filepath.Join(t.TempDir(), "digivice.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("life_span: 15\n"), 0o600))

	d, err := New(Options{
		Controller:   ctrl,
		TickInterval: 50 * time.Millisecond,
		ConfigPath:   cfgPath,
		Debounce:     20 * time.Millisecond,
	})
	require.NoError(t, err)
	done := runAsync(t, t.Context(), d)

	// Keep rewriting until the watcher is up and the shorter lifespan expires the pet.
	deadline := time.After(15 * time.Second)
	for {
		writeAtomic(t, cfgPath, "life_span: 3\n")
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, lifecycle.PhaseExpired, ctrl.Phase())
			assert.Equal(t, 3, ctrl.Settings().LifespanDays)
			return
		case <-deadline:
			t.Fatal("reloaded lifespan was never applied")
		case <-time.After(300 * time.Millisecond):
		}
	}
}
