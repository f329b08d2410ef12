package lifecycle

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/eventstore"
	"git.home.luguber.info/inful/digivice/internal/evolution"
	"git.home.luguber.info/inful/digivice/internal/faces"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/logfields"
	"git.home.luguber.info/inful/digivice/internal/metrics"
	"git.home.luguber.info/inful/digivice/internal/notify"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/restart"
	"git.home.luguber.info/inful/digivice/internal/stage"
	"git.home.luguber.info/inful/digivice/internal/state"
)

// Phase is the controller's position in the process lifecycle.
type Phase string

const (
	PhaseStable   Phase = "stable"
	PhaseEvolving Phase = "evolving"
	PhaseExpired  Phase = "expired"
)

// Settings are the tunables that may change on config reload.
type Settings struct {
	Starter      string
	LifespanDays int
	Rewards      pet.Rewards
	Presenter    display.Presenter
}

// Deps are the controller's collaborators. Only Gateway is required.
type Deps struct {
	Gateway   state.Gateway
	Engine    *evolution.Engine
	Faces     faces.Applier
	Restarter restart.Restarter
	Surface   display.Surface
	Notifier  notify.Notifier
	History   eventstore.Store
	Recorder  metrics.Recorder
	Clock     clockwork.Clock
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// Controller orchestrates event -> counters -> evolution check -> transition.
type Controller struct {
	gateway   state.Gateway
	engine    *evolution.Engine
	faces     faces.Applier
	restarter restart.Restarter
	surface   display.Surface
	notifier  notify.Notifier
	history   eventstore.Store
	recorder  metrics.Recorder
	clock     clockwork.Clock
	rng       *rand.Rand
	logger    *slog.Logger

	settings Settings
	state    pet.State
	phase    Phase

	// pending is the phase awaiting a successful restart, empty when none.
	pending Phase
}

// New creates a controller. Missing collaborators get inert defaults.
func New(deps Deps, settings Settings) *Controller {
	if settings.Rewards == nil {
		settings.Rewards = pet.DefaultRewards()
	}
	c := &Controller{
		gateway:   deps.Gateway,
		engine:    deps.Engine,
		faces:     deps.Faces,
		restarter: deps.Restarter,
		surface:   deps.Surface,
		notifier:  deps.Notifier,
		history:   deps.History,
		recorder:  deps.Recorder,
		clock:     deps.Clock,
		rng:       deps.Rand,
		logger:    deps.Logger,
		settings:  settings,
		phase:     PhaseStable,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.rng == nil {
		seed := uint64(c.clock.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if c.engine == nil {
		c.engine = evolution.NewEngine(settings.LifespanDays, evolution.WithRand(c.rng))
	}
	if c.faces == nil {
		c.faces = faces.NoopApplier{}
	}
	if c.restarter == nil {
		c.restarter = &restart.Noop{}
	}
	if c.surface == nil {
		c.surface = display.LogSurface{Logger: c.logger}
	}
	if c.notifier == nil {
		c.notifier = notify.Noop{}
	}
	if c.recorder == nil {
		c.recorder = metrics.NoopRecorder{}
	}
	return c
}

// State returns a copy of the pet state.
func (c *Controller) State() pet.State { return c.state }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Done reports whether a restart has been triggered for this process.
func (c *Controller) Done() bool { return c.phase != PhaseStable }

// RestartPending reports whether a transition is waiting for a restart retry.
func (c *Controller) RestartPending() bool { return c.pending != "" }

// Settings returns the active settings.
func (c *Controller) Settings() Settings { return c.settings }

// Apply swaps in reloaded settings. Starter only affects future fresh lifecycles.
func (c *Controller) Apply(settings Settings) {
	if settings.Rewards == nil {
		settings.Rewards = pet.DefaultRewards()
	}
	c.settings = settings
	c.engine.SetLifespan(settings.LifespanDays)
	c.logger.Info("Settings applied",
		slog.Int("life_span", settings.LifespanDays),
		slog.Bool("digistats", settings.Presenter.Digistats))
}

// Explain reports how the pet currently measures against its rule.
func (c *Controller) Explain() evolution.Report {
	return c.engine.Explain(c.state, pet.AgeDays(c.state, c.clock.Now()))
}

// Load reads the snapshot. A missing or corrupt snapshot is replaced by a
// fresh lifecycle, which is persisted and gets its faces applied. Only
// failures unrelated to the snapshot content (e.g. a cancelled context) are
// returned.
func (c *Controller) Load(ctx context.Context) error {
	s, err := c.gateway.Load(ctx).ToTuple()
	if err == nil {
		c.state = s
		c.phase = PhaseStable
		if c.state.Dirty() {
			c.persist(ctx)
		}
		c.observe(c.clock.Now())
		c.logger.Info("Pet loaded",
			logfields.Stage(c.state.Form.String()),
			logfields.Experience(c.state.Experience),
			logfields.LifecycleID(c.state.LifecycleID))
		return nil
	}
	if !errors.HasCategory(err, errors.CategoryCorruptState) {
		return err
	}

	reason := eventstore.StartReinit
	if stderrors.Is(err, state.ErrSnapshotMissing) {
		reason = eventstore.StartFresh
		c.logger.Info("No snapshot found, hatching a new pet")
	} else {
		c.logger.Warn("Snapshot unusable, hatching a new pet", logfields.Error(err))
	}

	now := c.clock.Now()
	c.state = pet.Fresh(c.settings.Starter, now, c.rng)
	c.phase = PhaseStable
	c.persist(ctx)
	c.applyFaces(ctx)
	c.appendHistory(ctx, func() (eventstore.Event, error) {
		return eventstore.NewLifecycleStarted(c.state.LifecycleID, c.state.Form.String(), reason, now)
	})
	c.observe(now)
	return nil
}

// OnHandshake records a captured handshake.
func (c *Controller) OnHandshake(ctx context.Context) { c.OnEvent(ctx, pet.EventHandshake) }

// OnAssociation records an association frame.
func (c *Controller) OnAssociation(ctx context.Context) { c.OnEvent(ctx, pet.EventAssociation) }

// OnDeauthentication records a deauthentication.
func (c *Controller) OnDeauthentication(ctx context.Context) {
	c.OnEvent(ctx, pet.EventDeauthentication)
}

// OnEvent updates the counters for kind, persists and evaluates evolution.
// Events are ignored once a restart has been triggered.
func (c *Controller) OnEvent(ctx context.Context, kind pet.EventKind) {
	if c.Done() {
		c.logger.Debug("Ignoring event after transition", logfields.EventKind(string(kind)), logfields.Phase(string(c.phase)))
		return
	}

	c.state.RecordEvent(kind, c.settings.Rewards.For(kind))
	c.recorder.IncEvent(string(kind))
	c.recorder.SetExperience(c.state.Experience)
	c.persist(ctx)

	now := c.clock.Now()
	age := pet.AgeDays(c.state, now)
	next := c.engine.NextForm(c.state, age)
	if next == c.state.Form {
		return
	}
	c.evolve(ctx, next, age, now)
}

// Tick refreshes the display and checks the lifespan. It also retries a
// restart that previously failed.
func (c *Controller) Tick(ctx context.Context) {
	if c.Done() {
		return
	}

	now := c.clock.Now()
	c.settings.Presenter.Render(c.surface, c.state, now)
	c.observe(now)

	if pet.IsExpired(c.state, now, c.settings.LifespanDays) {
		c.expire(ctx, now, true)
		return
	}
	if c.pending != "" {
		c.logger.Info("Retrying restart", logfields.Phase(string(c.pending)))
		c.restart(ctx, c.pending)
	}
}

// Reset starts a new lifecycle immediately. The restart is only triggered
// when withRestart is set.
func (c *Controller) Reset(ctx context.Context, withRestart bool) {
	c.expire(ctx, c.clock.Now(), withRestart)
}

func (c *Controller) evolve(ctx context.Context, next stage.Stage, age int, now time.Time) {
	from := c.state.Form
	c.state.Evolve(next)

	c.logger.Info("Pet evolving",
		logfields.FromStage(from.String()),
		logfields.ToStage(next.String()),
		logfields.Experience(c.state.Experience),
		logfields.AgeDays(age))
	c.recorder.IncEvolution(from.String(), next.String())

	c.applyFaces(ctx)
	c.persist(ctx)
	c.appendHistory(ctx, func() (eventstore.Event, error) {
		return eventstore.NewEvolved(c.state.LifecycleID, from.String(), next.String(), c.progress(age), now)
	})
	c.notify(ctx, notify.Transition{
		Kind:        notify.KindEvolved,
		LifecycleID: c.state.LifecycleID,
		From:        from,
		To:          next,
		Experience:  c.state.Experience,
		AgeDays:     age,
		At:          now,
	})
	c.restart(ctx, PhaseEvolving)
}

func (c *Controller) expire(ctx context.Context, now time.Time, withRestart bool) {
	prev := c.state
	age := pet.AgeDays(prev, now)
	ended := c.progress(age)

	c.state.Reset(now, c.rng)
	c.logger.Info("Lifecycle reset",
		logfields.FromStage(prev.Form.String()),
		logfields.ToStage(c.state.Form.String()),
		logfields.AgeDays(age),
		logfields.LifecycleID(c.state.LifecycleID))
	c.recorder.IncLifecycleReset()

	c.persist(ctx)
	c.applyFaces(ctx)
	c.appendHistory(ctx, func() (eventstore.Event, error) {
		return eventstore.NewLifecycleEnded(prev.LifecycleID, prev.Form.String(), ended, now)
	})
	c.appendHistory(ctx, func() (eventstore.Event, error) {
		return eventstore.NewLifecycleStarted(c.state.LifecycleID, c.state.Form.String(), eventstore.StartReset, now)
	})
	c.observe(now)

	if !withRestart {
		return
	}
	c.notify(ctx, notify.Transition{
		Kind:        notify.KindReset,
		LifecycleID: c.state.LifecycleID,
		From:        prev.Form,
		To:          c.state.Form,
		Experience:  prev.Experience,
		AgeDays:     age,
		At:          now,
	})
	c.restart(ctx, PhaseExpired)
}

// restart triggers the host restart and enters phase on success. On failure
// the controller stays stable and retries on the next tick.
func (c *Controller) restart(ctx context.Context, phase Phase) {
	if err := c.restarter.Restart(ctx); err != nil {
		c.logger.Error("Restart failed, will retry on next tick",
			logfields.Phase(string(phase)),
			logfields.Error(err))
		c.recorder.IncRestartFailure()
		c.phase = PhaseStable
		c.pending = phase
		return
	}
	c.phase = phase
	c.pending = ""
}

// persist writes the snapshot. Failures are logged and swallowed; the
// in-memory state stays authoritative.
func (c *Controller) persist(ctx context.Context) {
	if _, err := c.gateway.Save(ctx, c.state).ToTuple(); err != nil {
		c.logger.Error("Failed to persist pet state", logfields.Error(err))
		c.recorder.IncPersistenceFailure("snapshot")
		return
	}
	c.state.MarkClean()
}

func (c *Controller) applyFaces(ctx context.Context) {
	if err := c.faces.Apply(ctx, c.state.Form); err != nil {
		if errors.HasCategory(err, errors.CategoryConfigResolution) {
			c.logger.Error("No face mapping for stage", logfields.Stage(c.state.Form.String()), logfields.Error(err))
			return
		}
		c.logger.Warn("Failed to apply faces", logfields.Stage(c.state.Form.String()), logfields.Error(err))
	}
}

func (c *Controller) notify(ctx context.Context, t notify.Transition) {
	if err := c.notifier.Notify(ctx, t); err != nil {
		c.logger.Warn("Transition notification failed", logfields.Error(err))
	}
}

func (c *Controller) appendHistory(ctx context.Context, build func() (eventstore.Event, error)) {
	if c.history == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = c.history.Append(ctx, ev)
	}
	if err != nil {
		c.logger.Warn("Failed to record history", logfields.Error(err))
		c.recorder.IncPersistenceFailure("history")
	}
}

func (c *Controller) progress(age int) eventstore.Progress {
	return eventstore.Progress{
		Experience:   c.state.Experience,
		AgeDays:      age,
		Handshakes:   c.state.HandshakeCount,
		Associations: c.state.AssociationCount,
		Deauths:      c.state.DeauthCount,
	}
}

func (c *Controller) observe(now time.Time) {
	c.recorder.SetExperience(c.state.Experience)
	c.recorder.SetAgeDays(pet.AgeDays(c.state, now))
}
