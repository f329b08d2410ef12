package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/digivice/internal/config"
	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/eventstore"
	"git.home.luguber.info/inful/digivice/internal/faces"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/lifecycle"
	"git.home.luguber.info/inful/digivice/internal/logfields"
	"git.home.luguber.info/inful/digivice/internal/metrics"
	"git.home.luguber.info/inful/digivice/internal/notify"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/restart"
	"git.home.luguber.info/inful/digivice/internal/retry"
	"git.home.luguber.info/inful/digivice/internal/stage"
	"git.home.luguber.info/inful/digivice/internal/state"
)

// runtime holds the collaborators built from a configuration.
type runtime struct {
	cfg        *config.Config
	controller *lifecycle.Controller
	gateway    *state.FileGateway
	history    *eventstore.SQLiteStore
	registry   *prom.Registry
	conn       *nats.Conn
	surface    display.Surface
}

type runtimeOptions struct {
	// metrics builds a Prometheus registry and recorder.
	metrics bool
	// nats connects to the event bus.
	nats bool
	// surface overrides the log surface.
	surface display.Surface
	// clock overrides the real clock.
	clock clockwork.Clock
}

func newRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

func newGateway(cfg *config.Config, clock clockwork.Clock, rng *rand.Rand) *state.FileGateway {
	return state.NewFileGateway(cfg.DataFile, state.Defaults{
		Now:     clock.Now,
		Starter: func() stage.Stage { return pet.PickStarter(cfg.Starter, rng) },
	})
}

// buildRuntime wires a controller from cfg. Optional integrations that fail
// to start are logged and skipped; the pet keeps working without them.
func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts runtimeOptions) *runtime {
	clock := opts.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rng := newRand()
	rt := &runtime{cfg: cfg, gateway: newGateway(cfg, clock, rng), surface: opts.surface}
	if rt.surface == nil {
		rt.surface = display.LogSurface{Logger: logger}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if opts.metrics && cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	var restarter restart.Restarter = restart.NewCommand(cfg.Restart.Command, cfg.SyncBeforeRestart())
	if cfg.Restart.DryRun {
		restarter = &restart.Noop{}
	}

	notifiers := notify.Multi{notify.NewDisplayNotifier(rt.surface, cfg.Faces.EvolveIcon)}
	if opts.nats && cfg.NATS.Enabled {
		conn, err := connectNATS(ctx, cfg, logger)
		if err != nil {
			logger.Warn("NATS unavailable, continuing without bus", logfields.URL(cfg.NATS.URL), logfields.Error(err))
		} else {
			rt.conn = conn
			pub, err := notify.NewNATSPublisher(conn, cfg.NATS.TransitionSubject, cfg.NATS.JetStream)
			if err != nil {
				logger.Warn("Transition publisher disabled", logfields.Error(err))
			} else {
				notifiers = append(notifiers, pub)
			}
		}
	}

	deps := lifecycle.Deps{
		Gateway:   rt.gateway,
		Faces:     faces.NewOverlayWriter(faces.NewFolderResolver(cfg.Faces.Root, cfg.FaceOverrides()), cfg.Faces.Overlay),
		Restarter: restarter,
		Surface:   rt.surface,
		Notifier:  notifiers,
		Recorder:  recorder,
		Clock:     clock,
		Rand:      rng,
		Logger:    logger,
	}
	if cfg.History.Enabled {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			logger.Warn("History store unavailable", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			rt.history = store
			deps.History = store
		}
	}

	rt.controller = lifecycle.New(deps, lifecycle.SettingsFromConfig(cfg))
	return rt
}

func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*nats.Conn, error) {
	var conn *nats.Conn
	err := retry.Do(ctx, retry.FromConfig(cfg.NATS.ConnectRetry), nil, func() error {
		var err error
		conn, err = nats.Connect(cfg.NATS.URL, nats.Name("digivice"), nats.MaxReconnects(-1))
		return err
	}, func(attempt int, delay time.Duration, err error) {
		logger.Info("NATS connect failed, retrying",
			logfields.URL(cfg.NATS.URL), "attempt", attempt, "delay", delay, logfields.Error(err))
	})
	if err != nil {
		return nil, errors.TransportError("failed to connect to NATS").
			WithContext("url", cfg.NATS.URL).
			WithCause(err).
			Build()
	}
	return conn, nil
}

// load reads the pet, wrapping failures for the CLI.
func (rt *runtime) load(ctx context.Context) error {
	if err := rt.controller.Load(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryPersistence, "failed to load pet").
			WithContext("path", rt.cfg.DataFile).
			Build()
	}
	return nil
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.history != nil {
		errs = append(errs, rt.history.Close())
	}
	if rt.conn != nil {
		errs = append(errs, rt.conn.Drain())
	}
	return stderrors.Join(errs...)
}
