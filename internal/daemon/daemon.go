package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/digivice/internal/config"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/lifecycle"
	"git.home.luguber.info/inful/digivice/internal/logfields"
	"git.home.luguber.info/inful/digivice/internal/metrics"
	"git.home.luguber.info/inful/digivice/internal/pet"
)

const (
	inboxSize       = 64
	shutdownTimeout = 5 * time.Second
	tickJobName     = "ui-tick"
)

type messageKind int

const (
	msgEvent messageKind = iota
	msgTick
	msgReload
)

type message struct {
	kind     messageKind
	event    pet.EventKind
	settings lifecycle.Settings
}

// Options configures a Daemon.
type Options struct {
	Controller   *lifecycle.Controller
	Clock        clockwork.Clock
	TickInterval time.Duration

	// ConfigPath enables hot reload when set.
	ConfigPath string
	Debounce   time.Duration

	Sources []EventSource

	// MetricsAddr enables the metrics endpoint when set.
	MetricsAddr string
	MetricsPath string
	Registry    *prom.Registry
}

// Daemon serializes events, ticks and reloads onto the controller.
type Daemon struct {
	opts      Options
	ctrl      *lifecycle.Controller
	inbox     chan message
	scheduler *Scheduler
	watcher   *ConfigWatcher
	server    *http.Server
	stop      chan struct{}
}

// New validates options and creates the daemon.
func New(opts Options) (*Daemon, error) {
	if opts.Controller == nil {
		return nil, errors.DaemonError("controller is required").Build()
	}
	if opts.TickInterval <= 0 {
		return nil, errors.DaemonError("tick interval must be positive").
			WithContext("tick_interval", opts.TickInterval.String()).
			Build()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = config.DefaultMetricsPath
	}

	return &Daemon{
		opts:  opts,
		ctrl:  opts.Controller,
		inbox: make(chan message, inboxSize),
		stop:  make(chan struct{}),
	}, nil
}

// Run loads the pet and processes inputs until ctx is cancelled or a restart
// has been triggered.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.ctrl.Load(ctx); err != nil {
		if ctx.Err() != nil {
			slog.Info("Daemon stopped before the pet was loaded")
			return nil
		}
		return errors.WrapError(err, errors.CategoryDaemon, "failed to load pet state").Build()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(d.stop)
		d.shutdown()
	}()

	if err := d.start(ctx); err != nil {
		return err
	}

	// Render immediately instead of waiting a full interval.
	d.handle(ctx, message{kind: msgTick})

	for !d.ctrl.Done() {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopped by context cancellation")
			return nil
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		}
	}

	slog.Info("Restart triggered, daemon exiting", logfields.Phase(string(d.ctrl.Phase())))
	return nil
}

func (d *Daemon) handle(ctx context.Context, msg message) {
	switch msg.kind {
	case msgEvent:
		d.ctrl.OnEvent(ctx, msg.event)
	case msgTick:
		d.ctrl.Tick(ctx)
	case msgReload:
		d.ctrl.Apply(msg.settings)
	}
}

// post queues msg, blocking until accepted or the daemon stops.
func (d *Daemon) post(ctx context.Context, msg message) bool {
	select {
	case d.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-d.stop:
		return false
	}
}

func (d *Daemon) start(ctx context.Context) error {
	scheduler, err := NewScheduler(d.opts.Clock)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Build()
	}
	d.scheduler = scheduler
	if _, err := scheduler.ScheduleEvery(tickJobName, d.opts.TickInterval, func() {
		// Ticks are idempotent; drop one rather than block when the loop is busy.
		select {
		case d.inbox <- message{kind: msgTick}:
		default:
		}
	}); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule tick").Build()
	}
	scheduler.Start()

	for _, src := range d.opts.Sources {
		sink := func(kind pet.EventKind) { d.post(ctx, message{kind: msgEvent, event: kind}) }
		if err := src.Start(ctx, sink); err != nil {
			return err
		}
		slog.Info("Event source started", slog.String("source", src.Name()))
	}

	if d.opts.ConfigPath != "" {
		watcher, err := NewConfigWatcher(d.opts.ConfigPath, d.opts.Debounce, func(cfg *config.Config) {
			d.post(ctx, message{kind: msgReload, settings: lifecycle.SettingsFromConfig(cfg)})
		})
		if err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to create config watcher").Build()
		}
		d.watcher = watcher
		if err := watcher.Start(ctx); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to start config watcher").Build()
		}
	}

	if d.opts.MetricsAddr != "" {
		d.startMetricsServer()
	}
	return nil
}

func (d *Daemon) startMetricsServer() {
	reg := d.opts.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}
	mux := http.NewServeMux()
	mux.Handle(d.opts.MetricsPath, metrics.HTTPHandler(reg))

	d.server = &http.Server{
		Addr:              d.opts.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", d.opts.MetricsAddr), logfields.Path(d.opts.MetricsPath))
		if err := d.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

func (d *Daemon) shutdown() {
	for _, src := range d.opts.Sources {
		if err := src.Stop(); err != nil {
			slog.Warn("Failed to stop event source", slog.String("source", src.Name()), logfields.Error(err))
		}
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Warn("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Warn("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
}
