package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/digivice/internal/daemon"
	"git.home.luguber.info/inful/digivice/internal/logfields"
	"git.home.luguber.info/inful/digivice/internal/version"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Stdin    bool `help:"Also read event kinds from stdin, one per line"`
	NoReload bool `name:"no-reload" help:"Disable configuration hot reload"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := buildRuntime(ctx, cfg, g.Logger, runtimeOptions{metrics: true, nats: true})
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			g.Logger.Warn("Shutdown cleanup failed", logfields.Error(cerr))
		}
	}()

	opts := daemon.Options{
		Controller:   rt.controller,
		TickInterval: cfg.Tick(),
		Registry:     rt.registry,
	}
	if !r.NoReload {
		opts.ConfigPath = root.Config
	}
	if rt.registry != nil {
		opts.MetricsAddr = cfg.Metrics.Listen
		opts.MetricsPath = cfg.Metrics.Path
	}
	if rt.conn != nil {
		opts.Sources = append(opts.Sources, daemon.NewNATSSource(rt.conn, cfg.NATS.EventSubject))
	}
	if r.Stdin {
		opts.Sources = append(opts.Sources, daemon.NewReaderSource("stdin", os.Stdin))
	}

	d, err := daemon.New(opts)
	if err != nil {
		return err
	}

	g.Logger.Info("Starting digivice", "version", version.Version, logfields.Path(cfg.DataFile))
	return d.Run(ctx)
}
