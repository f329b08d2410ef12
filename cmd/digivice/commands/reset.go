package commands

import (
	"context"
	"fmt"
)

// ResetCmd implements the 'reset' command.
type ResetCmd struct {
	Restart bool `help:"Restart the host after resetting, as a natural reset would"`
}

func (r *ResetCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt := buildRuntime(ctx, cfg, g.Logger, runtimeOptions{nats: r.Restart})
	defer func() { _ = rt.Close() }()

	if err := rt.load(ctx); err != nil {
		return err
	}
	previous := rt.controller.State()
	rt.controller.Reset(ctx, r.Restart)

	s := rt.controller.State()
	_, _ = fmt.Fprintf(g.Stdout, "%s retired after %.1f XP; a new %s hatched\n",
		previous.Form.DisplayName(), previous.Experience, s.Form.DisplayName())
	if rt.controller.RestartPending() {
		_, _ = fmt.Fprintln(g.Stdout, "restart failed; the daemon will retry on its next tick")
	}
	return nil
}
