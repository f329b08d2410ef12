package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/pet"
)

// EventCmd implements the 'event' command.
type EventCmd struct {
	Kind  string `arg:"" help:"Event kind: handshake, association or deauthentication"`
	Count int    `short:"n" help:"Number of times to record the event" default:"1"`
}

func (e *EventCmd) Run(g *Global, root *CLI) error {
	kind, err := pet.ParseEventKind(e.Kind)
	if err != nil {
		return errors.ValidationError("unknown event kind").
			WithContext("kind", e.Kind).
			WithCause(err).
			Build()
	}
	if e.Count < 1 {
		return errors.ValidationError("count must be at least 1").
			WithContext("count", e.Count).
			Build()
	}

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt := buildRuntime(ctx, cfg, g.Logger, runtimeOptions{nats: true})
	defer func() { _ = rt.Close() }()

	if err := rt.load(ctx); err != nil {
		return err
	}
	from := rt.controller.State().Form
	for i := 0; i < e.Count && !rt.controller.Done(); i++ {
		rt.controller.OnEvent(ctx, kind)
	}
	rt.controller.Tick(ctx)

	s := rt.controller.State()
	if s.Form != from {
		_, _ = fmt.Fprintf(g.Stdout, "%s evolved into %s\n", from.DisplayName(), s.Form.DisplayName())
	}
	_, _ = fmt.Fprintf(g.Stdout, "%s: %.1f XP (%s)\n", s.Form.DisplayName(), s.Experience, rt.controller.Phase())
	return nil
}
