package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/digivice/internal/eventstore"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

var whenLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Since   string `help:"Only events at or after this time (RFC 3339 or YYYY-MM-DD)"`
	Until   string `help:"Only events before this time (RFC 3339 or YYYY-MM-DD)"`
	Summary bool   `short:"s" help:"Print one line per lifecycle instead of CSV"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("history is disabled (set history.enabled: true)").Build()
	}

	start, err := parseWhen(h.Since, time.Time{})
	if err != nil {
		return err
	}
	end, err := parseWhen(h.Until, time.Now())
	if err != nil {
		return err
	}

	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.Summary {
		projection := eventstore.NewLifecycleHistoryProjection(store, cfg.History.Retain)
		if err := projection.Rebuild(ctx, end); err != nil {
			return err
		}
		writeSummaries(g.Stdout, projection.GetHistory(), start)
		return nil
	}

	events, err := store.GetRange(ctx, start, end)
	if err != nil {
		return err
	}
	return eventstore.WriteCSV(g.Stdout, events)
}

func parseWhen(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ValidationError("invalid time").
		WithContext("value", raw).
		Build()
}

func writeSummaries(w io.Writer, summaries []eventstore.LifecycleSummary, since time.Time) {
	for _, s := range summaries {
		if s.StartedAt.Before(since) {
			continue
		}
		status := "active"
		if s.EndedAt != nil {
			status = fmt.Sprintf("ended %s at %d days, %.1f XP", s.EndedAt.Format(time.DateOnly), s.FinalAge, s.FinalXP)
		}
		_, _ = fmt.Fprintf(w, "%s  %s  %-10s %d evolutions, now %s (%s)\n",
			s.StartedAt.Format(time.DateOnly), s.LifecycleID, s.Starter, s.Evolutions(), s.CurrentForm(), status)
	}
}
