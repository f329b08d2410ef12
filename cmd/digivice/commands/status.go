package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/evolution"
	"git.home.luguber.info/inful/digivice/internal/pet"
)

// StatusCmd implements the 'status' command. It only reads the snapshot.
type StatusCmd struct{}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()
	rng := newRand()
	st, err := newGateway(cfg, clock, rng).Load(context.Background()).ToTuple()
	if err != nil {
		return err
	}

	now := clock.Now()
	mem := display.NewMemory()
	presenter := display.Presenter{Digistats: true, XPBar: cfg.XPBar()}
	presenter.Render(mem, st, now)
	writeFields(g.Stdout, mem)
	_, _ = fmt.Fprintf(g.Stdout, "%-14s %s\n", "lifecycle", st.LifecycleID)
	_, _ = fmt.Fprintf(g.Stdout, "%-14s %d of %d days\n", "lifespan", pet.AgeDays(st, now), cfg.LifeSpan)

	engine := evolution.NewEngine(cfg.LifeSpan, evolution.WithRand(rng))
	writeReport(g.Stdout, engine.Explain(st, pet.AgeDays(st, now)))
	return nil
}

func writeFields(w io.Writer, mem *display.Memory) {
	for _, name := range mem.Names() {
		value, _ := mem.Field(name)
		_, _ = fmt.Fprintf(w, "%-14s %s\n", name, value)
	}
}

func writeReport(w io.Writer, rep evolution.Report) {
	if rep.Terminal {
		_, _ = fmt.Fprintf(w, "%s is a final form\n", rep.Form.DisplayName())
		return
	}
	reached := "not reached"
	if rep.XPReached {
		reached = "reached"
	}
	_, _ = fmt.Fprintf(w, "\nnext evolution: %.0f XP %s (age factor %.2f)\n", rep.ThresholdXP, reached, rep.AgeFactor)
	for _, c := range rep.Candidates {
		mark := " "
		if c.Qualifies {
			mark = "*"
		}
		if rep.Branching {
			_, _ = fmt.Fprintf(w, "  %s %-12s fitness %.2f\n", mark, c.Target.DisplayName(), c.Fitness)
			continue
		}
		ratios := make([]string, len(c.Ratios))
		for i, r := range c.Ratios {
			ratios[i] = fmt.Sprintf("%.2f", r)
		}
		_, _ = fmt.Fprintf(w, "  %s %-12s ratios %s\n", mark, c.Target.DisplayName(), strings.Join(ratios, " "))
	}
	if rep.Fallback != "" {
		_, _ = fmt.Fprintf(w, "  fallback     %s\n", rep.Fallback.DisplayName())
	}
}
