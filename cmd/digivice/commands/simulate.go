package commands

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"git.home.luguber.info/inful/digivice/internal/evolution"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// SimulateCmd implements the 'simulate' command.
type SimulateCmd struct {
	Form         string  `short:"f" help:"Current form" default:"agumon"`
	Experience   float64 `short:"x" help:"Experience points" default:"1500"`
	Handshakes   int     `help:"Handshake count"`
	Associations int     `help:"Association count"`
	Deauths      int     `help:"Deauthentication count"`
	Age          int     `short:"a" help:"Age in days"`
	Lifespan     int     `short:"l" help:"Lifespan in days" default:"15"`
	Trials       int     `short:"n" help:"Trials per batch" default:"1000"`
	Batches      int     `short:"b" help:"Number of batches" default:"20"`
	Seed         uint64  `help:"Random seed (0 picks one)"`
}

// SimulationResult aggregates NextForm outcomes over all batches.
type SimulationResult struct {
	Form         stage.Stage
	Outcomes     map[stage.Stage]int
	Trials       int
	Fallback     stage.Stage
	FallbackMean float64
	FallbackStd  float64
}

func (s *SimulateCmd) Run(g *Global, _ *CLI) error {
	form, err := stage.Parse(s.Form)
	if err != nil {
		return errors.ValidationError("unknown form").WithContext("form", s.Form).WithCause(err).Build()
	}
	if s.Trials < 1 || s.Batches < 2 {
		return errors.ValidationError("need at least 1 trial and 2 batches").Build()
	}
	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	st := pet.State{
		Form:             form,
		Experience:       s.Experience,
		HandshakeCount:   s.Handshakes,
		AssociationCount: s.Associations,
		DeauthCount:      s.Deauths,
	}
	res := Simulate(st, s.Age, s.Lifespan, s.Trials, s.Batches, rand.New(rand.NewPCG(seed, seed>>1|1)))
	writeSimulation(g.Stdout, res)
	return nil
}

// Simulate draws trials*batches next forms for st. The fallback rate is
// measured per batch so its spread can be reported.
func Simulate(st pet.State, ageDays, lifespanDays, trials, batches int, rng *rand.Rand) SimulationResult {
	engine := evolution.NewEngine(lifespanDays, evolution.WithRand(rng))
	res := SimulationResult{
		Form:     st.Form,
		Outcomes: make(map[stage.Stage]int),
		Trials:   trials * batches,
	}
	if b, ok := engine.Rules()[st.Form].(evolution.Branch); ok {
		res.Fallback = b.Fallback
	}

	rates := make([]float64, batches)
	for b := range batches {
		fallbacks := 0
		for range trials {
			next := engine.NextForm(st, ageDays)
			res.Outcomes[next]++
			if res.Fallback != "" && next == res.Fallback {
				fallbacks++
			}
		}
		rates[b] = float64(fallbacks) / float64(trials)
	}
	res.FallbackMean, res.FallbackStd = stat.MeanStdDev(rates, nil)
	return res
}

func writeSimulation(w io.Writer, res SimulationResult) {
	targets := make([]stage.Stage, 0, len(res.Outcomes))
	for s := range res.Outcomes {
		targets = append(targets, s)
	}
	sort.Slice(targets, func(i, j int) bool {
		if res.Outcomes[targets[i]] != res.Outcomes[targets[j]] {
			return res.Outcomes[targets[i]] > res.Outcomes[targets[j]]
		}
		return targets[i] < targets[j]
	})

	_, _ = fmt.Fprintf(w, "%d trials from %s\n", res.Trials, res.Form.DisplayName())
	for _, s := range targets {
		n := res.Outcomes[s]
		_, _ = fmt.Fprintf(w, "  %-12s %6d  %5.1f%%\n", s.DisplayName(), n, 100*float64(n)/float64(res.Trials))
	}
	if res.Fallback != "" {
		_, _ = fmt.Fprintf(w, "fallback %s: mean %.3f, stddev %.3f per batch\n",
			res.Fallback.DisplayName(), res.FallbackMean, res.FallbackStd)
	}
}
