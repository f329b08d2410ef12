package evolution

import (
	"math/rand/v2"
	"time"

	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// FallbackChance is the probability that a branch's fallback joins the
// qualifying candidates.
const FallbackChance = 0.2

// Engine evaluates a RuleSet against pet state. It holds no pet state itself.
type Engine struct {
	rules        RuleSet
	lifespanDays int
	rng          *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used for branch choices.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithRules replaces the default rule table.
func WithRules(rules RuleSet) Option {
	return func(e *Engine) { e.rules = rules }
}

// NewEngine builds an engine for a pet living lifespanDays.
func NewEngine(lifespanDays int, opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules(), lifespanDays: lifespanDays}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return e
}

// SetLifespan updates the lifespan used for age scaling (config reload).
func (e *Engine) SetLifespan(days int) { e.lifespanDays = days }

// Rules returns the engine's rule table.
func (e *Engine) Rules() RuleSet { return e.rules }

// NextForm returns the form s should take now. It returns s.Form unchanged when
// the stage is terminal or unknown, when the tier's experience threshold is not
// reached, or when a direct rule is not satisfied.
func (e *Engine) NextForm(s pet.State, ageDays int) stage.Stage {
	rule, ok := e.rules[s.Form]
	if !ok {
		return s.Form
	}
	threshold, ok := TierThreshold(s.Form.Tier())
	if ok && s.Experience < threshold {
		return s.Form
	}

	switch r := rule.(type) {
	case Branch:
		pool := e.branchPool(r, s, ageDays)
		if len(pool) == 0 {
			return r.Fallback
		}
		return pool[e.rng.IntN(len(pool))]
	case Direct:
		if e.Satisfied(r.Candidate.Requires, s, ageDays) {
			return r.Candidate.Target
		}
	}
	return s.Form
}

// branchPool collects the qualifying targets of r and, with FallbackChance,
// the fallback form.
func (e *Engine) branchPool(r Branch, s pet.State, ageDays int) []stage.Stage {
	var pool []stage.Stage
	for _, c := range r.Candidates {
		if c.Requires.Empty() || e.Fitness(c.Requires, s, ageDays) >= 1.0 {
			pool = append(pool, c.Target)
		}
	}
	if e.rng.Float64() < FallbackChance {
		pool = append(pool, r.Fallback)
	}
	return pool
}

// Fitness is the weighted sum of counter/scaled-threshold ratios over the set
// requirements.
func (e *Engine) Fitness(r Requirements, s pet.State, ageDays int) float64 {
	var score float64
	if base, ok := r.Deauths.Get(); ok {
		score += e.ratio(s.DeauthCount, base, ageDays) * DeauthWeight
	}
	if base, ok := r.Handshakes.Get(); ok {
		score += e.ratio(s.HandshakeCount, base, ageDays) * HandshakeWeight
	}
	if base, ok := r.Associations.Get(); ok {
		score += e.ratio(s.AssociationCount, base, ageDays) * AssociationWeight
	}
	return score
}

// Ratios returns one unweighted counter/scaled-threshold ratio per set
// requirement, in deauths, handshakes, associations order.
func (e *Engine) Ratios(r Requirements, s pet.State, ageDays int) []float64 {
	var ratios []float64
	if base, ok := r.Deauths.Get(); ok {
		ratios = append(ratios, e.ratio(s.DeauthCount, base, ageDays))
	}
	if base, ok := r.Handshakes.Get(); ok {
		ratios = append(ratios, e.ratio(s.HandshakeCount, base, ageDays))
	}
	if base, ok := r.Associations.Get(); ok {
		ratios = append(ratios, e.ratio(s.AssociationCount, base, ageDays))
	}
	return ratios
}

// Satisfied reports whether every requirement ratio is at least 1.0. No
// requirements means satisfied.
func (e *Engine) Satisfied(r Requirements, s pet.State, ageDays int) bool {
	for _, ratio := range e.Ratios(r, s, ageDays) {
		if ratio < 1.0 {
			return false
		}
	}
	return true
}

func (e *Engine) ratio(count, base, ageDays int) float64 {
	return float64(count) / float64(ScaledThreshold(base, ageDays, e.lifespanDays))
}
