// Package evolution decides when and into what the pet evolves.
//
// Rules are a tagged variant keyed by source stage: a Branch is a
// weighted-random choice among several candidates with a fallback form, a
// Direct rule has exactly one target that every requirement must unlock.
// Stages without a rule are terminal.
package evolution

import (
	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Experience needed before each tier may evolve.
const (
	RookieEvolveXP   = 1500
	ChampionEvolveXP = 3000
)

// Requirements lists the optional counter thresholds of a candidate. An unset
// requirement does not take part in scoring.
type Requirements struct {
	Deauths      foundation.Option[int]
	Handshakes   foundation.Option[int]
	Associations foundation.Option[int]
}

// Empty reports whether no requirement is set.
func (r Requirements) Empty() bool {
	return r.Deauths.IsNone() && r.Handshakes.IsNone() && r.Associations.IsNone()
}

// Candidate is one possible target of a rule.
type Candidate struct {
	Target   stage.Stage
	Requires Requirements
}

// Rule is implemented by Branch and Direct only.
type Rule interface {
	rule()
}

// Branch picks at random among the qualifying candidates; Fallback is the
// result when none qualifies and may be mixed in as an extra candidate.
type Branch struct {
	Candidates []Candidate
	Fallback   stage.Stage
}

// Direct evolves into its single candidate once every requirement is met.
type Direct struct {
	Candidate Candidate
}

func (Branch) rule() {}
func (Direct) rule() {}

// RuleSet maps a source stage to its rule.
type RuleSet map[stage.Stage]Rule

// Terminal reports whether s has no outgoing rule.
func (rs RuleSet) Terminal(s stage.Stage) bool {
	_, ok := rs[s]
	return !ok
}

// req is a terse constructor for the rule table below.
type req struct{ deauths, handshakes, associations int }

func (r req) requirements() Requirements {
	var out Requirements
	if r.deauths > 0 {
		out.Deauths = foundation.Some(r.deauths)
	}
	if r.handshakes > 0 {
		out.Handshakes = foundation.Some(r.handshakes)
	}
	if r.associations > 0 {
		out.Associations = foundation.Some(r.associations)
	}
	return out
}

func to(target stage.Stage, r req) Candidate {
	return Candidate{Target: target, Requires: r.requirements()}
}

// DefaultRules returns the canonical rule table.
func DefaultRules() RuleSet {
	return RuleSet{
		// Rookies branch.
		stage.Agumon: Branch{Fallback: stage.Numemon, Candidates: []Candidate{
			to(stage.Greymon, req{deauths: 40, handshakes: 80}),
			to(stage.Tyrannomon, req{handshakes: 70}),
			to(stage.Devimon, req{deauths: 50}),
			to(stage.Meramon, req{associations: 800}),
		}},
		stage.Betamon: Branch{Fallback: stage.Numemon, Candidates: []Candidate{
			to(stage.Devimon, req{deauths: 40, handshakes: 80}),
			to(stage.Meramon, req{handshakes: 70}),
			to(stage.Airdramon, req{deauths: 50}),
			to(stage.Seadramon, req{associations: 800}),
		}},
		stage.Gabumon: Branch{Fallback: stage.Numemon, Candidates: []Candidate{
			to(stage.Garurumon, req{deauths: 40, handshakes: 80}),
			to(stage.Kabuterimon, req{handshakes: 90}),
		}},

		// Champions have one way up.
		stage.Greymon:     Direct{to(stage.MetalGreymon, req{deauths: 60, handshakes: 120})},
		stage.Garurumon:   Direct{to(stage.MetalGarurumon, req{associations: 1200, handshakes: 120})},
		stage.Kabuterimon: Direct{to(stage.SkullGreymon, req{handshakes: 110})},
		stage.Tyrannomon:  Direct{to(stage.Mamemon, req{handshakes: 110})},
		stage.Meramon:     Direct{to(stage.Mamemon, req{associations: 1300})},
		stage.Seadramon:   Direct{to(stage.Mamemon, req{associations: 1300})},
		stage.Devimon:     Direct{to(stage.MetalGreymon, req{deauths: 60, handshakes: 120})},
		stage.Airdramon:   Direct{to(stage.MetalGreymon, req{deauths: 60, handshakes: 120})},
		stage.Numemon:     Direct{to(stage.Monzaemon, req{associations: 1300, deauths: 60})},
	}
}

// TierThreshold is the experience needed to leave a stage of tier t. Tiers
// without an outgoing evolution report 0 and false.
func TierThreshold(t stage.Tier) (float64, bool) {
	switch t {
	case stage.TierRookie:
		return RookieEvolveXP, true
	case stage.TierChampion:
		return ChampionEvolveXP, true
	}
	return 0, false
}
