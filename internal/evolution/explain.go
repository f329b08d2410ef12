package evolution

import (
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// CandidateReport describes how close the pet is to one candidate target.
type CandidateReport struct {
	Target    stage.Stage
	Fitness   float64   // weighted score, branch rules
	Ratios    []float64 // per-requirement ratios, direct rules
	Qualifies bool
}

// Report is a side-effect-free view of the next evolution step.
type Report struct {
	Form        stage.Stage
	Terminal    bool
	ThresholdXP float64
	XPReached   bool
	Branching   bool
	Fallback    stage.Stage
	Candidates  []CandidateReport
	AgeFactor   float64
}

// Explain reports candidate scores without drawing any random numbers.
func (e *Engine) Explain(s pet.State, ageDays int) Report {
	rep := Report{
		Form:      s.Form,
		AgeFactor: AgeFactor(ageDays, e.lifespanDays),
	}
	rule, ok := e.rules[s.Form]
	if !ok {
		rep.Terminal = true
		return rep
	}
	threshold, hasThreshold := TierThreshold(s.Form.Tier())
	rep.ThresholdXP = threshold
	rep.XPReached = !hasThreshold || s.Experience >= threshold

	switch r := rule.(type) {
	case Branch:
		rep.Branching = true
		rep.Fallback = r.Fallback
		for _, c := range r.Candidates {
			fitness := e.Fitness(c.Requires, s, ageDays)
			rep.Candidates = append(rep.Candidates, CandidateReport{
				Target:    c.Target,
				Fitness:   fitness,
				Qualifies: c.Requires.Empty() || fitness >= 1.0,
			})
		}
	case Direct:
		rep.Candidates = append(rep.Candidates, CandidateReport{
			Target:    r.Candidate.Target,
			Ratios:    e.Ratios(r.Candidate.Requires, s, ageDays),
			Qualifies: e.Satisfied(r.Candidate.Requires, s, ageDays),
		})
	}
	return rep
}
