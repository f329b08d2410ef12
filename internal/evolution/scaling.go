package evolution

import "math"

const (
	// MinScaledThreshold is the floor for any age-scaled threshold.
	MinScaledThreshold = 10
	// MaxAgeFactor caps how much age can ease a threshold.
	MaxAgeFactor = 1.8
	// graceDays are not counted towards the age factor.
	graceDays = 2
)

// Per-requirement weights of the branch fitness score.
const (
	DeauthWeight      = 1.2
	HandshakeWeight   = 1.0
	AssociationWeight = 0.8
)

// AgeFactor is min(1.8, 1 + max(0, ageDays-2)/lifespanDays).
func AgeFactor(ageDays, lifespanDays int) float64 {
	if lifespanDays <= 0 {
		return 1.0
	}
	adjusted := max(0, ageDays-graceDays)
	return math.Min(MaxAgeFactor, 1.0+float64(adjusted)/float64(lifespanDays))
}

// ScaledThreshold eases base as the pet ages, never below MinScaledThreshold.
func ScaledThreshold(base, ageDays, lifespanDays int) int {
	scaled := int(math.Floor(float64(base) / AgeFactor(ageDays, lifespanDays)))
	return max(MinScaledThreshold, scaled)
}
