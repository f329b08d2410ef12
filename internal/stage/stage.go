// Package stage defines the closed set of forms the pet can take and the
// tier each form belongs to.
package stage

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

// Stage is a named lifecycle form. Values are the lower-case names used in
// the snapshot file.
type Stage string

// Tier groups stages by evolution level.
type Tier string

const (
	TierRookie   Tier = "rookie"
	TierChampion Tier = "champion"
	TierUltimate Tier = "ultimate"
)

const (
	// Rookie
	Agumon  Stage = "agumon"
	Betamon Stage = "betamon"
	Gabumon Stage = "gabumon"

	// Champion
	Greymon     Stage = "greymon"
	Tyrannomon  Stage = "tyrannomon"
	Devimon     Stage = "devimon"
	Meramon     Stage = "meramon"
	Airdramon   Stage = "airdramon"
	Seadramon   Stage = "seadramon"
	Numemon     Stage = "numemon"
	Garurumon   Stage = "garurumon"
	Kabuterimon Stage = "kabuterimon"

	// Ultimate
	MetalGreymon   Stage = "metal greymon"
	MetalGarurumon Stage = "metal garurumon"
	SkullGreymon   Stage = "skull greymon"
	Mamemon        Stage = "mamemon"
	Monzaemon      Stage = "monzaemon"
)

// Fallback is the form a failed rookie evolution ends up in.
const Fallback = Numemon

// Random is the starter option that picks among Starters.
const Random = "random"

var tiers = map[Stage]Tier{
	Agumon: TierRookie, Betamon: TierRookie, Gabumon: TierRookie,

	Greymon: TierChampion, Tyrannomon: TierChampion, Devimon: TierChampion,
	Meramon: TierChampion, Airdramon: TierChampion, Seadramon: TierChampion,
	Numemon: TierChampion, Garurumon: TierChampion, Kabuterimon: TierChampion,

	MetalGreymon: TierUltimate, MetalGarurumon: TierUltimate, SkullGreymon: TierUltimate,
	Mamemon: TierUltimate, Monzaemon: TierUltimate,
}

var starters = []Stage{Agumon, Betamon, Gabumon}

var (
	stageNormalizer   = newStageNormalizer()
	starterNormalizer = foundation.NewNormalizer(map[string]string{
		string(Agumon):  string(Agumon),
		string(Betamon): string(Betamon),
		string(Gabumon): string(Gabumon),
		Random:          Random,
	}, Random)
)

func newStageNormalizer() *foundation.Normalizer[Stage] {
	values := make(map[string]Stage, len(tiers))
	for s := range tiers {
		values[string(s)] = s
	}
	return foundation.NewNormalizer(values, Stage(""))
}

// Parse resolves a stage name (case-insensitive, trimmed).
func Parse(name string) (Stage, error) {
	s, err := stageNormalizer.NormalizeWithError(name)
	if err != nil {
		return "", errors.ValidationError("unknown stage").
			WithCause(err).
			WithContext("stage", name).
			Build()
	}
	return s, nil
}

// ParseStarter normalizes the starter option. Anything that is not a starter
// name becomes "random".
func ParseStarter(option string) string {
	return starterNormalizer.Normalize(option)
}

// Starters returns the rookie forms a new lifecycle can start in.
func Starters() []Stage {
	out := make([]Stage, len(starters))
	copy(out, starters)
	return out
}

// All returns every known stage, rookies first.
func All() []Stage {
	out := make([]Stage, 0, len(tiers))
	for _, t := range []Tier{TierRookie, TierChampion, TierUltimate} {
		for _, s := range ordered {
			if tiers[s] == t {
				out = append(out, s)
			}
		}
	}
	return out
}

var ordered = []Stage{
	Agumon, Betamon, Gabumon,
	Greymon, Tyrannomon, Devimon, Meramon, Airdramon, Seadramon, Numemon, Garurumon, Kabuterimon,
	MetalGreymon, MetalGarurumon, SkullGreymon, Mamemon, Monzaemon,
}

// Valid reports whether s is a member of the known stage set.
func (s Stage) Valid() bool {
	_, ok := tiers[s]
	return ok
}

// Tier returns the stage's tier; unknown stages report an empty tier.
func (s Stage) Tier() Tier {
	return tiers[s]
}

// IsStarter reports whether s is one of the rookie starters.
func (s Stage) IsStarter() bool {
	return tiers[s] == TierRookie
}

// DisplayName is the title-cased name shown on screen ("Metal Greymon").
func (s Stage) DisplayName() string {
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(string(s))
}

func (s Stage) String() string { return string(s) }
