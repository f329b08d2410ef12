package config

import (
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// PetRewards converts the rewards table. Aliases (assoc, deauth) resolve to
// their event kind; keys that do not parse are skipped.
func (c *Config) PetRewards() pet.Rewards {
	rewards := pet.DefaultRewards()
	for key, xp := range c.Rewards {
		kind, err := pet.ParseEventKind(key)
		if err != nil {
			continue
		}
		rewards[kind] = xp
	}
	return rewards
}

// FaceOverrides converts faces.folders into per-stage folder overrides.
func (c *Config) FaceOverrides() map[stage.Stage]string {
	if len(c.Faces.Folders) == 0 {
		return nil
	}
	overrides := make(map[stage.Stage]string, len(c.Faces.Folders))
	for name, folder := range c.Faces.Folders {
		s, err := stage.Parse(name)
		if err != nil {
			continue
		}
		overrides[s] = folder
	}
	return overrides
}
