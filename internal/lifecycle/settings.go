package lifecycle

import (
	"git.home.luguber.info/inful/digivice/internal/config"
	"git.home.luguber.info/inful/digivice/internal/display"
)

// SettingsFromConfig extracts the hot-reloadable settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Starter:      cfg.Starter,
		LifespanDays: cfg.LifeSpan,
		Rewards:      cfg.PetRewards(),
		Presenter: display.Presenter{
			Digistats: cfg.DigistatsEnabled(),
			XPBar:     cfg.XPBar(),
		},
	}
}
