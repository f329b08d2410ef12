package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/digivice/internal/evolution"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Field names understood by the host UI.
const (
	FieldCurrentForm  = "current_form"
	FieldClock        = "clock"
	FieldAge          = "age"
	FieldHandshakes   = "handshakes"
	FieldAssociations = "associations"
	FieldDeauths      = "deauths"
	FieldXPCount      = "xp_count"
	FieldXPBarFill    = "exp_bar_fill"
	FieldStatus       = "status"
	FieldFace         = "face"
)

// XPBarWidth is the width in pixels of the experience bar.
const XPBarWidth = 60

// Point is a screen position.
type Point struct {
	X, Y int
}

// ParsePoint parses an "x,y" pair.
func ParsePoint(raw string) (Point, error) {
	xs, ys, ok := strings.Cut(raw, ",")
	if !ok {
		return Point{}, fmt.Errorf("expected \"x,y\", got %q", raw)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Point{}, fmt.Errorf("invalid x in %q: %w", raw, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Point{}, fmt.Errorf("invalid y in %q: %w", raw, err)
	}
	return Point{X: x, Y: y}, nil
}

func (p Point) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Presenter renders pet state into display fields.
type Presenter struct {
	Digistats bool
	XPBar     Point
}

// XPPercent is the progress towards the current tier's evolution threshold,
// capped at 100. Champions measure against the champion threshold; every
// other tier against the rookie one.
func XPPercent(s pet.State) float64 {
	maxXP := float64(evolution.RookieEvolveXP)
	if s.Form.Tier() == stage.TierChampion {
		maxXP = evolution.ChampionEvolveXP
	}
	return min(100, s.Experience/maxXP*100)
}

// Render pushes the current form, clock and, with digistats on, age, counters
// and experience progress.
func (p Presenter) Render(surface Surface, s pet.State, now time.Time) {
	surface.SetField(FieldCurrentForm, s.Form.DisplayName())
	surface.SetField(FieldClock, now.Format("03:04 PM"))
	if !p.Digistats {
		return
	}

	surface.SetField(FieldAge, fmt.Sprintf("%dA", pet.AgeDays(s, now)))
	surface.SetField(FieldHandshakes, strconv.Itoa(s.HandshakeCount))
	surface.SetField(FieldAssociations, strconv.Itoa(s.AssociationCount))
	surface.SetField(FieldDeauths, strconv.Itoa(s.DeauthCount))

	pct := XPPercent(s)
	surface.SetField(FieldXPCount, fmt.Sprintf("%d%%", int(pct)))

	width := int(pct / 100 * XPBarWidth)
	x, y := p.XPBar.X, p.XPBar.Y
	surface.SetField(FieldXPBarFill, fmt.Sprintf("%d,%d,%d,%d", x+1, y+1, x+1+width, y+7))
}

// Transition is what the host shows while the device restarts.
type Transition struct {
	Message string
	Icon    string
}

// ShowTransition displays the transitional status message and icon.
func ShowTransition(surface Surface, t Transition) {
	surface.SetField(FieldStatus, t.Message)
	if t.Icon != "" {
		surface.SetField(FieldFace, t.Icon)
	}
}
