package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

var started = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("53,64")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 53, Y: 64}, p)
	assert.Equal(t, "53,64", p.String())

	p, err = ParsePoint(" 1 , 2 ")
	require.NoError(t, err)
	assert.Equal(t, Point{1, 2}, p)

	for _, bad := range []string{"", "53", "a,1", "1,b"} {
		_, err := ParsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestXPPercent(t *testing.T) {
	assert.InDelta(t, 50.0, XPPercent(pet.State{Form: stage.Agumon, Experience: 750}), 1e-9)
	assert.InDelta(t, 25.0, XPPercent(pet.State{Form: stage.Greymon, Experience: 750}), 1e-9)
	assert.Equal(t, 100.0, XPPercent(pet.State{Form: stage.MetalGreymon, Experience: 99999}))
}

func TestRenderDigistats(t *testing.T) {
	s := pet.State{
		Form:             stage.MetalGreymon,
		Experience:       750,
		StartedAt:        started,
		HandshakeCount:   12,
		AssociationCount: 34,
		DeauthCount:      5,
	}
	now := started.Add(3*24*time.Hour + 5*time.Hour) // 3 days, 14:00

	mem := NewMemory()
	Presenter{Digistats: true, XPBar: Point{53, 64}}.Render(mem, s, now)

	expect := map[string]string{
		FieldCurrentForm:  "Metal Greymon",
		FieldClock:        "02:00 PM",
		FieldAge:          "3A",
		FieldHandshakes:   "12",
		FieldAssociations: "34",
		FieldDeauths:      "5",
		FieldXPCount:      "50%",
		FieldXPBarFill:    "54,65,84,71",
	}
	assert.Equal(t, expect, mem.Snapshot())
}

func TestRenderWithoutDigistats(t *testing.T) {
	mem := NewMemory()
	Presenter{}.Render(mem, pet.State{Form: stage.Agumon, StartedAt: started}, started)
	assert.Equal(t, []string{FieldClock, FieldCurrentForm}, mem.Names())
}

func TestShowTransitionAndMulti(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	ShowTransition(Multi{a, b}, Transition{Message: "Evolving...", Icon: "/custom-faces/evolve.png"})

	for _, m := range []*Memory{a, b} {
		status, _ := m.Field(FieldStatus)
		face, _ := m.Field(FieldFace)
		assert.Equal(t, "Evolving...", status)
		assert.Equal(t, "/custom-faces/evolve.png", face)
	}
}
