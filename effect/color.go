package effect

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/conductor/rhythm"
)

// ColorPulse fades between two colours in time with the music.
type ColorPulse struct {
	Effect *Effect
	From   colorful.Color
	To     colorful.Color
}

// NewColorPulse creates a pulse between two hex colours such as "#FF0000".
func NewColorPulse(e *Effect, from, to string) (*ColorPulse, error) {
	fromColor, err := colorful.Hex(from)
	if err != nil {
		return nil, err
	}
	toColor, err := colorful.Hex(to)
	if err != nil {
		return nil, err
	}
	return &ColorPulse{Effect: e, From: fromColor, To: toColor}, nil
}

// Color returns the colour at a beat position.
func (p *ColorPulse) Color(beat float64) colorful.Color {
	return p.blend(p.Effect.Value(beat))
}

// Update is Color at the conductor's current beat.
func (p *ColorPulse) Update(c *rhythm.Conductor) colorful.Color {
	return p.blend(p.Effect.Update(c))
}

func (p *ColorPulse) blend(t float64) colorful.Color {
	return p.From.BlendRgb(p.To, t).Clamped()
}
