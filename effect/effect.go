package effect

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/ease"
	"github.com/robmorgan/conductor/rhythm"
)

// Curve maps a 0-1 phase onto a 0-1 value.
type Curve func(t float64) float64

var curves = map[string]Curve{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-quart":     ease.InQuart,
	"out-quart":    ease.OutQuart,
	"in-out-quart": ease.InOutQuart,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
}

// waves start and end each period at 0, so they pulse rather than ramp
var waves = map[string]Curve{
	"sine":     Sine,
	"triangle": Triangle,
	"square":   Square,
}

// Sine rises from 0 to 1 at the middle of the period and falls back.
func Sine(t float64) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*t)
}

func Triangle(t float64) float64 {
	if t < 0.5 {
		return 2 * t
	}
	return 2 - 2*t
}

// Square is 1 for the first half of the period.
func Square(t float64) float64 {
	if t < 0.5 {
		return 1
	}
	return 0
}

// CurveByName looks up one of the named easing curves or waves.
func CurveByName(name string) (Curve, error) {
	if curve, ok := curves[name]; ok {
		return curve, nil
	}
	if wave, ok := waves[name]; ok {
		return wave, nil
	}
	return nil, fmt.Errorf("unknown curve %q", name)
}

// CurveNames lists the easing curves, sorted.
func CurveNames() []string {
	return sortedNames(curves)
}

// WaveNames lists the waves, sorted.
func WaveNames() []string {
	return sortedNames(waves)
}

func sortedNames(m map[string]Curve) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Effect is a value that repeats every Length beats, shaped by an easing curve.
type Effect struct {
	Curve Curve

	// Length is the period of the effect in beats.
	Length float64

	// Offset shifts the effect by a fraction of its length.
	Offset float64

	// Invert runs the curve from 1 down to 0.
	Invert bool
}

// NewEffect creates an effect with the named curve repeating every length beats.
func NewEffect(curve string, length float64) (*Effect, error) {
	if length <= 0 {
		return nil, fmt.Errorf("effect length must be positive, got %v", length)
	}
	c, err := CurveByName(curve)
	if err != nil {
		return nil, err
	}
	return &Effect{Curve: c, Length: length}, nil
}

// Value returns the effect's value at a beat position.
func (e *Effect) Value(beat float64) float64 {
	v := e.Curve(rhythm.LoopingPosition(beat, e.Offset, e.Length))
	if e.Invert {
		return 1 - v
	}
	return v
}

// Update is Value at the conductor's current beat.
func (e *Effect) Update(c *rhythm.Conductor) float64 {
	return e.Value(c.PositionInBeats())
}
