package rhythm

import (
	"fmt"
	"math"
)

const (
	DefaultBeatsPerBar   = 4
	DefaultBarsPerPhrase = 8
)

// Snapshot is a bar and phrase view of a beat position, for probing where a song sits in its musical structure.
// Beats, bars and phrases are numbered from 1, so beat position 0 is beat 1 of bar 1 of phrase 1.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Snapshot.java
type Snapshot struct {
	// Position is the continuous beat position the snapshot was taken at.
	Position      float64
	Tempo         float64
	BeatsPerBar   int
	BarsPerPhrase int
}

// NewSnapshot takes a snapshot of the conductor's current position.
func NewSnapshot(c *Conductor, beatsPerBar, barsPerPhrase int) Snapshot {
	if beatsPerBar <= 0 {
		beatsPerBar = DefaultBeatsPerBar
	}
	if barsPerPhrase <= 0 {
		barsPerPhrase = DefaultBarsPerPhrase
	}
	return Snapshot{
		Position:      c.PositionInBeats(),
		Tempo:         c.Tempo(),
		BeatsPerBar:   beatsPerBar,
		BarsPerPhrase: barsPerPhrase,
	}
}

func (s Snapshot) beatsPerPhrase() float64 {
	return float64(s.BeatsPerBar * s.BarsPerPhrase)
}

// Beat gets the beat number.
func (s Snapshot) Beat() int64 {
	return markerNumber(s.Position, 1)
}

// Bar gets the bar number.
func (s Snapshot) Bar() int64 {
	return markerNumber(s.Position, float64(s.BeatsPerBar))
}

// Phrase gets the phrase number.
func (s Snapshot) Phrase() int64 {
	return markerNumber(s.Position, s.beatsPerPhrase())
}

// BeatPhase gets how far through the current beat the snapshot is, from 0 up to but excluding 1.
func (s Snapshot) BeatPhase() float64 {
	return markerPhase(s.Position, 1)
}

// BarPhase gets how far through the current bar the snapshot is.
func (s Snapshot) BarPhase() float64 {
	return markerPhase(s.Position, float64(s.BeatsPerBar))
}

// PhrasePhase gets how far through the current phrase the snapshot is.
func (s Snapshot) PhrasePhase() float64 {
	return markerPhase(s.Position, s.beatsPerPhrase())
}

// BeatWithinBar returns the beat number relative to the start of the bar.
func (s Snapshot) BeatWithinBar() int {
	return int(math.Floor(s.BarPhase()*float64(s.BeatsPerBar))) + 1
}

// IsDownBeat checks whether the current beat is the first beat in its bar.
func (s Snapshot) IsDownBeat() bool {
	return s.BeatWithinBar() == 1
}

// BeatWithinPhrase returns the beat number relative to the start of the phrase.
func (s Snapshot) BeatWithinPhrase() int {
	return int(math.Floor(s.PhrasePhase()*s.beatsPerPhrase())) + 1
}

// IsPhraseStart checks whether the current beat is the first beat in its phrase.
func (s Snapshot) IsPhraseStart() bool {
	return s.BeatWithinPhrase() == 1
}

// BarWithinPhrase returns the bar number relative to the start of the phrase.
func (s Snapshot) BarWithinPhrase() int {
	return int(math.Floor(s.PhrasePhase()*float64(s.BarsPerPhrase))) + 1
}

// Marker returns the position as "phrase.bar.beat", with bar and beat relative to their phrase and bar.
func (s Snapshot) Marker() string {
	return fmt.Sprintf("%d.%d.%d", s.Phrase(), s.BarWithinPhrase(), s.BeatWithinBar())
}

// DistanceFromBeat determines how far, in beats, the snapshot is from its closest beat. Negative values mean
// the closest beat is still ahead.
func (s Snapshot) DistanceFromBeat() float64 {
	return distanceFromMarker(s.Position, 1)
}

// DistanceFromBar determines how far, in beats, the snapshot is from its closest bar boundary.
func (s Snapshot) DistanceFromBar() float64 {
	return distanceFromMarker(s.Position, float64(s.BeatsPerBar))
}

// DistanceFromPhrase determines how far, in beats, the snapshot is from its closest phrase boundary.
func (s Snapshot) DistanceFromPhrase() float64 {
	return distanceFromMarker(s.Position, s.beatsPerPhrase())
}

// markerNumber calculates the 1-based number of the marker containing pos, for markers interval beats apart.
func markerNumber(pos, interval float64) int64 {
	return int64(math.Floor(pos/interval)) + 1
}

// markerPhase calculates the phase of a marker
func markerPhase(pos, interval float64) float64 {
	ratio := pos / interval
	return ratio - math.Floor(ratio)
}

func distanceFromMarker(pos, interval float64) float64 {
	phase := markerPhase(pos, interval)
	if phase > 0.5 {
		return (phase - 1) * interval
	}
	return phase * interval
}
