package rhythm

import (
	"fmt"
	"math"

	"github.com/robmorgan/conductor/engine/scale"
	"golang.org/x/exp/slices"
)

// minRampLength guards the ramp progress division, so a zero-length ramp behaves as an instant tempo jump.
const minRampLength = 1e-6

// DefaultTempo is used whenever a tempo map is built without an explicit initial tempo.
const DefaultTempo = 120.0

// TempoChange is a linear tempo ramp. It begins at Beat, continuing from whatever tempo is in effect at that
// point, and reaches Tempo after Length beats. A zero Length is an instantaneous jump.
type TempoChange struct {
	Beat   float64 `yaml:"beat"`
	Length float64 `yaml:"length"`
	Tempo  float64 `yaml:"tempo"`
}

// TempoMap holds the tempo of a song as a starting tempo followed by ramps. Changes must be kept in ascending
// Beat order by whoever mutates them; the map never sorts itself.
type TempoMap struct {
	InitialTempo float64
	Changes      []TempoChange
}

// NewTempoMap creates a tempo map starting at the given tempo.
func NewTempoMap(initialTempo float64, changes ...TempoChange) *TempoMap {
	return &TempoMap{
		InitialTempo: initialTempo,
		Changes:      changes,
	}
}

// AddChange appends a tempo change. The caller is responsible for keeping the changes sorted.
func (tm *TempoMap) AddChange(tc TempoChange) {
	tm.Changes = append(tm.Changes, tc)
}

// RemoveChange deletes the change at index i.
func (tm *TempoMap) RemoveChange(i int) error {
	if i < 0 || i >= len(tm.Changes) {
		return fmt.Errorf("tempo change index %d out of range [0,%d)", i, len(tm.Changes))
	}
	tm.Changes = slices.Delete(tm.Changes, i, i+1)
	return nil
}

// EffectiveTempo resolves the tempo in BPM at the given beat position. Tempo is a chain of clamped linear ramps:
// once a ramp completes the tempo holds at its target until the next change begins.
func (tm *TempoMap) EffectiveTempo(beat float64) float64 {
	tempo := tm.InitialTempo
	lastTempo := tempo

	for _, tc := range tm.Changes {
		if tc.Beat > beat {
			continue
		}
		progress := scale.Clamp((beat-tc.Beat)/math.Max(tc.Length, minRampLength), 0, 1)
		tempo = scale.Lerp(lastTempo, tc.Tempo, progress)
		lastTempo = tc.Tempo
	}

	return tempo
}

// EffectiveSecondsPerBeat is the length of one beat in seconds at the given beat position.
func (tm *TempoMap) EffectiveSecondsPerBeat(beat float64) float64 {
	return 60.0 / tm.EffectiveTempo(beat)
}

// Validate reports the first problem found in the tempo map. The rest of the package tolerates invalid maps, so
// this is for hosts that want to reject bad data when it's loaded.
func (tm *TempoMap) Validate() error {
	if tm.InitialTempo <= 0 || math.IsNaN(tm.InitialTempo) {
		return InvalidTempoError{Index: -1, Tempo: tm.InitialTempo}
	}
	for i, tc := range tm.Changes {
		if tc.Tempo <= 0 || math.IsNaN(tc.Tempo) {
			return InvalidTempoError{Index: i, Tempo: tc.Tempo}
		}
		if tc.Length < 0 || math.IsNaN(tc.Length) {
			return InvalidRampError{Index: i, Length: tc.Length}
		}
	}
	if !slices.IsSortedFunc(tm.Changes, func(a, b TempoChange) bool { return a.Beat < b.Beat }) {
		return UnsortedChangesError{}
	}
	return nil
}

// Clone returns a deep copy, so a host can build the next tempo map while the current one is in use.
func (tm *TempoMap) Clone() *TempoMap {
	return &TempoMap{
		InitialTempo: tm.InitialTempo,
		Changes:      slices.Clone(tm.Changes),
	}
}

// InvalidTempoError is returned for a non-positive tempo. Index -1 refers to the initial tempo.
type InvalidTempoError struct {
	Index int
	Tempo float64
}

func (err InvalidTempoError) Error() string {
	if err.Index < 0 {
		return fmt.Sprintf("initial tempo must be positive, got %v", err.Tempo)
	}
	return fmt.Sprintf("tempo change %d: tempo must be positive, got %v", err.Index, err.Tempo)
}

// InvalidRampError is returned for a negative ramp length.
type InvalidRampError struct {
	Index  int
	Length float64
}

func (err InvalidRampError) Error() string {
	return fmt.Sprintf("tempo change %d: ramp length must not be negative, got %v", err.Index, err.Length)
}

// UnsortedChangesError is returned when tempo changes are not in ascending beat order.
type UnsortedChangesError struct{}

func (err UnsortedChangesError) Error() string {
	return "tempo changes must be sorted by beat"
}
