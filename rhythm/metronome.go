package rhythm

import (
	"math"

	"github.com/robmorgan/conductor/logger"
	"github.com/sirupsen/logrus"
)

// BeatSource is anything with a continuously advancing beat position, normally a Conductor.
type BeatSource interface {
	PositionInBeats() float64
}

// BeatEvent is emitted each time the metronome crosses a whole beat.
type BeatEvent struct {
	// Beat is the whole beat that was reported.
	Beat float64
	// Position is the live beat position when the event fired.
	Position float64
}

// MetronomeOption configures a Metronome.
type MetronomeOption func(*Metronome)

// WithOffset fires beats early (positive offset) or late (negative offset) by the given fraction of a beat.
func WithOffset(offset float64) MetronomeOption {
	return func(m *Metronome) {
		m.offset = offset
	}
}

// WithEventBuffer makes Events return a channel with the given capacity.
func WithEventBuffer(size int) MetronomeOption {
	return func(m *Metronome) {
		m.events = make(chan BeatEvent, size)
	}
}

// Metronome turns a continuous beat position into one event per whole beat. It emits at most one event per
// Update; beats skipped by a seek or a big tempo jump are absorbed rather than replayed.
type Metronome struct {
	source           BeatSource
	lastReportedBeat float64
	offset           float64
	handlers         []func(BeatEvent)
	events           chan BeatEvent
	log              *logrus.Entry
}

// NewMetronome creates a new Metronome following the given source.
func NewMetronome(source BeatSource, opts ...MetronomeOption) *Metronome {
	m := &Metronome{
		source: source,
		log:    logger.GetProjectLogger().WithField("component", "metronome"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnTick registers a handler. Handlers run synchronously from Update in the order they were added.
func (m *Metronome) OnTick(handler func(BeatEvent)) {
	m.handlers = append(m.handlers, handler)
}

// Events returns the event channel, or nil when the metronome was built without WithEventBuffer. Events are
// dropped when the channel is full.
func (m *Metronome) Events() <-chan BeatEvent {
	return m.events
}

// LastReportedBeat returns the last whole beat the metronome reported or resynced to.
func (m *Metronome) LastReportedBeat() float64 {
	return m.lastReportedBeat
}

// Reset forgets the reported beat, e.g. after the song is stopped.
func (m *Metronome) Reset() {
	m.lastReportedBeat = 0
}

// Update checks the source for a crossed beat and notifies subscribers. Call once per tick after the conductor
// has advanced. It returns true if a beat was reported.
func (m *Metronome) Update() bool {
	pos := m.source.PositionInBeats()

	if m.reportBeat(pos) {
		ev := BeatEvent{Beat: m.lastReportedBeat, Position: pos}
		for _, handler := range m.handlers {
			handler(ev)
		}
		m.publish(ev)
		return true
	}

	if pos < m.lastReportedBeat {
		// seeked backwards
		m.lastReportedBeat = math.Floor(pos + m.offset)
	}
	return false
}

// reportBeat works on the offset position, so with an offset of -0.5 beat 2 fires at position 2.5 and the
// resync never counts it as already reported.
func (m *Metronome) reportBeat(pos float64) bool {
	shifted := pos + m.offset
	if shifted < m.lastReportedBeat+1 {
		return false
	}

	m.lastReportedBeat++
	if whole := math.Floor(shifted); m.lastReportedBeat < whole {
		m.lastReportedBeat = whole
	}
	return true
}

func (m *Metronome) publish(ev BeatEvent) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
		m.log.WithField("beat", ev.Beat).Warn("Beat event dropped, channel full")
	}
}
