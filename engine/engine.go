// Package engine drives a conductor from a clock, the way a game or lighting loop would.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robmorgan/conductor/logger"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Frame describes the conductor after one tick.
type Frame struct {
	Index    int64
	Delta    float64
	Position float64
	Beats    float64
	Tempo    float64
	Marker   string
	// Beat is set when any metronome reported a beat during the tick.
	Beat bool
}

func (f Frame) String() string {
	beat := ""
	if f.Beat {
		beat = " beat"
	}
	return fmt.Sprintf("%04d t=%.4f beats=%.4f bpm=%.2f %s%s", f.Index, f.Position, f.Beats, f.Tempo, f.Marker, beat)
}

// Engine owns a conductor and ticks it. All conductor access goes through the engine's loop, so commands from
// other goroutines are queued with Do.
type Engine struct {
	clock     clock.WithTicker
	conductor *rhythm.Conductor
	interval  time.Duration
	log       *logrus.Entry

	beatsPerBar   int
	barsPerPhrase int

	metronomes []*rhythm.Metronome
	frameFuncs []func(Frame)
	commands   chan func(*rhythm.Conductor)
	frames     int64
}

// New creates an engine ticking c fps times a second.
func New(clk clock.WithTicker, c *rhythm.Conductor, fps int) *Engine {
	if fps <= 0 {
		fps = 60
	}
	return &Engine{
		clock:         clk,
		conductor:     c,
		interval:      time.Second / time.Duration(fps),
		log:           logger.GetProjectLogger().WithField("component", "engine"),
		beatsPerBar:   rhythm.DefaultBeatsPerBar,
		barsPerPhrase: rhythm.DefaultBarsPerPhrase,
		commands:      make(chan func(*rhythm.Conductor)),
	}
}

// SetStructure sets the bar and phrase sizes used for frame markers.
func (e *Engine) SetStructure(beatsPerBar, barsPerPhrase int) {
	e.beatsPerBar = beatsPerBar
	e.barsPerPhrase = barsPerPhrase
}

// Conductor gives direct access to the conductor. Only use it from the engine's goroutine or before Run.
func (e *Engine) Conductor() *rhythm.Conductor {
	return e.conductor
}

// AddMetronome makes the engine update m after each tick.
func (e *Engine) AddMetronome(m *rhythm.Metronome) {
	e.metronomes = append(e.metronomes, m)
}

// OnFrame registers a function called with every frame.
func (e *Engine) OnFrame(fn func(Frame)) {
	e.frameFuncs = append(e.frameFuncs, fn)
}

// Interval is the time between ticks.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Do hands cmd to the running loop and returns once the loop has taken it, so commands are applied before the
// next tick. It fails if ctx is done first.
func (e *Engine) Do(ctx context.Context, cmd func(*rhythm.Conductor)) error {
	select {
	case e.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step advances the conductor by delta seconds and updates the metronomes.
func (e *Engine) Step(delta float64) Frame {
	e.conductor.Update(delta)

	fired := false
	for _, m := range e.metronomes {
		if m.Update() {
			fired = true
		}
	}

	e.frames++
	snap := rhythm.NewSnapshot(e.conductor, e.beatsPerBar, e.barsPerPhrase)
	f := Frame{
		Index:    e.frames,
		Delta:    delta,
		Position: e.conductor.Position(),
		Beats:    snap.Position,
		Tempo:    snap.Tempo,
		Marker:   snap.Marker(),
		Beat:     fired,
	}
	for _, fn := range e.frameFuncs {
		fn(f)
	}
	return f
}

// Run ticks the conductor until ctx is done. The delta of each tick is the clock time since the previous one.
func (e *Engine) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	e.log.WithField("interval", e.interval).Info("Engine started")

	last := e.clock.Now()
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.WithField("frames", e.frames).Info("Engine shutdown")
			return
		case cmd := <-e.commands:
			cmd(e.conductor)
		case now := <-ticker.C():
			e.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}
