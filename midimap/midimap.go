// Package midimap builds tempo maps from the tempo track of a Standard MIDI File.
package midimap

import (
	"fmt"
	"io"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/conductor/logger"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/exp/slices"
)

// UnsupportedTimeFormatError is returned for files timed in SMPTE frames rather than ticks per quarter note.
type UnsupportedTimeFormatError struct {
	TimeFormat smf.TimeFormat
}

func (err UnsupportedTimeFormatError) Error() string {
	return fmt.Sprintf("unsupported time format %v, expected metric ticks", err.TimeFormat)
}

type tempoEvent struct {
	tick uint64
	bpm  float64
}

// FromSMF reads every tempo meta event in the file into a tempo map. A quarter note counts as one beat, MIDI
// tempo changes are instant so every change has a zero length ramp, and a tempo at tick 0 becomes the initial
// tempo. Files without a tempo at tick 0 start at rhythm.DefaultTempo, which is also the MIDI default.
func FromSMF(r io.Reader) (*rhythm.TempoMap, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.WithStackTrace(fmt.Errorf("reading MIDI file: %w", err))
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.WithStackTrace(UnsupportedTimeFormatError{TimeFormat: s.TimeFormat})
	}

	var events []tempoEvent
	for _, track := range s.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				events = append(events, tempoEvent{tick: tick, bpm: bpm})
			}
		}
	}

	// tempo events may be spread over several tracks
	slices.SortStableFunc(events, func(a, b tempoEvent) bool { return a.tick < b.tick })

	tm := rhythm.NewTempoMap(rhythm.DefaultTempo)
	for _, ev := range events {
		if ev.tick == 0 {
			tm.InitialTempo = ev.bpm
			continue
		}
		tm.AddChange(rhythm.TempoChange{
			Beat:  float64(ev.tick) / float64(ticks),
			Tempo: ev.bpm,
		})
	}

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"resolution": uint16(ticks),
		"tempo":      tm.InitialTempo,
		"changes":    len(tm.Changes),
	}).Debug("Imported MIDI tempo map")

	return tm, nil
}

// FromSMFFile reads the tempo map of the MIDI file at path.
func FromSMFFile(path string) (*rhythm.TempoMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	defer f.Close()

	return FromSMF(f)
}
