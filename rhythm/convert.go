package rhythm

// Converter maps between beat and second positions of a song.
//
// The two directions are not inverses of each other once the tempo map has changes.
// ApproximateBeatToSeconds prices every beat at the tempo in effect at the queried beat, which is close enough
// for seeking near the current position. IntegratedSecondsToBeats walks the changes and uses each segment's
// committed tempo. Callers that depend on either behaviour should call it by name.
type Converter struct {
	Tempo *TempoMap

	// FirstBeatOffset is the time in seconds from the start of the audio to beat 0. Negative values mean beat 0
	// happens before the audio starts.
	FirstBeatOffset float64
}

// ApproximateBeatToSeconds converts a beat position to a song position in seconds.
func (c Converter) ApproximateBeatToSeconds(beat float64) float64 {
	secPerBeat := c.Tempo.EffectiveSecondsPerBeat(beat)

	counter := 0.0
	lastChangeBeat := 0.0
	for _, tc := range c.Tempo.Changes {
		if tc.Beat > beat {
			break
		}
		counter += (tc.Beat - lastChangeBeat) * secPerBeat
		lastChangeBeat = tc.Beat
	}

	return counter + (beat-lastChangeBeat)*secPerBeat
}

// IntegratedSecondsToBeats converts a song position in seconds to a beat position, taking the first beat
// offset into account.
func (c Converter) IntegratedSecondsToBeats(seconds float64) float64 {
	lastChangeBeat := 0.0
	lastTempo := c.Tempo.InitialTempo
	counter := -c.FirstBeatOffset

	for _, tc := range c.Tempo.Changes {
		next := counter + BeatDuration(tc.Beat-lastChangeBeat, lastTempo)
		if next >= seconds {
			break
		}
		lastChangeBeat = tc.Beat
		lastTempo = tc.Tempo
		counter = next
	}

	return lastChangeBeat + BeatCount(seconds-counter, lastTempo)
}

// BeatDuration returns how many seconds the given number of beats last at a fixed tempo.
func BeatDuration(beats, tempo float64) float64 {
	return beats / tempo * 60.0
}

// BeatCount returns how many beats fit in the given number of seconds at a fixed tempo.
func BeatCount(seconds, tempo float64) float64 {
	return seconds / 60.0 * tempo
}
