package rhythm

const maxTaps = 50

// TapTempo estimates a tempo from taps, averaging the gaps between the most recent taps. It runs on the same
// host tick as the conductor: Tap marks a tap and the next Update records it.
type TapTempo struct {
	pressed   bool
	sinceLast float64
	// gaps[0] is the time before the first tap and never counts
	gaps  []float64
	tempo float64
}

// Tap registers a tap. It's timed by the next Update.
func (tt *TapTempo) Tap() {
	tt.pressed = true
}

// Update advances time by delta seconds and records any pending tap.
func (tt *TapTempo) Update(delta float64) {
	tt.sinceLast += delta
	if !tt.pressed {
		return
	}

	tt.pressed = false
	tt.gaps = append(tt.gaps, tt.sinceLast)
	tt.sinceLast = 0

	if len(tt.gaps) > maxTaps {
		tt.gaps = tt.gaps[1:]
	}
	tt.tempo = tt.estimate()
}

func (tt *TapTempo) estimate() float64 {
	if len(tt.gaps) < 2 {
		return 0
	}
	sum := 0.0
	for _, gap := range tt.gaps[1:] {
		sum += gap
	}
	return 60.0 / (sum / float64(len(tt.gaps)-1))
}

// Tempo is the estimated tempo in BPM, or 0 before the second tap.
func (tt *TapTempo) Tempo() float64 {
	return tt.tempo
}

// Reset forgets all taps.
func (tt *TapTempo) Reset() {
	*tt = TapTempo{}
}
