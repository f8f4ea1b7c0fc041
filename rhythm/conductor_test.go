package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConductor(tempo float64, clipLength float64) (*Conductor, *fakeDevice) {
	dev := newFakeDevice(clipLength)
	return NewConductor(NewTempoMap(tempo), dev), dev
}

func TestNewConductor(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)

	assert.False(t, c.IsPlaying())
	assert.False(t, c.IsPaused())
	assert.False(t, c.NotStopped())
	assert.Equal(t, 0.5, c.SecondsPerBeat())
	assert.Equal(t, 120.0, c.Tempo())
	assert.Equal(t, 0.0, c.PositionInBeats())
}

func TestUpdateAdvancesWhilePlaying(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.Play(0)

	c.Update(0.5)
	assert.Equal(t, 0.5, c.Position())
	assert.Equal(t, 1.0, c.PositionInBeats())

	c.Update(0.25)
	assert.Equal(t, 0.75, c.Position())
	assert.Equal(t, 1.5, c.PositionInBeats())
}

func TestUpdateScalesByPitch(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	dev.pitch = 2
	c.Play(0)

	c.Update(0.5)
	assert.Equal(t, 1.0, c.Position())
	assert.Equal(t, 2.0, c.PositionInBeats())
	assert.Equal(t, 0.25, c.PitchedSecondsPerBeat())
}

func TestUpdateDoesNotAdvanceWhenStopped(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	c.Mute()

	c.Update(1)
	assert.Equal(t, 0.0, c.Position())
	assert.Equal(t, 0.0, c.PositionInBeats())
	assert.True(t, dev.muted)

	c.Mute()
	c.Update(1)
	assert.False(t, dev.muted)
}

func TestUpdateLooksUpTempoFromPreviousTick(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(60)
	c := NewConductor(NewTempoMap(120, TempoChange{Beat: 1, Length: 0, Tempo: 60}), dev)
	c.Play(0)

	// the tick that crosses beat 1 still runs at 120 BPM
	c.Update(0.75)
	assert.Equal(t, 1.5, c.PositionInBeats())
	assert.Equal(t, 120.0, c.Tempo())

	// the next tick picks up the new tempo
	c.Update(1)
	assert.Equal(t, 2.5, c.PositionInBeats())
	assert.Equal(t, 60.0, c.Tempo())
	assert.Equal(t, 1.0, c.SecondsPerBeat())
}

func TestSetBeat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		beat             float64
		expectedSeek     float64
		expectedPosition float64
	}{
		{"inside clip", 4, 2, 2},
		{"negative beat", -1, 0, -0.5},
		{"past clip end", 40, 0, 20},
		{"exactly clip end", 20, 0, 10},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, dev := newTestConductor(120, 10)
			c.SetBeat(tc.beat)

			require.Len(t, dev.seeks, 1)
			assert.Equal(t, tc.expectedSeek, dev.seeks[0])
			assert.Equal(t, tc.beat, c.PositionInBeats())
			assert.Equal(t, tc.expectedPosition, c.Position())
		})
	}
}

func TestSetBeatWhilePlayingKeepsClock(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.Play(0)
	c.Update(1)
	require.Equal(t, 2.0, c.PositionInBeats())

	c.SetBeat(8)
	assert.Equal(t, 4.0, c.Position())
	assert.Equal(t, 8.0, c.PositionInBeats())

	// seconds follow the untouched clock, beats count on from 8
	c.Update(0.5)
	assert.Equal(t, 1.5, c.Position())
	assert.Equal(t, 9.0, c.PositionInBeats())
}

func TestSetBeatWithoutClip(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 0)
	dev.hasClip = false

	c.SetBeat(8)
	assert.Empty(t, dev.seeks)
	assert.Equal(t, 8.0, c.PositionInBeats())
	assert.Equal(t, 4.0, c.Position())
}

func TestPlayNegativeFirstBeatOffset(t *testing.T) {
	t.Parallel()

	for _, pitch := range []float64{0.5, 1, 2} {
		c, dev := newTestConductor(120, 10)
		dev.pitch = pitch
		dev.now = 100
		c.FirstBeatOffset = -1

		c.Play(0)

		require.Equal(t, []float64{0}, dev.seeks)
		require.Len(t, dev.scheduled, 1)
		assert.Equal(t, 100+1/pitch, dev.scheduled[0])
		assert.Greater(t, dev.scheduled[0], 0.0)
		assert.Equal(t, []string{"seek", "schedule", "play"}, dev.calls)
		assert.Equal(t, 0.0, c.PositionInBeats())
		assert.True(t, c.IsPlaying())
		assert.False(t, c.IsPaused())
	}
}

func TestPlayNegativeFirstBeatOffsetPastLeadIn(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	dev.now = 5
	c.FirstBeatOffset = -1

	// beat 4 is at 2s, which is 1s into the audio
	c.Play(4)

	assert.Equal(t, []float64{1}, dev.seeks)
	assert.Equal(t, []float64{5}, dev.scheduled)
	assert.Equal(t, 4.0, c.PositionInBeats())
}

func TestPlayPositiveFirstBeatOffset(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	dev.now = 3
	c.FirstBeatOffset = 1.5

	c.Play(4)

	assert.Equal(t, []float64{3.5}, dev.seeks)
	assert.Equal(t, []float64{3}, dev.scheduled)
	assert.Equal(t, 4.0, c.PositionInBeats())

	c.Update(0.5)
	assert.Equal(t, 2.5, c.Position())
	assert.Equal(t, 5.0, c.PositionInBeats())
}

func TestPlayInsideLeadIn(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	dev.now = 3
	c.FirstBeatOffset = 1.5

	c.Play(0)

	// the clock starts 1.5s before beat 0
	assert.Equal(t, []float64{0}, dev.seeks)
	assert.Equal(t, []float64{3}, dev.scheduled)
	assert.Equal(t, -3.0, c.PositionInBeats())

	c.Update(1.5)
	assert.Equal(t, 0.0, c.Position())
	assert.Equal(t, 0.0, c.PositionInBeats())
}

func TestPlayPastClipEnd(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	c.Play(40)

	assert.Empty(t, dev.seeks)
	assert.Empty(t, dev.scheduled)
	assert.Equal(t, []string{"play"}, dev.calls)
	assert.True(t, c.IsPlaying())
	assert.Equal(t, 40.0, c.PositionInBeats())
}

func TestPlayWithoutClip(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 0)
	dev.hasClip = false
	c.Play(0)

	assert.Equal(t, []string{"play"}, dev.calls)
	assert.True(t, c.IsPlaying())
}

func TestPlaySeconds(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	c.PlaySeconds(3)

	assert.Equal(t, []float64{3}, dev.seeks)
	assert.Equal(t, 6.0, c.PositionInBeats())
}

func TestPause(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	c.Play(0)
	c.Update(1)
	c.Pause()

	assert.False(t, c.IsPlaying())
	assert.True(t, c.IsPaused())
	assert.True(t, c.NotStopped())
	assert.Equal(t, "pause", dev.calls[len(dev.calls)-1])

	c.Update(1)
	assert.Equal(t, 1.0, c.Position())
	assert.Equal(t, 2.0, c.PositionInBeats())
}

func TestStop(t *testing.T) {
	t.Parallel()

	setups := map[string]func(c *Conductor){
		"stopped": func(c *Conductor) {},
		"playing": func(c *Conductor) { c.Play(2); c.Update(0.5) },
		"paused":  func(c *Conductor) { c.Play(2); c.Update(0.5); c.Pause() },
		"seeked":  func(c *Conductor) { c.SetBeat(-3) },
	}

	for name, setup := range setups {
		setup := setup
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, dev := newTestConductor(120, 10)
			setup(c)
			c.Stop(3)

			assert.False(t, c.IsPlaying())
			assert.False(t, c.IsPaused())
			assert.False(t, c.NotStopped())
			assert.Equal(t, 0.0, c.PositionInBeats())
			assert.Equal(t, 0.0, c.Position())
			assert.Equal(t, "stop", dev.calls[len(dev.calls)-1])
		})
	}
}

func TestLoopRange(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	_, ok := c.LoopRange()
	require.False(t, ok)

	c.SetLoopRange(1, 2)
	loop, ok := c.LoopRange()
	require.True(t, ok)
	assert.Equal(t, LoopRange{Start: 1, End: 2}, loop)

	c.Play(0)
	for i := 0; i < 8; i++ {
		c.Update(0.25)
	}
	assert.Equal(t, 2.0, c.Position())
	assert.Equal(t, []float64{0}, dev.seeks)

	// passing the end replays from the loop start
	c.Update(0.25)
	assert.Equal(t, []float64{0, 1}, dev.seeks)
	assert.Equal(t, 2.0, c.PositionInBeats())

	c.Update(0.25)
	assert.Equal(t, 1.25, c.Position())
	assert.Equal(t, 2.5, c.PositionInBeats())

	c.ClearLoopRange()
	_, ok = c.LoopRange()
	assert.False(t, ok)
}

func TestReportBeat(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.Play(0)

	last := 0.0
	var fired []float64
	for i := 0; i < 8; i++ {
		c.Update(0.25)
		if c.ReportBeat(&last, 0, false) {
			fired = append(fired, c.Position())
		}
	}

	// a beat is reported once the position is strictly past the next grid line
	assert.Equal(t, []float64{0.75, 1.25, 1.75}, fired)
	assert.Equal(t, 1.5, last)
}

func TestReportBeatOffset(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.Play(0)
	c.Update(0.75)

	last := 0.0
	assert.False(t, c.ReportBeat(&last, 0.25, false))

	c.Update(0.25)
	require.True(t, c.ReportBeat(&last, 0.25, false))
	assert.Equal(t, 1.25, last)

	last = 0.0
	require.True(t, c.ReportBeat(&last, 0.25, true))
	assert.Equal(t, 1.0, last)
}

func TestSongLength(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	assert.Equal(t, 20.0, c.SongLengthInBeats())
	assert.True(t, c.SongPosLessThanClipLength(9.99))
	assert.False(t, c.SongPosLessThanClipLength(10))

	dev.hasClip = false
	assert.Equal(t, 0.0, c.SongLengthInBeats())
	assert.False(t, c.SongPosLessThanClipLength(0))
}

func TestSetVolumePercent(t *testing.T) {
	t.Parallel()

	c, dev := newTestConductor(120, 10)
	c.SetVolumePercent(50)
	assert.Equal(t, 0.5, dev.volume)
}

func TestConductorConversions(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	assert.Equal(t, 4.0, c.BeatToSeconds(8))
	assert.InDelta(t, 8.0, c.SecondsToBeats(4), 1e-9)

	c.FirstBeatOffset = 1
	assert.Equal(t, 4.0, c.BeatToSeconds(8))
	assert.InDelta(t, 10.0, c.SecondsToBeats(4), 1e-9)
}

func TestSetTempoMap(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.SetTempoMap(NewTempoMap(60))
	c.Update(0)

	assert.Equal(t, 60.0, c.Tempo())
	assert.Equal(t, 60.0, c.TempoMap().InitialTempo)
}

func TestPositionHelpers(t *testing.T) {
	t.Parallel()

	c, _ := newTestConductor(120, 10)
	c.SetBeat(3)

	assert.Equal(t, 0.5, c.PositionFromBeat(2, 2))
	assert.Equal(t, 1.5, c.PositionFromBeat(0, 2))
	assert.Equal(t, 0.75, c.LoopPositionFromBeat(0, 4))
	assert.Equal(t, 0.25, c.LoopPositionFromBeat(0.5, 4))
	assert.Equal(t, 0.5, c.PositionFromTime(1, 1))
	assert.Equal(t, 0.5, c.LoopPositionFromTime(0, 1))

	c.SetBeat(3.5)
	assert.Equal(t, 0.5, c.PositionFromMargin(4, 1))
}
