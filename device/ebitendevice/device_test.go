package ebitendevice

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

type fakePlayer struct {
	playing   bool
	position  time.Duration
	volume    float64
	plays     int
	seekErr   error
	closed    bool
	positions []time.Duration
}

func (p *fakePlayer) Play() {
	p.playing = true
	p.plays++
}

func (p *fakePlayer) Pause()          { p.playing = false }
func (p *fakePlayer) IsPlaying() bool { return p.playing }

func (p *fakePlayer) SetPosition(offset time.Duration) error {
	if p.seekErr != nil {
		return p.seekErr
	}
	p.position = offset
	p.positions = append(p.positions, offset)
	return nil
}

func (p *fakePlayer) Position() time.Duration  { return p.position }
func (p *fakePlayer) SetVolume(volume float64) { p.volume = volume }

func (p *fakePlayer) Close() error {
	p.closed = true
	return nil
}

func newTestDevice() (*Device, *fakePlayer, *testclock.FakeClock) {
	fc := testclock.NewFakeClock(time.Unix(0, 0))
	p := &fakePlayer{volume: 1}
	return New(p, 90*time.Second, fc), p, fc
}

func TestStreamDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, StreamDuration(44100*bytesPerFrame, 44100))
	assert.Equal(t, 1500*time.Millisecond, StreamDuration(72000*bytesPerFrame, 48000))
}

func TestClipAndPitch(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDevice()
	length, ok := d.ClipLength()
	assert.True(t, ok)
	assert.Equal(t, 90.0, length)
	assert.Equal(t, 1.0, d.Pitch())
}

func TestPlayIsIdempotent(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	d.Play()
	d.Play()
	assert.Equal(t, 1, p.plays)
}

func TestPlayScheduledWaitsForClock(t *testing.T) {
	t.Parallel()

	d, p, fc := newTestDevice()
	d.Seek(2)
	d.PlayScheduled(1)
	d.Play()
	assert.False(t, p.playing)

	fc.Step(time.Second)
	assert.True(t, p.playing)
	assert.Equal(t, 1, p.plays)
	assert.Equal(t, 2*time.Second, p.position)
}

func TestLateScheduledStartSkipsAhead(t *testing.T) {
	t.Parallel()

	d, p, fc := newTestDevice()
	fc.Step(2 * time.Second)

	d.Seek(1)
	d.PlayScheduled(1.5)

	assert.True(t, p.playing)
	assert.Equal(t, 1500*time.Millisecond, p.position)
}

func TestPauseCancelsScheduledStart(t *testing.T) {
	t.Parallel()

	d, p, fc := newTestDevice()
	d.PlayScheduled(1)
	d.Pause()
	fc.Step(2 * time.Second)
	assert.False(t, p.playing)
}

func TestStopRewinds(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	d.Seek(10)
	d.Play()
	d.Stop()

	assert.False(t, p.playing)
	assert.Equal(t, time.Duration(0), p.position)
}

func TestMuteRestoresVolume(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	d.SetVolume(0.6)
	assert.Equal(t, 0.6, p.volume)

	d.SetMute(true)
	assert.Equal(t, 0.0, p.volume)

	d.SetVolume(0.4)
	assert.Equal(t, 0.0, p.volume)

	d.SetMute(false)
	assert.Equal(t, 0.4, p.volume)

	d.SetVolume(2)
	assert.Equal(t, 1.0, p.volume)
}

func TestSeekErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	p.seekErr = errors.New("not seekable")
	d.Seek(3)
	d.Seek(-1)
	assert.Empty(t, p.positions)
}

func TestSeekClampsNegative(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	d.Seek(-1)
	assert.Equal(t, []time.Duration{0}, p.positions)
}

func TestClose(t *testing.T) {
	t.Parallel()

	d, p, _ := newTestDevice()
	require.NoError(t, d.Close())
	assert.True(t, p.closed)
}
