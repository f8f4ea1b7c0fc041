// Package sim provides a simulated audio device. It plays nothing, but keeps a playhead that advances with its
// clock the way a real clip would, which makes it useful for headless runs and tests.
package sim

import (
	"sync"
	"time"

	"github.com/robmorgan/conductor/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Option configures a Device.
type Option func(*Device)

// WithClip loads a clip of the given length in seconds.
func WithClip(length float64) Option {
	return func(d *Device) {
		d.clipLength = length
		d.hasClip = true
	}
}

// WithPitch sets the playback rate.
func WithPitch(pitch float64) Option {
	return func(d *Device) {
		d.pitch = pitch
	}
}

// Device is a simulated playback device driven by a clock. It is safe for concurrent use.
type Device struct {
	mu    sync.Mutex
	clock clock.WithDelayedExecution
	epoch time.Time
	log   *logrus.Entry

	clipLength float64
	hasClip    bool
	pitch      float64
	volume     float64
	muted      bool

	playing bool
	// offset is the playhead at startedAt, both in seconds
	offset    float64
	startedAt float64
	pending   clock.Timer
}

// New creates a stopped device. Its Now starts at 0 when New is called.
func New(clk clock.WithDelayedExecution, opts ...Option) *Device {
	d := &Device{
		clock:  clk,
		epoch:  clk.Now(),
		log:    logger.GetProjectLogger().WithField("component", "sim"),
		pitch:  1,
		volume: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LoadClip replaces the clip and rewinds.
func (d *Device) LoadClip(length float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	d.clipLength = length
	d.hasClip = true
	d.playing = false
	d.offset = 0
}

func (d *Device) ClipLength() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipLength, d.hasClip
}

func (d *Device) Pitch() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pitch
}

// SetPitch changes the playback rate without moving the playhead.
func (d *Device) SetPitch(pitch float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.playing {
		now := d.now()
		d.offset = d.positionAt(now)
		d.startedAt = now
	}
	d.pitch = pitch
}

func (d *Device) SetMute(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

func (d *Device) IsMuted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

func (d *Device) SetVolume(volume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	d.volume = volume
}

func (d *Device) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Seek moves the playhead, clamped to the clip.
func (d *Device) Seek(seconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if d.hasClip && seconds > d.clipLength {
		seconds = d.clipLength
	}
	d.offset = seconds
	d.startedAt = d.now()
}

// Play starts playback now. It does nothing while playing or while a scheduled start is pending.
func (d *Device) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.playing || d.pending != nil {
		return
	}
	d.start(d.now())
}

// PlayScheduled starts playback at the given device time. A time that has already passed starts playback at
// once with the playhead advanced by the time missed.
func (d *Device) PlayScheduled(at float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	d.playing = false

	now := d.now()
	if at <= now {
		d.start(at)
		return
	}

	wait := time.Duration((at - now) * float64(time.Second))
	d.log.WithFields(logrus.Fields{"at": at, "wait": wait}).Debug("Scheduled start")

	var timer clock.Timer
	timer = d.clock.AfterFunc(wait, func() {
		// fake clocks run this while holding their own lock, so it must not read the clock
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pending != timer {
			return
		}
		d.pending = nil
		d.start(at)
	})
	d.pending = timer
}

func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	if d.playing {
		d.offset = d.positionAt(d.now())
		d.playing = false
	}
}

func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	d.playing = false
	d.offset = 0
}

// Now reads the device clock in seconds since the device was created.
func (d *Device) Now() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now()
}

// Position returns the playhead in seconds.
func (d *Device) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionAt(d.now())
}

// IsPlaying is true while the playhead is moving. Playback ends by itself at the end of the clip.
func (d *Device) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing {
		return false
	}
	return !d.hasClip || d.positionAt(d.now()) < d.clipLength
}

func (d *Device) now() float64 {
	return d.clock.Since(d.epoch).Seconds()
}

func (d *Device) start(at float64) {
	d.playing = true
	d.startedAt = at
}

func (d *Device) positionAt(now float64) float64 {
	if !d.playing {
		return d.offset
	}
	pos := d.offset + (now-d.startedAt)*d.pitch
	if d.hasClip && pos > d.clipLength {
		pos = d.clipLength
	}
	return pos
}

func (d *Device) cancelPending() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
