// Package ebitendevice plays a clip through ebiten's audio package.
package ebitendevice

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/robmorgan/conductor/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// decoded WAV streams are 16 bit stereo
const bytesPerFrame = 4

// Player is the part of *audio.Player the device drives.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetPosition(offset time.Duration) error
	Position() time.Duration
	SetVolume(volume float64)
	Close() error
}

var (
	audioContextOnce sync.Once
	audioContext     *audio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*audio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = audio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Device plays a single clip. Ebiten players have no playback rate control, so the pitch is always 1. It is safe
// for concurrent use.
type Device struct {
	mu     sync.Mutex
	player Player
	length time.Duration
	clock  clock.WithDelayedExecution
	epoch  time.Time
	log    *logrus.Entry

	volume  float64
	muted   bool
	pending clock.Timer
}

// New wraps a player holding a clip of the given length.
func New(player Player, length time.Duration, clk clock.WithDelayedExecution) *Device {
	return &Device{
		player: player,
		length: length,
		clock:  clk,
		epoch:  clk.Now(),
		log:    logger.GetProjectLogger().WithField("component", "ebitendevice"),
		volume: 1,
	}
}

// NewFromWAV decodes a WAV clip for playback at the given sample rate. The source must stay open, and be an
// io.Seeker for seeking to work, for as long as the device is in use.
func NewFromWAV(sampleRate int, src io.Reader, clk clock.WithDelayedExecution) (*Device, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	stream, err := wav.DecodeWithSampleRate(sampleRate, src)
	if err != nil {
		return nil, errors.WithStackTrace(fmt.Errorf("decoding WAV: %w", err))
	}

	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return New(player, StreamDuration(stream.Length(), sampleRate), clk), nil
}

// StreamDuration converts the byte length of a decoded stream into a duration.
func StreamDuration(size int64, sampleRate int) time.Duration {
	frames := size / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

func (d *Device) ClipLength() (float64, bool) {
	return d.length.Seconds(), true
}

func (d *Device) Pitch() float64 {
	return 1
}

// SetMute silences the player by zeroing its volume, restoring the volume on unmute.
func (d *Device) SetMute(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if muted == d.muted {
		return
	}
	d.muted = muted
	d.applyVolume()
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
	d.applyVolume()
}

func (d *Device) Seek(seconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seek(seconds)
}

// Play starts playback now unless the player is already playing or a scheduled start is pending.
func (d *Device) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil || d.player.IsPlaying() {
		return
	}
	d.player.Play()
}

// PlayScheduled starts playback at a time on the device clock. Late starts skip ahead by the time missed.
func (d *Device) PlayScheduled(at float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()

	now := d.now()
	if at <= now {
		if late := now - at; late > 0 {
			d.seek(d.player.Position().Seconds() + late)
		}
		d.player.Play()
		return
	}

	var timer clock.Timer
	timer = d.clock.AfterFunc(time.Duration((at-now)*float64(time.Second)), func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pending != timer {
			return
		}
		d.pending = nil
		d.player.Play()
	})
	d.pending = timer
}

func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	d.player.Pause()
}

func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	d.player.Pause()
	d.seek(0)
}

// Now reads the device clock in seconds since the device was created.
func (d *Device) Now() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now()
}

// Close stops playback and releases the player.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelPending()
	return errors.WithStackTrace(d.player.Close())
}

func (d *Device) now() float64 {
	return d.clock.Since(d.epoch).Seconds()
}

func (d *Device) seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	offset := time.Duration(seconds * float64(time.Second))
	if err := d.player.SetPosition(offset); err != nil {
		d.log.WithError(err).WithField("position", seconds).Warn("Seek failed")
	}
}

func (d *Device) applyVolume() {
	if d.muted {
		d.player.SetVolume(0)
		return
	}
	d.player.SetVolume(d.volume)
}

func (d *Device) cancelPending() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
