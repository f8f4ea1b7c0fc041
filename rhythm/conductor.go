package rhythm

import (
	"math"

	"github.com/robmorgan/conductor/logger"
	"github.com/sirupsen/logrus"
)

// LoopRange is a span of song time, in seconds, that playback jumps back from.
type LoopRange struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Conductor keeps a song's musical clock in step with the audio playing on a Device. It advances once per host
// tick and is not safe for concurrent use: commands must come from the same loop that calls Update.
type Conductor struct {
	tempo  *TempoMap
	device Device
	log    *logrus.Entry

	// FirstBeatOffset is the time in seconds from the start of the audio to beat 0.
	FirstBeatOffset float64

	loop *LoopRange

	// time is the logical clock that Update advances
	time          float64
	secPerBeat    float64
	songPos       float64
	songPosInBeat float64

	isPlaying bool
	isPaused  bool
	muted     bool
}

// NewConductor creates a stopped conductor at beat 0 driving the given device.
func NewConductor(tempo *TempoMap, device Device) *Conductor {
	c := &Conductor{
		tempo:  tempo,
		device: device,
		log:    logger.GetProjectLogger().WithField("component", "conductor"),
	}
	c.secPerBeat = tempo.EffectiveSecondsPerBeat(0)
	return c
}

// TempoMap returns the tempo map in use. It may be edited between ticks.
func (c *Conductor) TempoMap() *TempoMap {
	return c.tempo
}

// SetTempoMap swaps the tempo map between ticks.
func (c *Conductor) SetTempoMap(tm *TempoMap) {
	c.tempo = tm
}

// Converter returns the beat/second converter for the current tempo map and first beat offset.
func (c *Conductor) Converter() Converter {
	return Converter{Tempo: c.tempo, FirstBeatOffset: c.FirstBeatOffset}
}

// SetLoopRange makes playback return to start whenever it passes end (both in seconds).
func (c *Conductor) SetLoopRange(start, end float64) {
	c.loop = &LoopRange{Start: start, End: end}
}

// ClearLoopRange disables looping.
func (c *Conductor) ClearLoopRange() {
	c.loop = nil
}

// LoopRange returns the configured loop, if any.
func (c *Conductor) LoopRange() (LoopRange, bool) {
	if c.loop == nil {
		return LoopRange{}, false
	}
	return *c.loop, true
}

// Update advances the clock by delta seconds of real time. It must be called once per host tick.
func (c *Conductor) Update(delta float64) {
	// looked up from the previous tick's position so a ramp can't feed back into itself within a tick
	c.secPerBeat = c.tempo.EffectiveSecondsPerBeat(c.songPosInBeat)

	c.device.SetMute(c.muted)

	if c.isPlaying {
		dt := delta * c.device.Pitch()
		c.time += dt
		c.songPos = c.time
		c.songPosInBeat += dt / c.secPerBeat
	}

	if c.loop != nil && c.songPos > c.loop.End {
		c.log.WithFields(logrus.Fields{"position": c.songPos, "loop_start": c.loop.Start, "loop_end": c.loop.End}).
			Debug("Looping")
		c.PlaySeconds(c.loop.Start)
	}
}

// SetBeat jumps to the given beat. The device is seeked to the matching time when that time lies within the
// clip and to the start of the clip otherwise, while the logical position always takes the requested beat, so
// charts may run past the end of the audio.
//
// The logical clock is left alone. While playing, the next Update sets Position back to the clock's elapsed
// time and keeps counting beats from the new beat, so the two drift apart until the next Play.
func (c *Conductor) SetBeat(beat float64) {
	secFromBeat := c.BeatToSeconds(beat)

	if length, ok := c.device.ClipLength(); ok {
		if secFromBeat >= 0 && secFromBeat < length {
			c.device.Seek(secFromBeat)
		} else {
			c.device.Seek(0)
		}
	}

	c.songPos = secFromBeat
	c.songPosInBeat = beat

	c.log.WithFields(logrus.Fields{"beat": beat, "position": secFromBeat}).Debug("SetBeat")
}

// Play starts playback at the given beat.
func (c *Conductor) Play(beat float64) {
	c.play(c.BeatToSeconds(beat))
}

// PlaySeconds starts playback at the given song position in seconds.
func (c *Conductor) PlaySeconds(seconds float64) {
	c.play(seconds)
}

// play lines logical beat 0 up with the device clock. The physical start is scheduled on the device clock
// rather than issued directly to keep command latency out of the sync.
func (c *Conductor) play(startPos float64) {
	negativeOffset := c.FirstBeatOffset < 0
	negativeStartTime := false

	if negativeOffset {
		c.time = startPos
	} else {
		negativeStartTime = startPos-c.FirstBeatOffset < 0
		if negativeStartTime {
			// inside the lead-in, so the clock starts before beat 0
			c.time = startPos - c.FirstBeatOffset
		} else {
			c.time = startPos
		}
	}

	c.songPosInBeat = c.time / c.secPerBeat

	c.isPlaying = true
	c.isPaused = false

	fields := logrus.Fields{
		"start":             startPos,
		"time":              c.time,
		"beat":              c.songPosInBeat,
		"first_beat_offset": c.FirstBeatOffset,
	}

	if c.SongPosLessThanClipLength(startPos) {
		now := c.device.Now()
		at := now
		seek := startPos + c.FirstBeatOffset

		if negativeOffset {
			if seek < 0 {
				seek = startPos
				at = now - c.FirstBeatOffset/c.device.Pitch()
			}
		} else if negativeStartTime {
			seek = startPos
		}

		c.device.Seek(seek)
		c.device.PlayScheduled(at)

		fields["seek"] = seek
		fields["scheduled_at"] = at
		fields["now"] = now
	}

	// backends that ignore scheduled starts still need a play command
	c.device.Play()

	c.log.WithFields(fields).Debug("Play")
}

// Pause halts playback without moving the position.
func (c *Conductor) Pause() {
	c.isPlaying = false
	c.isPaused = true

	c.device.Pause()
	c.log.WithField("position", c.songPos).Debug("Pause")
}

// Stop halts playback and rewinds to beat 0, leaving the clock at the given time.
func (c *Conductor) Stop(time float64) {
	c.time = time

	c.songPos = 0
	c.songPosInBeat = 0

	c.isPlaying = false
	c.isPaused = false

	c.device.Stop()
	c.log.WithField("time", time).Debug("Stop")
}

// Mute toggles the mute state. It only affects the device output and is applied on the next Update.
func (c *Conductor) Mute() {
	c.muted = !c.muted
}

// IsMuted reports whether output is muted.
func (c *Conductor) IsMuted() bool {
	return c.muted
}

// SetVolumePercent sets the device volume from 0 to 100.
func (c *Conductor) SetVolumePercent(percent int) {
	c.device.SetVolume(float64(percent) / 100.0)
}

// ReportBeat detects beats in the seconds domain. It returns true once the position passes lastReportedBeat
// plus offset plus one beat, then snaps lastReportedBeat down to the beat grid. Unless shiftBeatToOffset is
// set, the offset is added back onto the snapped value.
func (c *Conductor) ReportBeat(lastReportedBeat *float64, offset float64, shiftBeatToOffset bool) bool {
	result := c.songPos > (*lastReportedBeat+offset)+c.secPerBeat
	if result {
		*lastReportedBeat = c.songPos - math.Mod(c.songPos, c.secPerBeat)

		if !shiftBeatToOffset {
			*lastReportedBeat += offset
		}
	}
	return result
}

// BeatToSeconds converts a beat to a song position in seconds, see Converter.ApproximateBeatToSeconds.
func (c *Conductor) BeatToSeconds(beat float64) float64 {
	return c.Converter().ApproximateBeatToSeconds(beat)
}

// SecondsToBeats converts a song position in seconds to a beat, see Converter.IntegratedSecondsToBeats.
func (c *Conductor) SecondsToBeats(seconds float64) float64 {
	return c.Converter().IntegratedSecondsToBeats(seconds)
}

// SongLengthInBeats returns the clip length at the current tempo, or 0 without a clip.
func (c *Conductor) SongLengthInBeats() float64 {
	length, ok := c.device.ClipLength()
	if !ok {
		return 0
	}
	return length / c.secPerBeat
}

// SongPosLessThanClipLength reports whether t falls before the end of the clip. It's false without a clip.
func (c *Conductor) SongPosLessThanClipLength(t float64) bool {
	length, ok := c.device.ClipLength()
	if !ok {
		return false
	}
	return t < length
}

// NotStopped returns true if the song is playing or paused.
func (c *Conductor) NotStopped() bool {
	return c.isPlaying || c.isPaused
}

func (c *Conductor) IsPlaying() bool {
	return c.isPlaying
}

func (c *Conductor) IsPaused() bool {
	return c.isPaused
}

// Position is the song position in seconds.
func (c *Conductor) Position() float64 {
	return c.songPos
}

// PositionInBeats is the song position in beats.
func (c *Conductor) PositionInBeats() float64 {
	return c.songPosInBeat
}

// Tempo is the current tempo in BPM.
func (c *Conductor) Tempo() float64 {
	return 60.0 / c.secPerBeat
}

// SecondsPerBeat is the current length of a beat in song seconds.
func (c *Conductor) SecondsPerBeat() float64 {
	return c.secPerBeat
}

// PitchedSecondsPerBeat is the current length of a beat in real seconds, so a higher pitch gives shorter beats.
func (c *Conductor) PitchedSecondsPerBeat() float64 {
	return c.secPerBeat / c.device.Pitch()
}

// PositionFromBeat normalises the position over length beats starting at startBeat. On beat 3 with a startBeat
// of 2 and a length of 2 it returns 0.5.
func (c *Conductor) PositionFromBeat(startBeat, length float64) float64 {
	return NormalizedPosition(c.songPosInBeat, startBeat, length)
}

// PositionFromTime is PositionFromBeat in seconds.
func (c *Conductor) PositionFromTime(startTime, length float64) float64 {
	return NormalizedPosition(c.songPos, startTime, length)
}

// PositionFromMargin normalises over the margin beats leading up to targetBeat.
func (c *Conductor) PositionFromMargin(targetBeat, margin float64) float64 {
	return MarginPosition(c.songPosInBeat, targetBeat, margin)
}

// LoopPositionFromBeat is the phase of the position within a loop of length beats.
func (c *Conductor) LoopPositionFromBeat(beatOffset, length float64) float64 {
	return LoopingPosition(c.songPosInBeat, beatOffset, length)
}

// LoopPositionFromTime is the phase of the position within a loop of length seconds.
func (c *Conductor) LoopPositionFromTime(timeOffset, length float64) float64 {
	return LoopingPosition(c.songPos, timeOffset, length)
}
