package rhythm

// Device is the audio output the conductor keeps in step with. Implementations own the real playback; the
// conductor only issues commands and never waits on them.
//
// PlayScheduled and Play are both sent on every start, so implementations must treat a Play that follows a
// PlayScheduled as a no-op.
type Device interface {
	// ClipLength returns the length of the loaded clip in seconds, or false when no clip is loaded.
	ClipLength() (float64, bool)

	// Pitch is the playback rate of the device. It is always positive.
	Pitch() float64

	SetMute(muted bool)

	// SetVolume sets the output gain in [0,1].
	SetVolume(volume float64)

	// Seek moves the playhead of the clip to the given time in seconds.
	Seek(seconds float64)

	// Play starts playback immediately.
	Play()

	// PlayScheduled starts playback at a timestamp of the device clock (see Now). A timestamp in the past starts
	// playback at once, as if it had begun at that time.
	PlayScheduled(at float64)

	Pause()
	Stop()

	// Now reads the device clock in seconds. It is monotonic and shares its domain with PlayScheduled.
	Now() float64
}
