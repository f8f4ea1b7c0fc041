package rhythm

// fakeDevice records every command the conductor sends it.
type fakeDevice struct {
	clipLength float64
	hasClip    bool
	pitch      float64
	now        float64

	muted     bool
	volume    float64
	seeks     []float64
	scheduled []float64
	calls     []string
}

func newFakeDevice(clipLength float64) *fakeDevice {
	return &fakeDevice{
		clipLength: clipLength,
		hasClip:    true,
		pitch:      1,
		volume:     1,
	}
}

func (d *fakeDevice) ClipLength() (float64, bool) {
	return d.clipLength, d.hasClip
}

func (d *fakeDevice) Pitch() float64 {
	return d.pitch
}

func (d *fakeDevice) SetMute(muted bool) {
	d.muted = muted
}

func (d *fakeDevice) SetVolume(volume float64) {
	d.volume = volume
}

func (d *fakeDevice) Seek(seconds float64) {
	d.seeks = append(d.seeks, seconds)
	d.calls = append(d.calls, "seek")
}

func (d *fakeDevice) Play() {
	d.calls = append(d.calls, "play")
}

func (d *fakeDevice) PlayScheduled(at float64) {
	d.scheduled = append(d.scheduled, at)
	d.calls = append(d.calls, "schedule")
}

func (d *fakeDevice) Pause() {
	d.calls = append(d.calls, "pause")
}

func (d *fakeDevice) Stop() {
	d.calls = append(d.calls, "stop")
}

func (d *fakeDevice) Now() float64 {
	return d.now
}
