package config

import (
	"fmt"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/conductor/logger"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInitialTempo = 145.0
	DefaultFPS          = 60
	DefaultVolume       = 100
)

// SessionConfig represents options that configure a conductor session
type SessionConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	LogLevel string `yaml:"log_level"`

	// InitialTempo is the tempo in BPM before the first tempo change.
	InitialTempo float64              `yaml:"initial_tempo"`
	TempoChanges []rhythm.TempoChange `yaml:"tempo_changes"`

	// FirstBeatOffset is the time in seconds from the start of the audio to beat 0. It may be negative.
	FirstBeatOffset float64 `yaml:"first_beat_offset"`

	BeatsPerBar   int `yaml:"beats_per_bar"`
	BarsPerPhrase int `yaml:"bars_per_phrase"`

	Loop *rhythm.LoopRange `yaml:"loop,omitempty"`

	// FPS is the host tick rate.
	FPS int `yaml:"fps"`

	// Audio is the WAV file played by the play command.
	Audio string `yaml:"audio,omitempty"`

	// ClipLength and Pitch describe the simulated clip used when there is no audio file.
	ClipLength float64 `yaml:"clip_length"`
	Pitch      float64 `yaml:"pitch"`

	// Volume is the output volume from 0 to 100.
	Volume int `yaml:"volume"`
}

// NewSessionConfig creates a new SessionConfig object with reasonable defaults for real usage
func NewSessionConfig() SessionConfig {
	return SessionConfig{
		Logger:        logger.GetProjectLogger(),
		LogLevel:      "info",
		InitialTempo:  DefaultInitialTempo,
		BeatsPerBar:   rhythm.DefaultBeatsPerBar,
		BarsPerPhrase: rhythm.DefaultBarsPerPhrase,
		FPS:           DefaultFPS,
		ClipLength:    180,
		Pitch:         1,
		Volume:        DefaultVolume,
	}
}

// Parse reads a YAML session on top of the defaults and validates it.
func Parse(data []byte) (SessionConfig, error) {
	cfg := NewSessionConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SessionConfig{}, errors.WithStackTrace(fmt.Errorf("parsing session config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return cfg, nil
}

// Load reads and parses the session file at path.
func Load(path string) (SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionConfig{}, errors.WithStackTrace(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg.Logger.WithFields(logrus.Fields{"path": path, "tempo": cfg.InitialTempo, "changes": len(cfg.TempoChanges)}).
		Debug("Loaded session config")
	return cfg, nil
}

// Validate checks the session for values the conductor can't run with.
func (c SessionConfig) Validate() error {
	if err := c.TempoMap().Validate(); err != nil {
		return errors.WithStackTrace(err)
	}
	if c.FPS <= 0 {
		return errors.WithStackTrace(fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Pitch <= 0 {
		return errors.WithStackTrace(fmt.Errorf("pitch must be positive, got %v", c.Pitch))
	}
	if c.ClipLength < 0 {
		return errors.WithStackTrace(fmt.Errorf("clip_length can't be negative, got %v", c.ClipLength))
	}
	if c.Volume < 0 || c.Volume > 100 {
		return errors.WithStackTrace(fmt.Errorf("volume must be between 0 and 100, got %d", c.Volume))
	}
	if c.Loop != nil && c.Loop.End <= c.Loop.Start {
		return errors.WithStackTrace(fmt.Errorf("loop end %v must be after loop start %v", c.Loop.End, c.Loop.Start))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// TempoMap builds the session's tempo map. The map owns its changes, so editing it leaves the config alone.
func (c SessionConfig) TempoMap() *rhythm.TempoMap {
	return rhythm.NewTempoMap(c.InitialTempo, c.TempoChanges...).Clone()
}

// LoopRange returns the configured loop, if any.
func (c SessionConfig) LoopRange() (rhythm.LoopRange, bool) {
	if c.Loop == nil {
		return rhythm.LoopRange{}, false
	}
	return *c.Loop, true
}

// Apply pushes the tempo map, first beat offset, loop and volume onto a conductor.
func (c SessionConfig) Apply(cond *rhythm.Conductor) {
	cond.SetTempoMap(c.TempoMap())
	cond.FirstBeatOffset = c.FirstBeatOffset
	if loop, ok := c.LoopRange(); ok {
		cond.SetLoopRange(loop.Start, loop.End)
	} else {
		cond.ClearLoopRange()
	}
	cond.SetVolumePercent(c.Volume)
}
