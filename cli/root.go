package cli

import (
	"github.com/robmorgan/conductor/config"
	"github.com/robmorgan/conductor/logger"
	"github.com/robmorgan/conductor/midimap"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	MIDIPath   string
	LogLevel   string

	// Session is loaded before any subcommand runs.
	Session config.SessionConfig
}

// NewRootCommand creates the root command for the conductor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "conductor",
		Short: "Keep a musical clock in sync with audio playback",
		Long: `conductor tracks beats, tempo changes and loops against an audio clip.

A session is described by a YAML file holding the tempo map, first beat offset
and loop range. The tempo map can also be imported from a MIDI file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "session YAML file")
	cmd.PersistentFlags().StringVar(&opts.MIDIPath, "midi", "", "read the tempo map from a MIDI file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overriding the session")

	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

func (opts *RootOptions) load() error {
	session := config.NewSessionConfig()
	if opts.ConfigPath != "" {
		var err error
		if session, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
	}

	if opts.MIDIPath != "" {
		tm, err := midimap.FromSMFFile(opts.MIDIPath)
		if err != nil {
			return err
		}
		session.InitialTempo = tm.InitialTempo
		session.TempoChanges = tm.Changes
	}

	if opts.LogLevel != "" {
		session.LogLevel = opts.LogLevel
	}
	if err := logger.SetLevel(session.LogLevel); err != nil {
		return err
	}

	opts.Session = session
	return nil
}

// newConductor builds a conductor for the session on the given device.
func (opts *RootOptions) newConductor(dev rhythm.Device) *rhythm.Conductor {
	c := rhythm.NewConductor(opts.Session.TempoMap(), dev)
	opts.Session.Apply(c)
	return c
}
