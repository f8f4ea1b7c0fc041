package cli

import (
	"fmt"
	"time"

	"github.com/robmorgan/conductor/device/sim"
	"github.com/robmorgan/conductor/effect"
	"github.com/robmorgan/conductor/engine"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/spf13/cobra"
	testclock "k8s.io/utils/clock/testing"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	Duration        time.Duration
	StartBeat       float64
	MetronomeOffset float64
	Pulse           string
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a session headless and print a frame trace",
		Long: `Run the session against a simulated device on a virtual clock, printing one
line per frame. Nothing waits on real time, so the output is reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 8*time.Second, "length of the simulation")
	cmd.Flags().Float64Var(&opts.StartBeat, "start", 0, "beat to start playback at")
	cmd.Flags().Float64Var(&opts.MetronomeOffset, "metronome-offset", 0, "fire beats early by this fraction of a beat")
	cmd.Flags().StringVar(&opts.Pulse, "pulse", "", "print a colour pulse on every beat using the named curve")

	return cmd
}

func runSimulate(rootOpts *RootOptions, opts *SimulateOptions, cmd *cobra.Command) error {
	session := rootOpts.Session
	out := cmd.OutOrStdout()

	fc := testclock.NewFakeClock(time.Unix(0, 0))
	dev := sim.New(fc, sim.WithClip(session.ClipLength), sim.WithPitch(session.Pitch))
	c := rootOpts.newConductor(dev)

	e := engine.New(fc, c, session.FPS)
	e.SetStructure(session.BeatsPerBar, session.BarsPerPhrase)
	e.OnFrame(engine.TraceTo(out))

	m := rhythm.NewMetronome(c, rhythm.WithOffset(opts.MetronomeOffset))
	e.AddMetronome(m)

	if opts.Pulse != "" {
		fx, err := effect.NewEffect(opts.Pulse, float64(session.BeatsPerBar))
		if err != nil {
			return err
		}
		pulse, err := effect.NewColorPulse(fx, "#000000", "#ffffff")
		if err != nil {
			return err
		}
		m.OnTick(func(ev rhythm.BeatEvent) {
			fmt.Fprintf(out, "beat %v colour %s\n", ev.Beat, pulse.Update(c).Hex())
		})
	}

	c.Play(opts.StartBeat)

	frames := int(opts.Duration / e.Interval())
	for i := 0; i < frames; i++ {
		fc.Step(e.Interval())
		e.Step(e.Interval().Seconds())
	}
	return nil
}
