package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/robmorgan/conductor/config"
	"github.com/robmorgan/conductor/device/ebitendevice"
	"github.com/robmorgan/conductor/engine"
	"github.com/robmorgan/conductor/logger"
	"github.com/robmorgan/conductor/rhythm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	Audio      string
	SampleRate int
	StartBeat  float64
	Watch      bool
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a WAV file and log beats as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Audio, "audio", "a", "", "WAV file to play, overriding the session")
	cmd.Flags().IntVar(&opts.SampleRate, "sample-rate", 44100, "output sample rate")
	cmd.Flags().Float64Var(&opts.StartBeat, "start", 0, "beat to start playback at")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "reload the session file when it changes")

	return cmd
}

func runPlay(ctx context.Context, rootOpts *RootOptions, opts *PlayOptions) error {
	log := logger.GetProjectLogger()
	session := rootOpts.Session

	path := opts.Audio
	if path == "" {
		path = session.Audio
	}
	if path == "" {
		return fmt.Errorf("no audio file, set --audio or audio in the session")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	clk := clock.RealClock{}
	dev, err := ebitendevice.NewFromWAV(opts.SampleRate, f, clk)
	if err != nil {
		return err
	}
	defer dev.Close()

	length, _ := dev.ClipLength()
	c := rootOpts.newConductor(dev)

	e := engine.New(clk, c, session.FPS)
	e.SetStructure(session.BeatsPerBar, session.BarsPerPhrase)

	m := rhythm.NewMetronome(c)
	m.OnTick(func(ev rhythm.BeatEvent) {
		snap := rhythm.NewSnapshot(c, session.BeatsPerBar, session.BarsPerPhrase)
		log.WithFields(logrus.Fields{"beat": ev.Beat, "marker": snap.Marker(), "tempo": snap.Tempo}).Info("Beat")
	})
	e.AddMetronome(m)

	done := make(chan struct{})
	var once sync.Once
	e.OnFrame(func(frame engine.Frame) {
		if frame.Position+session.FirstBeatOffset >= length {
			once.Do(func() { close(done) })
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := sync.WaitGroup{}
	wg.Add(1)
	go e.Run(ctx, &wg)

	if err := e.Do(ctx, func(c *rhythm.Conductor) { c.Play(opts.StartBeat) }); err != nil {
		return err
	}

	if opts.Watch && rootOpts.ConfigPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := config.Watch(ctx, rootOpts.ConfigPath, func(s config.SessionConfig) {
				// rejected when the engine is already shutting down
				_ = e.Do(ctx, s.Apply)
			})
			if err != nil {
				log.WithError(err).Error("Session watch stopped")
			}
		}()
	}

	log.WithFields(logrus.Fields{"audio": path, "length": length}).Info("Playing")

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	defer signal.Stop(quit)

	select {
	case <-quit:
		log.Info("Interrupted")
	case <-done:
		log.Info("Reached end of clip")
	}

	_ = e.Do(ctx, func(c *rhythm.Conductor) { c.Stop(0) })
	cancel()
	wg.Wait()
	return nil
}
