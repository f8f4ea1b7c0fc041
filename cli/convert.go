package cli

import (
	"fmt"
	"strconv"

	"github.com/robmorgan/conductor/rhythm"
	"github.com/spf13/cobra"
)

// ValidUnits are the units convert accepts values in.
var ValidUnits = []string{"beats", "seconds"}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "convert <value>...",
		Short: "Convert between beats and seconds using the session tempo map",
		Long: `Convert beats to seconds or seconds to beats.

Beats are converted with the tempo at the requested beat, which is exact only
for constant tempo. Seconds are converted by integrating over the tempo map
and include the first beat offset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := rhythm.Converter{
				Tempo:           rootOpts.Session.TempoMap(),
				FirstBeatOffset: rootOpts.Session.FirstBeatOffset,
			}
			out := cmd.OutOrStdout()

			for _, arg := range args {
				value, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				switch from {
				case "beats":
					fmt.Fprintf(out, "beat %.4f = %.4fs\n", value, conv.ApproximateBeatToSeconds(value))
				case "seconds":
					fmt.Fprintf(out, "%.4fs = beat %.4f\n", value, conv.IntegratedSecondsToBeats(value))
				default:
					return fmt.Errorf("invalid unit %q: must be one of %v", from, ValidUnits)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "beats", "unit of the values (beats|seconds)")

	return cmd
}
