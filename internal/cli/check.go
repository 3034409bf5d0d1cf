package cli

import (
	"fmt"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/engine"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/spf13/cobra"
)

func newCheckCommand(app *AppContext) *cobra.Command {
	var outputPath string
	var nightly bool
	var download bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the installed rust-analyzer with the latest releases and update it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}
			destination, err := resolveOutput(outputPath, cfg)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			channel := cfg.Defaults.Channel
			if nightly {
				channel = config.ChannelNightly
			}

			probeBinary := cfg.Defaults.ProbeBinary()
			if cmd.Flags().Changed("output") && cfg.Defaults.Binary == "" {
				probeBinary = destination
			}

			ctx, stop := signalContext()
			defer stop()

			var installer engine.ArtifactInstaller
			if download {
				inst, err := newInstaller(ctx, app, cfg)
				if err != nil {
					return withExitCode(classify(err), err)
				}
				installer = inst
			}

			checker := engine.NewChecker(
				newLister(app, cfg),
				engine.NewProber(probeBinary, engine.NewSubprocessRunner()),
				installer,
				newEmitter(app),
				app.Logger(),
			)
			result, err := checker.Check(ctx, engine.CheckOptions{
				Channel:  channel,
				Download: download,
				Output:   destination,
			})
			if err != nil {
				if len(result.Installed) > 0 {
					return withExitCode(exitcode.PartialSuccess, err)
				}
				return withExitCode(classify(err), err)
			}
			if result.Failed > 0 {
				return withExitCode(exitcode.PartialSuccess, fmt.Errorf("check finished with %d failed release(s)", result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Install destination (default: defaults.output)")
	cmd.Flags().BoolVar(&nightly, "nightly", false, "Track the nightly channel instead of stable releases")
	cmd.Flags().BoolVar(&download, "download", true, "Install newer releases (use --download=false to only report)")
	return cmd
}
