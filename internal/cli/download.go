package cli

import (
	"fmt"
	"time"

	"github.com/jaa/rad/internal/exitcode"
	"github.com/jaa/rad/internal/output"
	"github.com/jaa/rad/internal/release"
	"github.com/spf13/cobra"
)

func newDownloadCommand(app *AppContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "download [version]",
		Short: "Download and install a specific release (default: nightly)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := release.NightlyTag
			if len(args) == 1 {
				tag = args[0]
			}

			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}
			destination, err := resolveOutput(outputPath, cfg)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			ctx, stop := signalContext()
			defer stop()

			installer, err := newInstaller(ctx, app, cfg)
			if err != nil {
				return withExitCode(classify(err), err)
			}

			emitter := newEmitter(app)
			_ = emitter.Emit(output.Event{
				Timestamp: time.Now(),
				Level:     output.LevelInfo,
				Event:     output.EventInstallStarted,
				Tag:       tag,
				Message:   fmt.Sprintf("downloading %s from %s", tag, installer.ArtifactURL(tag)),
				Details:   map[string]any{"destination": destination, "artifact": installer.Artifact()},
			})
			start := time.Now()
			if err := installer.Install(ctx, tag, destination); err != nil {
				return withExitCode(classify(err), fmt.Errorf("download %s: %w", tag, err))
			}
			_ = emitter.Emit(output.Event{
				Timestamp: time.Now(),
				Level:     output.LevelInfo,
				Event:     output.EventInstallFinished,
				Tag:       tag,
				Message:   fmt.Sprintf("installed %s to %s", tag, destination),
				Details: map[string]any{
					"destination": destination,
					"duration_ms": time.Since(start).Milliseconds(),
				},
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Install destination (default: defaults.output)")
	return cmd
}
