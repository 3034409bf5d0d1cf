package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jaa/rad/internal/exitcode"
	"github.com/spf13/cobra"
)

func Execute(build BuildInfo, streams IOStreams) int {
	start := time.Now()
	if wd, err := os.Getwd(); err == nil {
		if envErr := loadDotEnvFiles(wd, os.Environ(), os.Setenv); envErr != nil {
			fmt.Fprintln(streams.ErrOut, "WARN:", envErr)
		}
	}

	app := &AppContext{Build: build, IO: streams}
	root := newRootCommand(app)

	err := root.Execute()
	reportFinished(app, time.Since(start))
	if err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return mapExitCode(err)
	}
	return exitcode.Success
}

func newRootCommand(app *AppContext) *cobra.Command {
	showVersion := false

	root := &cobra.Command{
		Use:   "rad",
		Short: "Download and update rust-analyzer from GitHub releases",
		Long:  "rad lists rust-analyzer releases, compares them with the installed binary, and installs newer builds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(app)
				return nil
			}
			return cmd.Help()
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	defaultConfigPath := os.Getenv("RAD_CONFIG")
	root.PersistentFlags().StringVarP(&app.Opts.ConfigPath, "config", "c", defaultConfigPath, "Path to config file")
	root.PersistentFlags().BoolVar(&app.Opts.JSON, "json", false, "Emit newline-delimited JSON")
	root.PersistentFlags().BoolVarP(&app.Opts.Quiet, "quiet", "q", false, "Reduce output to errors and summary")
	root.PersistentFlags().BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "Print debug diagnostics to stderr")
	root.PersistentFlags().BoolVar(&app.Opts.NoColor, "no-color", false, "Disable color output")
	root.PersistentFlags().BoolVar(&app.Opts.NoInput, "no-input", false, "Disable interactive prompts")
	root.Flags().BoolVar(&showVersion, "version", false, "Print version info")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddCommand(newDownloadCommand(app))
	root.AddCommand(newGetVersionsCommand(app))
	root.AddCommand(newCheckCommand(app))
	root.AddCommand(newInitCommand(app))
	root.AddCommand(newValidateCommand(app))
	root.AddCommand(newDoctorCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}

func printVersion(app *AppContext) {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	commit := app.Build.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := app.Build.Date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(app.IO.Out, "rad version %s\ncommit: %s\nbuild_date: %s\n", version, commit, date)
}

// reportFinished prints the elapsed time to stderr in human mode.
func reportFinished(app *AppContext, took time.Duration) {
	took = took.Round(time.Millisecond)
	app.Logger().Debug("command finished", "took", took)
	if app.Opts.JSON || app.Opts.Quiet || app.IO.ErrOut == nil {
		return
	}
	fmt.Fprintf(app.IO.ErrOut, "command finished, took %s\n", took)
}
