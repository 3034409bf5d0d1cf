package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/doctor"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/spf13/cobra"
)

func newDoctorCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check platform support, the installed binary, directories, and auth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			ctx, stop := signalContext()
			defer stop()
			report := doctor.NewChecker().Check(ctx, cfg)

			if app.Opts.JSON {
				encoder := json.NewEncoder(app.IO.Out)
				if err := encoder.Encode(report); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			} else {
				checks := append([]doctor.Check{}, report.Checks...)
				sort.SliceStable(checks, func(i, j int) bool {
					return checks[i].Name < checks[j].Name
				})
				for _, check := range checks {
					fmt.Fprintf(app.IO.Out, "[%s] %s: %s\n", check.Severity, check.Name, check.Message)
				}
			}

			if report.HasErrors() {
				return withExitCode(exitcode.MissingDependency, fmt.Errorf("doctor found %d error(s)", report.ErrorCount()))
			}
			return nil
		},
	}
}
