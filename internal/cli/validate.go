package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/spf13/cobra"
)

func newValidateCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the merged config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if app.Opts.JSON {
				payload := map[string]any{
					"valid":     true,
					"output":    cfg.Defaults.Output,
					"binary":    cfg.Defaults.ProbeBinary(),
					"cache_dir": cfg.Defaults.CacheDir,
					"channel":   cfg.Defaults.Channel,
				}
				encoded, _ := json.Marshal(payload)
				fmt.Fprintln(app.IO.Out, string(encoded))
			} else {
				fmt.Fprintln(app.IO.Out, "Config is valid.")
				fmt.Fprintf(app.IO.Out, "output: %s\nbinary: %s\ncache_dir: %s\nchannel: %s\n",
					cfg.Defaults.Output, cfg.Defaults.ProbeBinary(), cfg.Defaults.CacheDir, cfg.Defaults.Channel)
			}
			return nil
		},
	}
}
