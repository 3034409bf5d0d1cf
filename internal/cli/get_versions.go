package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/jaa/rad/internal/release"
	"github.com/spf13/cobra"
)

func newGetVersionsCommand(app *AppContext) *cobra.Command {
	var perPage int
	var page int
	var all bool

	cmd := &cobra.Command{
		Use:   "get-versions",
		Short: "List published rust-analyzer releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("per-page") {
				perPage = cfg.Defaults.PerPage
			}
			if perPage < 1 || perPage > 100 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--per-page must be between 1 and 100, got %d", perPage))
			}
			if page < 1 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--page must be at least 1, got %d", page))
			}

			ctx, stop := signalContext()
			defer stop()

			lister := newLister(app, cfg)
			printer := newReleasePrinter(app.IO.Out, app.Opts.JSON)
			defer printer.Flush()

			if all {
				for r, err := range lister.Releases(ctx, perPage) {
					if err != nil {
						return withExitCode(classify(err), err)
					}
					if err := printer.Print(r); err != nil {
						return withExitCode(exitcode.RuntimeFailure, err)
					}
				}
				return nil
			}

			result, err := lister.List(ctx, page, perPage)
			if err != nil {
				return withExitCode(classify(err), err)
			}
			for _, r := range result.Releases {
				if err := printer.Print(r); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			}
			if result.Done() && !app.Opts.JSON && !app.Opts.Quiet {
				fmt.Fprintf(app.IO.ErrOut, "no releases on page %d\n", page)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", config.DefaultPerPage, "Releases per page (default: defaults.per_page)")
	cmd.Flags().IntVar(&page, "page", 1, "Page to fetch")
	cmd.Flags().BoolVar(&all, "all", false, "Walk every page")
	return cmd
}

type releasePrinter struct {
	json bool
	enc  *json.Encoder
	tw   *tabwriter.Writer
}

func newReleasePrinter(w io.Writer, asJSON bool) *releasePrinter {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return &releasePrinter{json: true, enc: enc}
	}
	return &releasePrinter{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (p *releasePrinter) Print(r release.Release) error {
	if p.json {
		return p.enc.Encode(r)
	}
	published := "-"
	if !r.PublishedAt.IsZero() {
		published = r.PublishedAt.UTC().Format(time.DateOnly)
	}
	kind := "stable"
	if r.Prerelease {
		kind = "prerelease"
	}
	_, err := fmt.Fprintf(p.tw, "%s\t%s\t%s\t%s\n", r.Tag, r.Name, kind, published)
	return err
}

func (p *releasePrinter) Flush() {
	if p.tw != nil {
		_ = p.tw.Flush()
	}
}
