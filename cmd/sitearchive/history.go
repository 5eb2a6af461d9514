package main

import (
	"fmt"

	"github.com/nao1215/sitearchive/internal/config"
	"github.com/nao1215/sitearchive/internal/database"
	"github.com/nao1215/sitearchive/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show previous archive runs",
		Long: `History lists what earlier runs archived.

Without arguments it lists every archived site. With a site it lists the
runs of that site, newest first. --run lists the pages of one run and
--page shows every capture of one URL, marking the runs in which the
rendered page changed.

Examples:
  # List archived sites
  sitearchive history

  # List the runs of a site
  sitearchive history example.com

  # List the pages archived by run 3, as Markdown
  sitearchive history --run 3 --markdown

  # Show when a page changed
  sitearchive history --page https://example.com/about`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("run", 0, "List the pages of the run with this ID")
	cmd.Flags().String("page", "", "Show every capture of this URL")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown tables")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.MarkFlagsMutuallyExclusive("run", "page")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	pageURL, err := cmd.Flags().GetString("page")
	if err != nil {
		return err
	}
	md, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no history recorded yet: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	w := report.NewHistoryWriter(cmd.OutOrStdout(), report.WithMarkdown(md))

	switch {
	case runID != 0:
		if _, err := db.GetRun(ctx, runID); err != nil {
			return err
		}
		pages, err := db.ListPages(ctx, runID)
		if err != nil {
			return err
		}
		return w.WritePages(runID, pages)

	case pageURL != "":
		captures, err := db.PageHistory(ctx, pageURL)
		if err != nil {
			return err
		}
		return w.WritePageHistory(pageURL, captures)

	case len(args) == 1:
		site := config.SiteKey(args[0])
		if site == "" {
			return fmt.Errorf("invalid site: %s", args[0])
		}
		runs, err := db.ListRuns(ctx, site)
		if err != nil {
			return err
		}
		return w.WriteRuns(site, runs)

	default:
		sites, err := db.ListSites(ctx)
		if err != nil {
			return err
		}
		return w.WriteSites(sites)
	}
}
