package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitearchive.
// Run without a subcommand it archives the site given with --url.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitearchive",
		Short: "Archive a website as screenshots and PDF documents",
		Long: `sitearchive renders every page of a website in headless Chrome, stores a
full-page screenshot and a PDF of each page, and binds all pages into one
master PDF that is then split into chunks of a fixed number of pages.

The crawl starts at the site root and follows links depth-first. Only links
below the root are followed; documents such as PDF or Office files and
logout links are skipped.

Examples:
  # Archive a site with the defaults (depth 10, chunks of 50 pages)
  sitearchive --url example.com

  # Archive only the first two levels into /srv/archive
  sitearchive --url example.com --depth 2 --output-dir /srv/archive

  # Archive a site behind a login form
  SITEARCHIVE_PASSWORD=secret sitearchive --url intranet.example.com --user editor

  # Re-split an existing master document
  sitearchive split example.com/all_pages.pdf --chunk_size 20`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runArchiveCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addArchiveFlags(cmd)

	cmd.AddCommand(NewSplitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
