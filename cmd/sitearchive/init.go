package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitearchive/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/sitearchive.yaml
var configTemplate embed.FS

// templatePath is the location of the template inside configTemplate.
const templatePath = "templates/sitearchive.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sitearchive configuration file",
		Long: `Init writes a commented .sitearchive configuration file.

The generated file documents:
- Default crawl depth and link filters
- Per-site overrides
- Login settings for sites behind a login form

Examples:
  # Create .sitearchive in the current directory
  sitearchive init

  # Create the file at a specific path
  sitearchive init -o ~/.sitearchive

  # Create the per-user file in the XDG config directory
  sitearchive init --user

  # Overwrite an existing file
  sitearchive init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().Bool("user", false,
		"Write "+config.XDGConfigFile+" to the XDG config directory ("+config.XDGConfigDir()+")")
	cmd.MarkFlagsMutuallyExclusive("output", "user")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	user, err := cmd.Flags().GetBool("user")
	if err != nil {
		return err
	}
	if user {
		outputPath = filepath.Join(config.XDGConfigDir(), config.XDGConfigFile)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold a login password.
	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-site settings such as:")
	fmt.Fprintln(out, "  - Crawl depth")
	fmt.Fprintln(out, "  - Blocked extensions and URL substrings")
	fmt.Fprintln(out, "  - Login form and credentials")

	return nil
}
