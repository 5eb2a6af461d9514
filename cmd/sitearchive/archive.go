package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/nao1215/sitearchive/internal/capture"
	"github.com/nao1215/sitearchive/internal/config"
	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/database"
	"github.com/nao1215/sitearchive/internal/document"
	seclog "github.com/nao1215/sitearchive/internal/log"
	"github.com/nao1215/sitearchive/internal/model"
	"github.com/nao1215/sitearchive/internal/pipeline"
	"github.com/nao1215/sitearchive/internal/report"
	"github.com/nao1215/sitearchive/internal/storage"
	"github.com/spf13/cobra"
)

// siteBrowser is what an archive run needs from the browser.
// *capture.Browser implements it.
type siteBrowser interface {
	crawler.Browser
	pipeline.Authenticator
}

// addArchiveFlags registers the flags of an archive run on cmd.
func addArchiveFlags(cmd *cobra.Command) {
	// Site and output layout
	cmd.Flags().StringP("url", "u", "",
		"Site to archive: a domain such as example.com, or an absolute URL")
	cmd.Flags().IntP("chunk_size", "c", config.DefaultChunkSize,
		"Number of master document pages per chunk")
	cmd.Flags().StringP("images_path", "i", config.DefaultImagesPath,
		"Directory of the flat screenshot copies, relative to the site directory")
	cmd.Flags().String("chunks_path", config.DefaultChunksPath,
		"Directory of the chunk documents, relative to the site directory")
	cmd.Flags().StringP("all_pages_filename", "a", config.DefaultAllPagesFilename,
		"File name of the master document")
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory in which the site directory is created")

	// Crawl behavior
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth (0 archives nothing)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultNavigationTimeout,
		"Timeout for each page load")
	cmd.Flags().Duration("idle-timeout", config.DefaultIdleTimeout,
		"Maximum wait for the network to become idle after a page load")
	cmd.Flags().String("browser", "",
		"Chrome or Chromium binary (default: search the usual install locations)")
	cmd.Flags().String("user-agent", "", "User-Agent header sent by the browser")
	cmd.Flags().Bool("headful", false, "Show the browser window instead of running headless")
	cmd.Flags().Bool("revisit-root", false,
		"Archive the root again when a page links to it as \"/\"")

	// Login
	cmd.Flags().String("user", "", "User name for the site's login form")
	cmd.Flags().String("password", "",
		"Password for the site's login form (default: $"+config.PasswordEnvVar+")")
	cmd.Flags().String("login-url", "",
		"Login page (default: <url>"+config.DefaultLoginPath+")")

	// Configuration file
	cmd.Flags().String("config", "",
		"Configuration file path (default: ./"+config.DefaultConfigFile+", then "+
			config.XDGConfigFile+" in the XDG config directory, then ~/"+config.DefaultConfigFile+")")

	// Output
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().Bool("json", false, "Print the run summary as JSON")
	cmd.Flags().Bool("log-json", false, "Write logs to stderr as JSON lines")
}

// runArchiveCmd archives the site given with --url.
func runArchiveCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runArchive(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from the flags of cmd and the configuration
// file. Flags the user passed win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Site, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = flags.GetInt("chunk_size"); err != nil {
		return nil, err
	}
	if cfg.ImagesPath, err = flags.GetString("images_path"); err != nil {
		return nil, err
	}
	if cfg.ChunksPath, err = flags.GetString("chunks_path"); err != nil {
		return nil, err
	}
	if cfg.AllPagesFilename, err = flags.GetString("all_pages_filename"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.NavigationTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = flags.GetDuration("idle-timeout"); err != nil {
		return nil, err
	}
	if cfg.BrowserPath, err = flags.GetString("browser"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Headful, err = flags.GetBool("headful"); err != nil {
		return nil, err
	}
	if cfg.RevisitRoot, err = flags.GetBool("revisit-root"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	user, err := flags.GetString("user")
	if err != nil {
		return nil, err
	}
	password, err := flags.GetString("password")
	if err != nil {
		return nil, err
	}
	loginURL, err := flags.GetString("login-url")
	if err != nil {
		return nil, err
	}
	if user != "" || password != "" {
		cfg.Credentials = &config.Credentials{User: user, Password: password}
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently run without one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.ApplySiteConfig(map[string]bool{"depth": flags.Changed("depth")})

	if cfg.Credentials != nil {
		if loginURL != "" {
			cfg.Credentials.LoginURL = loginURL
		}
		if cfg.Credentials.Password == "" {
			cfg.Credentials.Password = os.Getenv(config.PasswordEnvVar)
		}
	}

	return cfg, nil
}

// runArchive starts the browser, archives the site and prints the summary.
// The returned error is the run-fatal error, if any. Abandoned branches are
// reported in the summary but are not errors.
func runArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting archive",
		"site", cfg.SiteName(),
		"root", cfg.RootURL(),
		"depth", cfg.MaxDepth,
		"output", cfg.SiteDir(),
	)

	browser, err := capture.New(ctx, browserOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer browser.Close()

	archive := model.NewArchive(cfg.SiteName(), cfg.RootURL())
	p := newArchivePipeline(cfg, browser, archive, logger, os.Stderr)

	runErr := p.Execute(ctx, archive)
	archive.Finish()

	// History is recorded for canceled and failed runs too.
	if err := saveArchive(context.WithoutCancel(ctx), cfg, archive, logger); err != nil {
		logger.Error("failed to record run in history", "error", err)
	}

	if err := outputSummary(cfg, archive, out); err != nil {
		return err
	}
	return runErr
}

// newLogger returns the masking logger selected by --log-json and --verbose.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogJSON {
		return seclog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return seclog.NewSecureLogger(w, cfg.Verbose)
}

func browserOptions(cfg *config.Config, logger *slog.Logger) []capture.Option {
	return []capture.Option{
		capture.WithExecPath(cfg.BrowserPath),
		capture.WithHeadless(!cfg.Headful),
		capture.WithUserAgent(cfg.UserAgent),
		capture.WithViewport(cfg.ViewportWidth, cfg.ViewportHeight),
		capture.WithNavigationTimeout(cfg.NavigationTimeout),
		capture.WithIdleTimeout(cfg.IdleTimeout),
		capture.WithLogger(logger),
	}
}

// engineOptions maps the crawl settings of cfg onto the engine.
func engineOptions(cfg *config.Config, logger *slog.Logger) []crawler.EngineOption {
	opts := []crawler.EngineOption{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithBlockedExtensions(cfg.BlockedExtensions),
		crawler.WithBlockedSubstrings(cfg.BlockedSubstrings),
		crawler.WithEngineLogger(logger),
	}
	if !cfg.RevisitRoot {
		opts = append(opts, crawler.WithRootSeeded())
	}
	return opts
}

// newArchivePipeline wires the steps of one archive run: optional login,
// crawl, master document, chunks and the Markdown index.
// Spinners for the slow document phases are drawn on progress.
func newArchivePipeline(cfg *config.Config, browser siteBrowser, archive *model.Archive, logger *slog.Logger, progress io.Writer) *pipeline.Pipeline {
	layout := storage.NewLayout(cfg.SiteDir(), cfg.ImagesPath, cfg.ChunksPath, cfg.AllPagesFilename)
	fsys := storage.OSFS{}

	assembler := document.NewAssembler(
		document.WithPaperSize(cfg.PageWidth, cfg.PaperHeight),
		document.WithTitle(cfg.RootURL()),
	)
	archiver := pipeline.NewPageArchiver(layout, assembler, archive,
		pipeline.WithArchiverFS(fsys),
		pipeline.WithTileSize(cfg.PageWidth, cfg.TileHeight),
		pipeline.WithArchiverLogger(logger),
	)
	splitter := document.NewSplitter(
		document.WithFS(fsys),
		document.WithSplitterLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))

	if cfg.Credentials != nil {
		p.AddStep(pipeline.NewLoginStep(browser, capture.Credentials{
			LoginURL:         cfg.LoginURL(),
			User:             cfg.Credentials.User,
			Password:         cfg.Credentials.Password,
			UserSelector:     cfg.Credentials.UserSelector,
			PasswordSelector: cfg.Credentials.PasswordSelector,
			SubmitSelector:   cfg.Credentials.SubmitSelector,
		}))
	}

	// Logs and the spinner share stderr, so the spinner is off in verbose mode.
	showProgress := !cfg.Verbose

	p.AddSteps(
		pipeline.NewCrawlStep(browser, archiver, engineOptions(cfg, logger)...),
		withProgress(pipeline.NewFinalizeStep(assembler, fsys, layout.MasterPath, logger),
			"writing master document", progress, showProgress),
		withProgress(pipeline.NewSplitStep(splitter, cfg.ChunkSize, layout.ChunksDir),
			"splitting master document", progress, showProgress),
		pipeline.NewReportStep(fsys, layout.ReportPath),
	)

	return p
}

// progressStep shows a spinner while the wrapped step runs.
type progressStep struct {
	pipeline.Step
	message string
	w       io.Writer
}

// withProgress wraps step with a spinner unless enabled is false.
func withProgress(step pipeline.Step, message string, w io.Writer, enabled bool) pipeline.Step {
	if !enabled {
		return step
	}
	return &progressStep{Step: step, message: message, w: w}
}

// Do runs the wrapped step while the spinner turns.
func (s *progressStep) Do(ctx context.Context, archive *model.Archive) error {
	sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(s.w))
	sp.Suffix = " " + s.message
	sp.Start()
	defer sp.Stop()

	return s.Step.Do(ctx, archive)
}

// saveArchive records the run in the history database unless disabled.
func saveArchive(ctx context.Context, cfg *config.Config, archive *model.Archive, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveArchive(ctx, archive)
	if err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}

	logger.Debug("run recorded in history", "run", id, "db", db.Path())
	return nil
}

// outputSummary prints the run summary in the requested format.
func outputSummary(cfg *config.Config, archive *model.Archive, out io.Writer) error {
	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(archive); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
