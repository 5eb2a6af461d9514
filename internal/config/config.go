package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/sitearchive/internal/capture"
	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/document"
	"github.com/nao1215/sitearchive/internal/storage"
)

// Default configuration values. Values owned by another package are
// re-exported from it so that there is a single definition of each.
// Geometry and browser defaults reproduce the layout of archives made with
// earlier versions of the tool, so re-archiving a site yields comparable PDFs.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitearchive"

	// DefaultChunkSize is the number of master pages per chunk PDF.
	DefaultChunkSize = document.DefaultChunkSize

	// DefaultMaxDepth bounds the crawl. The root is level 0; links found on a
	// page at level DefaultMaxDepth-1 are not visited.
	DefaultMaxDepth = crawler.DefaultMaxDepth

	// DefaultImagesPath, DefaultChunksPath and DefaultAllPagesFilename are
	// relative to the site directory.
	DefaultImagesPath       = storage.DefaultImagesPath
	DefaultChunksPath       = storage.DefaultChunksPath
	DefaultAllPagesFilename = storage.DefaultAllPagesFilename

	// DefaultOutputDir is where the site directory is created.
	DefaultOutputDir = "."

	// DefaultPageWidth, DefaultTileHeight and DefaultPaperHeight are the PDF
	// geometry in points. Tiles are shorter than the paper so consecutive
	// pages overlap slightly.
	DefaultPageWidth   = document.DefaultPageWidth
	DefaultTileHeight  = document.DefaultTileHeight
	DefaultPaperHeight = document.DefaultPaperHeight

	// DefaultViewportWidth and DefaultViewportHeight are applied before every
	// navigation.
	DefaultViewportWidth  = capture.DefaultViewportWidth
	DefaultViewportHeight = capture.DefaultViewportHeight

	// DefaultNavigationTimeout bounds each page load, screenshot and link read.
	DefaultNavigationTimeout = capture.DefaultNavigationTimeout

	// DefaultIdleTimeout bounds the wait for the network to become idle after
	// a navigation.
	DefaultIdleTimeout = capture.DefaultIdleTimeout

	// DefaultLoginPath is appended to the root URL when credentials are given
	// without a login URL.
	DefaultLoginPath = "/user/login"

	// PasswordEnvVar is read when --password is not given, so that the
	// password does not have to appear in the process list.
	PasswordEnvVar = "SITEARCHIVE_PASSWORD"

	// DefaultUserSelector, DefaultPasswordSelector and DefaultSubmitSelector
	// locate the login form fields.
	DefaultUserSelector     = capture.DefaultUserSelector
	DefaultPasswordSelector = capture.DefaultPasswordSelector
	DefaultSubmitSelector   = capture.DefaultSubmitSelector
)

// DefaultBlockedExtensions lists file types that are never archived.
// The extension is compared against the end of the URL path, case-sensitively.
func DefaultBlockedExtensions() []string {
	return []string{"pdf", "xlsx", "xls", "doc", "docx", "ppt", "pptx"}
}

// DefaultBlockedSubstrings lists URL fragments that mark pages not worth
// archiving, or that would end the logged-in session.
func DefaultBlockedSubstrings() []string {
	return []string{"user?destination=", "?report=", "logout", "loggaut"}
}

// Credentials describe the optional login performed before crawling.
type Credentials struct {
	User     string
	Password string

	// LoginURL is the page holding the login form.
	// Empty means RootURL + DefaultLoginPath.
	LoginURL string

	UserSelector     string
	PasswordSelector string
	SubmitSelector   string
}

// Config holds all configuration options for one archive run.
// This struct is populated from CLI flags and the optional config file and
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. Only Credentials is split out, because its absence
// (nil) has a meaning of its own: no login.
type Config struct {
	// Site is the value of --url: a domain such as "example.com", or an
	// absolute URL when the site is not served over https.
	Site string

	// OutputDir is the directory in which the site directory is created.
	OutputDir string

	// ChunkSize is the number of master pages per chunk.
	ChunkSize int

	// ImagesPath, ChunksPath and AllPagesFilename locate the flat image
	// directory, the chunk directory and the master PDF. Relative values are
	// resolved against the site directory.
	ImagesPath       string
	ChunksPath       string
	AllPagesFilename string

	// MaxDepth is the crawl depth. 0 archives nothing.
	MaxDepth int

	// PageWidth, TileHeight and PaperHeight define the PDF geometry in points.
	PageWidth   float64
	TileHeight  float64
	PaperHeight float64

	// ViewportWidth and ViewportHeight size the browser before each navigation.
	ViewportWidth  int
	ViewportHeight int

	// NavigationTimeout bounds each browser operation.
	NavigationTimeout time.Duration

	// IdleTimeout bounds the wait for network idle.
	IdleTimeout time.Duration

	// BrowserPath is the Chrome binary. Empty lets chromedp find one.
	BrowserPath string

	// UserAgent overrides Chrome's User-Agent header when set.
	UserAgent string

	// Headful shows the browser window instead of running headless.
	Headful bool

	// RevisitRoot lets links to the home page ("/") archive the root again.
	// By default the root is in the frontier before the crawl starts.
	RevisitRoot bool

	// BlockedExtensions and BlockedSubstrings drive link filtering.
	BlockedExtensions []string
	BlockedSubstrings []string

	// Credentials enables the login step. Nil means no login.
	Credentials *Credentials

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONReport prints the run summary as JSON instead of plain text.
	JSONReport bool

	// LogJSON writes logs as JSON lines instead of styled text.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the locations returned by SearchPaths are tried.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/sitearchive on Linux).
	DBDir string

	// SaveToDB records the run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., chunk size, page
// geometry). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		ChunkSize:         DefaultChunkSize,
		ImagesPath:        DefaultImagesPath,
		ChunksPath:        DefaultChunksPath,
		AllPagesFilename:  DefaultAllPagesFilename,
		MaxDepth:          DefaultMaxDepth,
		PageWidth:         DefaultPageWidth,
		TileHeight:        DefaultTileHeight,
		PaperHeight:       DefaultPaperHeight,
		ViewportWidth:     DefaultViewportWidth,
		ViewportHeight:    DefaultViewportHeight,
		NavigationTimeout: DefaultNavigationTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		BlockedExtensions: DefaultBlockedExtensions(),
		BlockedSubstrings: DefaultBlockedSubstrings(),
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// RootURL returns the absolute root URL of the site. A bare domain gets the
// https scheme. A trailing slash is removed so that root-relative links can
// be appended to it.
func (c *Config) RootURL() string {
	site := strings.TrimSpace(c.Site)
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	return strings.TrimRight(site, "/")
}

// SiteName returns the host of the root URL in a form usable as a
// directory name. It is also the key of per-site settings and of history.
func (c *Config) SiteName() string {
	return SiteKey(c.RootURL())
}

// SiteDir returns the directory that receives every artifact of the run.
func (c *Config) SiteDir() string {
	return filepath.Join(c.OutputDir, c.SiteName())
}

// LoginURL returns the login page, falling back to the default path below
// the root. It returns "" when no credentials are configured.
func (c *Config) LoginURL() string {
	if c.Credentials == nil {
		return ""
	}
	if c.Credentials.LoginURL != "" {
		return c.Credentials.LoginURL
	}
	return c.RootURL() + DefaultLoginPath
}

// ApplySiteConfig merges the config file settings for this site into c.
// Values already set from the command line win over the file, which is
// tracked through explicit, the set of flag names the user passed.
func (c *Config) ApplySiteConfig(explicit map[string]bool) {
	if c.SiteConfigs == nil {
		return
	}
	sc := c.SiteConfigs.GetSiteConfig(c.SiteName())

	if sc.Depth != 0 && !explicit["depth"] {
		c.MaxDepth = sc.Depth
	}
	if len(sc.BlockedExtensions) > 0 {
		c.BlockedExtensions = sc.BlockedExtensions
	}
	if len(sc.BlockedSubstrings) > 0 {
		c.BlockedSubstrings = sc.BlockedSubstrings
	}

	if sc.Login == nil || c.Credentials != nil {
		return
	}
	creds := &Credentials{
		User:             sc.Login.User,
		Password:         sc.Login.Password,
		LoginURL:         sc.Login.URL,
		UserSelector:     sc.Login.UserSelector,
		PasswordSelector: sc.Login.PasswordSelector,
		SubmitSelector:   sc.Login.SubmitSelector,
	}
	if creds.Password == "" && sc.Login.PasswordEnv != "" {
		creds.Password = os.Getenv(sc.Login.PasswordEnv)
	}
	if creds.User != "" || creds.Password != "" {
		c.Credentials = creds
	}
}

// XDGDataDir returns the XDG data directory for sitearchive.
// On Linux: ~/.local/share/sitearchive
// On macOS: ~/Library/Application Support/sitearchive
// On Windows: %LOCALAPPDATA%\sitearchive
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitearchive.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before the browser is started.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site) == "" {
		return ErrNoSite
	}

	u, err := url.Parse(c.RootURL())
	if err != nil || u.Host == "" {
		return ErrInvalidSite
	}

	if c.ChunkSize < 1 {
		return ErrInvalidChunkSize
	}

	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.NavigationTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.IdleTimeout <= 0 {
		return ErrInvalidIdleTimeout
	}

	if c.PageWidth <= 0 || c.TileHeight <= 0 || c.PaperHeight <= 0 {
		return ErrInvalidPageSize
	}

	if c.Credentials != nil && (c.Credentials.User == "" || c.Credentials.Password == "") {
		return ErrIncompleteCredentials
	}

	return nil
}
