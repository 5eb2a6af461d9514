package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/sitearchive/internal/capture"
	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/document"
	"github.com/nao1215/sitearchive/internal/storage"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that changes to defaults are intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default ChunkSize is 50", func(t *testing.T) {
		t.Parallel()
		if cfg.ChunkSize != 50 {
			t.Errorf("expected ChunkSize to be 50, got %d", cfg.ChunkSize)
		}
	})

	t.Run("default MaxDepth is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 10 {
			t.Errorf("expected MaxDepth to be 10, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default artifact names", func(t *testing.T) {
		t.Parallel()
		if cfg.ImagesPath != "__png__" || cfg.ChunksPath != "__chunks__" || cfg.AllPagesFilename != "all_pages.pdf" {
			t.Errorf("unexpected artifact names %q %q %q", cfg.ImagesPath, cfg.ChunksPath, cfg.AllPagesFilename)
		}
	})

	t.Run("default geometry is A4 with 800pt tiles", func(t *testing.T) {
		t.Parallel()
		if cfg.PageWidth != 595.28 || cfg.TileHeight != 800 || cfg.PaperHeight != 841.89 {
			t.Errorf("unexpected geometry %v %v %v", cfg.PageWidth, cfg.TileHeight, cfg.PaperHeight)
		}
	})

	t.Run("default viewport is 1280x10", func(t *testing.T) {
		t.Parallel()
		if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 10 {
			t.Errorf("unexpected viewport %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
		}
	})

	t.Run("default timeouts", func(t *testing.T) {
		t.Parallel()
		if cfg.NavigationTimeout != 60*time.Second || cfg.IdleTimeout != 30*time.Second {
			t.Errorf("unexpected timeouts %v %v", cfg.NavigationTimeout, cfg.IdleTimeout)
		}
	})

	t.Run("default filters", func(t *testing.T) {
		t.Parallel()
		wantExt := []string{"pdf", "xlsx", "xls", "doc", "docx", "ppt", "pptx"}
		if !reflect.DeepEqual(cfg.BlockedExtensions, wantExt) {
			t.Errorf("BlockedExtensions = %v", cfg.BlockedExtensions)
		}
		wantSub := []string{"user?destination=", "?report=", "logout", "loggaut"}
		if !reflect.DeepEqual(cfg.BlockedSubstrings, wantSub) {
			t.Errorf("BlockedSubstrings = %v", cfg.BlockedSubstrings)
		}
	})

	t.Run("no login by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Credentials != nil {
			t.Error("expected nil Credentials")
		}
		if cfg.LoginURL() != "" {
			t.Errorf("expected empty LoginURL, got %q", cfg.LoginURL())
		}
	})

	t.Run("defaults follow the packages that use them", func(t *testing.T) {
		t.Parallel()
		if cfg.ChunkSize != document.DefaultChunkSize || cfg.MaxDepth != crawler.DefaultMaxDepth {
			t.Errorf("ChunkSize/MaxDepth = %d/%d", cfg.ChunkSize, cfg.MaxDepth)
		}
		if cfg.ImagesPath != storage.DefaultImagesPath || cfg.ChunksPath != storage.DefaultChunksPath {
			t.Errorf("ImagesPath/ChunksPath = %q/%q", cfg.ImagesPath, cfg.ChunksPath)
		}
		if cfg.NavigationTimeout != capture.DefaultNavigationTimeout || cfg.ViewportWidth != capture.DefaultViewportWidth {
			t.Errorf("NavigationTimeout/ViewportWidth = %v/%d", cfg.NavigationTimeout, cfg.ViewportWidth)
		}
		if cfg.Headful || cfg.RevisitRoot || cfg.LogJSON || cfg.UserAgent != "" {
			t.Errorf("unexpected browser defaults: %+v", cfg)
		}
	})

	t.Run("default filter lists are fresh copies", func(t *testing.T) {
		t.Parallel()
		a := DefaultBlockedExtensions()
		a[0] = "changed"
		if DefaultBlockedExtensions()[0] != "pdf" {
			t.Error("DefaultBlockedExtensions shares its backing array")
		}
	})
}

func TestRootURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		site     string
		wantRoot string
		wantName string
	}{
		{site: "example.com", wantRoot: "https://example.com", wantName: "example.com"},
		{site: "example.com/", wantRoot: "https://example.com", wantName: "example.com"},
		{site: " example.com ", wantRoot: "https://example.com", wantName: "example.com"},
		{site: "http://localhost:8080", wantRoot: "http://localhost:8080", wantName: "localhost_8080"},
		{site: "https://example.com/docs/", wantRoot: "https://example.com/docs", wantName: "example.com"},
		{site: "https://Example.COM", wantRoot: "https://Example.COM", wantName: "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.site, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Site = tt.site
			if got := cfg.RootURL(); got != tt.wantRoot {
				t.Errorf("RootURL() = %q, want %q", got, tt.wantRoot)
			}
			if got := cfg.SiteName(); got != tt.wantName {
				t.Errorf("SiteName() = %q, want %q", got, tt.wantName)
			}
		})
	}

	t.Run("site dir below output dir", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Site = "example.com"
		cfg.OutputDir = "archives"
		if got := cfg.SiteDir(); got != filepath.Join("archives", "example.com") {
			t.Errorf("SiteDir() = %q", got)
		}
	})

	t.Run("login url", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Site = "example.com"
		cfg.Credentials = &Credentials{User: "u", Password: "p"}
		if got := cfg.LoginURL(); got != "https://example.com/user/login" {
			t.Errorf("LoginURL() = %q", got)
		}
		cfg.Credentials.LoginURL = "https://example.com/signin"
		if got := cfg.LoginURL(); got != "https://example.com/signin" {
			t.Errorf("LoginURL() = %q", got)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Site = "example.com"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "depth zero is valid", modify: func(c *Config) { c.MaxDepth = 0 }},
		{name: "missing site", modify: func(c *Config) { c.Site = "" }, wantErr: ErrNoSite},
		{name: "blank site", modify: func(c *Config) { c.Site = "   " }, wantErr: ErrNoSite},
		{name: "site without host", modify: func(c *Config) { c.Site = "https://" }, wantErr: ErrInvalidSite},
		{name: "zero chunk size", modify: func(c *Config) { c.ChunkSize = 0 }, wantErr: ErrInvalidChunkSize},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, wantErr: ErrInvalidDepth},
		{name: "zero timeout", modify: func(c *Config) { c.NavigationTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero idle timeout", modify: func(c *Config) { c.IdleTimeout = 0 }, wantErr: ErrInvalidIdleTimeout},
		{name: "zero page width", modify: func(c *Config) { c.PageWidth = 0 }, wantErr: ErrInvalidPageSize},
		{name: "negative tile height", modify: func(c *Config) { c.TileHeight = -1 }, wantErr: ErrInvalidPageSize},
		{
			name:    "user without password",
			modify:  func(c *Config) { c.Credentials = &Credentials{User: "u"} },
			wantErr: ErrIncompleteCredentials,
		},
		{
			name:   "complete credentials",
			modify: func(c *Config) { c.Credentials = &Credentials{User: "u", Password: "p"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Depth:             5,
			BlockedSubstrings: []string{"logout"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Depth:             3,
				BlockedExtensions: []string{"zip"},
				Login:             &LoginConfig{User: "admin"},
			},
			"empty.com": {},
		},
	}

	t.Run("site overrides defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("example.com")
		if sc.Depth != 3 {
			t.Errorf("Depth = %d, want 3", sc.Depth)
		}
		if !reflect.DeepEqual(sc.BlockedExtensions, []string{"zip"}) {
			t.Errorf("BlockedExtensions = %v", sc.BlockedExtensions)
		}
		if !reflect.DeepEqual(sc.BlockedSubstrings, []string{"logout"}) {
			t.Errorf("BlockedSubstrings = %v, want defaults", sc.BlockedSubstrings)
		}
		if sc.Login == nil || sc.Login.User != "admin" {
			t.Errorf("Login = %+v", sc.Login)
		}
	})

	t.Run("empty site keeps defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("empty.com")
		if sc.Depth != 5 || sc.Login != nil {
			t.Errorf("unexpected config %+v", sc)
		}
	})

	t.Run("unknown site gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("unknown.com")
		if sc.Depth != 5 {
			t.Errorf("Depth = %d, want 5", sc.Depth)
		}
	})
}

func TestApplySiteConfig(t *testing.T) {
	t.Setenv("TEST_SITEARCHIVE_PW", "from-env")

	file := &File{
		Sites: map[string]SiteConfig{
			"example.com": {
				Depth:             4,
				BlockedExtensions: []string{"zip"},
				Login: &LoginConfig{
					User:        "admin",
					PasswordEnv: "TEST_SITEARCHIVE_PW",
					URL:         "https://example.com/login",
				},
			},
		},
	}

	t.Run("file values fill unset options", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Site = "example.com"
		cfg.SiteConfigs = file
		cfg.ApplySiteConfig(nil)

		if cfg.MaxDepth != 4 {
			t.Errorf("MaxDepth = %d, want 4", cfg.MaxDepth)
		}
		if !reflect.DeepEqual(cfg.BlockedExtensions, []string{"zip"}) {
			t.Errorf("BlockedExtensions = %v", cfg.BlockedExtensions)
		}
		if cfg.Credentials == nil {
			t.Fatal("expected credentials from file")
		}
		if cfg.Credentials.User != "admin" || cfg.Credentials.Password != "from-env" {
			t.Errorf("unexpected credentials %+v", cfg.Credentials)
		}
		if cfg.LoginURL() != "https://example.com/login" {
			t.Errorf("LoginURL() = %q", cfg.LoginURL())
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Site = "example.com"
		cfg.MaxDepth = 2
		cfg.Credentials = &Credentials{User: "cli", Password: "cli"}
		cfg.SiteConfigs = file
		cfg.ApplySiteConfig(map[string]bool{"depth": true})

		if cfg.MaxDepth != 2 {
			t.Errorf("MaxDepth = %d, want 2", cfg.MaxDepth)
		}
		if cfg.Credentials.User != "cli" {
			t.Errorf("credentials overwritten: %+v", cfg.Credentials)
		}
	})

	t.Run("no config file", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Site = "example.com"
		cfg.ApplySiteConfig(nil)
		if cfg.MaxDepth != DefaultMaxDepth {
			t.Errorf("MaxDepth = %d", cfg.MaxDepth)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		content := `defaults:
  depth: 3
  blockedSubstrings:
    - logout
sites:
  example.com:
    depth: 2
    login:
      user: admin
      passwordEnv: EXAMPLE_PASSWORD
`
		path := filepath.Join(t.TempDir(), ".sitearchive")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}
		if cf.Defaults.Depth != 3 {
			t.Errorf("Defaults.Depth = %d", cf.Defaults.Depth)
		}
		site, ok := cf.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com entry")
		}
		if site.Login == nil || site.Login.PasswordEnv != "EXAMPLE_PASSWORD" {
			t.Errorf("Login = %+v", site.Login)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitearchive")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("site entries match SiteName", func(t *testing.T) {
		t.Parallel()

		content := `sites:
  https://Example.com/:
    depth: 2
  http://localhost:8080/docs:
    depth: 4
`
		path := filepath.Join(t.TempDir(), ".sitearchive")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}

		for site, want := range map[string]int{"example.com": 2, "http://localhost:8080": 4} {
			cfg := NewConfig()
			cfg.Site = site
			cfg.SiteConfigs = cf
			cfg.ApplySiteConfig(nil)
			if cfg.MaxDepth != want {
				t.Errorf("%s: MaxDepth = %d, want %d", site, cfg.MaxDepth, want)
			}
		}
	})

	t.Run("duplicate site entries", func(t *testing.T) {
		t.Parallel()

		content := `sites:
  example.com:
    depth: 2
  https://example.com/:
    depth: 3
`
		path := filepath.Join(t.TempDir(), ".sitearchive")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for a site configured twice")
		}
	})

	t.Run("empty file initializes sites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitearchive")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected non-nil Sites")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("explicit directory", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(t.TempDir()); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("search order", func(t *testing.T) {
		t.Parallel()

		paths := SearchPaths()
		xdgPath := filepath.Join(XDGConfigDir(), XDGConfigFile)
		xdgAt := -1
		for i, p := range paths {
			if p == xdgPath {
				xdgAt = i
			}
		}
		if xdgAt < 0 {
			t.Fatalf("SearchPaths() = %v, missing %s", paths, xdgPath)
		}
		if cwd, err := os.Getwd(); err == nil && paths[0] != filepath.Join(cwd, DefaultConfigFile) {
			t.Errorf("SearchPaths()[0] = %q, want the working directory first", paths[0])
		}
		if len(paths) == 3 && xdgAt != 1 {
			t.Errorf("SearchPaths() = %v, want the XDG file between the working and home directories", paths)
		}
	})

	t.Run("first existing wins", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		project := filepath.Join(dir, "project", DefaultConfigFile)
		xdgFile := filepath.Join(dir, "xdg", AppName, XDGConfigFile)
		home := filepath.Join(dir, "home", DefaultConfigFile)
		for _, p := range []string{xdgFile, home} {
			if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
				t.Fatal(err)
			}
		}

		if got := firstExisting([]string{project, xdgFile, home}); got != xdgFile {
			t.Errorf("firstExisting() = %q, want %q", got, xdgFile)
		}
		if got := firstExisting([]string{project}); got != "" {
			t.Errorf("firstExisting() = %q, want empty", got)
		}
	})
}

func TestSiteKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		site string
		want string
	}{
		{site: "example.com", want: "example.com"},
		{site: "https://example.com/", want: "example.com"},
		{site: "HTTP://Example.com/docs/page", want: "example.com"},
		{site: "localhost:8080", want: "localhost_8080"},
		{site: "", want: ""},
		{site: "https://", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.site, func(t *testing.T) {
			t.Parallel()

			if got := SiteKey(tt.site); got != tt.want {
				t.Errorf("SiteKey(%q) = %q, want %q", tt.site, got, tt.want)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("XDGDataDir() = %q", XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("XDGConfigDir() = %q", XDGConfigDir())
	}
}
