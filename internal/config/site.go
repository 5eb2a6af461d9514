package config

// LoginConfig describes the login form of a site in the config file.
type LoginConfig struct {
	// User is the account name typed into the user field.
	User string `yaml:"user,omitempty"`

	// Password is typed into the password field. Prefer PasswordEnv so
	// the secret does not live in the file.
	Password string `yaml:"password,omitempty"`

	// PasswordEnv names an environment variable holding the password.
	PasswordEnv string `yaml:"passwordEnv,omitempty"`

	// URL is the login page. Empty means the default path below the root.
	URL string `yaml:"url,omitempty"`

	UserSelector     string `yaml:"userSelector,omitempty"`
	PasswordSelector string `yaml:"passwordSelector,omitempty"`
	SubmitSelector   string `yaml:"submitSelector,omitempty"`
}

// SiteConfig holds site-specific configuration for a single site.
// This allows customizing crawl behavior per archived site.
type SiteConfig struct {
	// Depth overrides the global crawl depth for this site.
	// If zero, the global depth is used.
	Depth int `yaml:"depth,omitempty"`

	// BlockedExtensions replaces the default list of file extensions that
	// are never archived.
	BlockedExtensions []string `yaml:"blockedExtensions,omitempty"`

	// BlockedSubstrings replaces the default list of URL substrings that
	// exclude a link.
	BlockedSubstrings []string `yaml:"blockedSubstrings,omitempty"`

	// Login enables the login step for this site.
	Login *LoginConfig `yaml:"login,omitempty"`
}

// File represents the structure of the .sitearchive configuration file.
type File struct {
	// Sites maps site names to their site-specific configurations.
	// LoadConfigFile re-keys entries with SiteKey, so "example.com" and
	// "https://example.com/" name the same site.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific site.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[site]; ok {
		if siteConfig.Depth != 0 {
			result.Depth = siteConfig.Depth
		}
		if len(siteConfig.BlockedExtensions) > 0 {
			result.BlockedExtensions = siteConfig.BlockedExtensions
		}
		if len(siteConfig.BlockedSubstrings) > 0 {
			result.BlockedSubstrings = siteConfig.BlockedSubstrings
		}
		if siteConfig.Login != nil {
			result.Login = siteConfig.Login
		}
	}

	return result
}
