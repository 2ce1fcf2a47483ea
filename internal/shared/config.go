package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override file values.
const (
	EnvSupabaseURL  = "SUPABASE_URL"
	EnvSupabaseKey  = "SUPABASE_ANON_KEY"
	EnvStoreDSN     = "SHELF_STORE_DSN"
	EnvBooksAPIKey  = "GOOGLE_BOOKS_API_KEY"
	defaultTimeout  = 10 * time.Second
	defaultCallback = "/callback"
)

// Collection store backends.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// Move policies for the collection store.
const (
	MoveLastWriterWins = "last-writer-wins"
	MoveConditional    = "conditional"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Supabase SupabaseConfig `toml:"supabase"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// SupabaseConfig contains the hosted identity and table service settings.
type SupabaseConfig struct {
	URL           string `toml:"url"`
	AnonKey       string `toml:"anon_key"`
	SessionPath   string `toml:"session_path"`
	OAuthProvider string `toml:"oauth_provider"`
}

// CatalogConfig contains the book catalog client settings.
type CatalogConfig struct {
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	Timeout      string `toml:"timeout"`
	DefaultQuery string `toml:"default_query"`
}

// StoreConfig selects and configures the collection store backend.
type StoreConfig struct {
	Backend      string `toml:"backend"`
	DSN          string `toml:"dsn"`
	Path         string `toml:"path"`
	MovePolicy   string `toml:"move_policy"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	Locale string `toml:"locale"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads dotenv files into the process environment without overriding variables that are already set.
//
// Missing files are ignored. With no arguments ".env" in the working directory is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays the supported environment variables onto the config.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvSupabaseURL); ok {
		c.Supabase.URL = v
	}
	if v, ok := os.LookupEnv(EnvSupabaseKey); ok {
		c.Supabase.AnonKey = v
	}
	if v, ok := os.LookupEnv(EnvStoreDSN); ok {
		c.Store.DSN = v
	}
	if v, ok := os.LookupEnv(EnvBooksAPIKey); ok {
		c.Catalog.APIKey = v
	}
}

// Validate checks enumerated fields and fills empty ones with defaults.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "":
		c.Store.Backend = BackendPostgREST
	case BackendPostgREST, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	switch c.Store.MovePolicy {
	case "":
		c.Store.MovePolicy = MoveLastWriterWins
	case MoveLastWriterWins, MoveConditional:
	default:
		return fmt.Errorf("%w: unknown move policy %q", ErrInvalidConfig, c.Store.MovePolicy)
	}

	if c.UI.Locale == "" {
		c.UI.Locale = "en"
	}
	if _, ok := catalogs[c.UI.Locale]; !ok {
		return fmt.Errorf("%w: unknown locale %q", ErrInvalidConfig, c.UI.Locale)
	}

	if c.Catalog.Timeout != "" {
		if _, err := time.ParseDuration(c.Catalog.Timeout); err != nil {
			return fmt.Errorf("%w: catalog timeout %q", ErrInvalidConfig, c.Catalog.Timeout)
		}
	}
	return nil
}

// Connected reports whether the identity and table service is configured.
//
// Without it the application runs search-only with writes disabled.
func (c *Config) Connected() bool {
	return strings.TrimSpace(c.Supabase.URL) != "" && strings.TrimSpace(c.Supabase.AnonKey) != ""
}

// StoreConfigured reports whether the selected collection store backend has what it needs to open.
func (c *Config) StoreConfigured() bool {
	switch c.Store.Backend {
	case BackendPostgres:
		return c.Store.DSN != ""
	case BackendSQLite:
		return c.Store.Path != ""
	default:
		return c.Connected()
	}
}

// CatalogTimeout returns the parsed request timeout, defaulting to ten seconds.
func (c *Config) CatalogTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Catalog.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultTimeout
}

// CallbackURL is the local address the OAuth provider redirects back to.
func (c *Config) CallbackURL() string {
	return fmt.Sprintf("http://%s:%d%s", c.Server.Host, c.Server.Port, defaultCallback)
}

// SessionFile returns the configured session path with a leading "~" expanded.
func (c *Config) SessionFile() (string, error) {
	return ExpandHome(c.Supabase.SessionPath)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
