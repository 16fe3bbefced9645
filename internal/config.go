package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesd/internal/store"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Notes  NotesConfig       `yaml:"notes"`
	Auth   AuthConfig        `yaml:"auth"`
	Inbox  InboxConfig       `yaml:"inbox"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.Errors{
		"app":    c.App.Validate(),
		"sqlite": c.SQLite.Validate(),
		"notes":  c.Notes.Validate(),
		"auth":   c.Auth.Validate(),
		"inbox":  c.Inbox.Validate(),
	}.Filter()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogPretty switches from JSON to colored console output.
	LogPretty bool       `yaml:"log_pretty"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
	// RebuildIndex recomputes every search entry at startup.
	RebuildIndex bool `yaml:"rebuild_index"`
	// OpenAttempts bounds retries while the database file is locked by
	// another process.
	OpenAttempts uint `yaml:"open_attempts"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.OpenAttempts, validation.Max(uint(20))),
	)
}

// NotesConfig holds limits of the note store.
type NotesConfig struct {
	// MaxNotes may lower the store capacity, never raise it.
	MaxNotes        int `yaml:"max_notes"`
	DefaultPageSize int `yaml:"default_page_size"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxNotes, validation.Required, validation.Min(1), validation.Max(store.DefaultMaxNotes)),
		validation.Field(&c.DefaultPageSize, validation.Required, validation.Min(1), validation.Max(store.MaxPageSize)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// InboxConfig holds the drop directory importer configuration.
type InboxConfig struct {
	Enabled bool          `yaml:"enabled"`
	Path    string        `yaml:"path"`
	Settle  time.Duration `yaml:"settle"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Settle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		SQLite: SQLiteConfig{
			Path:         "./notesd.db",
			OpenAttempts: 5,
		},
		Notes: NotesConfig{
			MaxNotes:        store.DefaultMaxNotes,
			DefaultPageSize: store.DefaultPageSize,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Inbox: InboxConfig{
			Path:   "./inbox",
			Settle: 200 * time.Millisecond,
		},
	}
}
