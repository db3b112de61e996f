package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/ghost"
	"github.com/starford/scribe/internal/markup"
	"github.com/starford/scribe/internal/source"
	"github.com/starford/scribe/internal/transcode"
	"github.com/starford/scribe/internal/uploader"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Source    SourceConfig      `yaml:"source"`
	Output    OutputConfig      `yaml:"output"`
	Transcode TranscodeConfig   `yaml:"transcode"`
	Upload    UploadConfig      `yaml:"upload"`
	Ghost     GhostConfig       `yaml:"ghost"`
	Ledger    LedgerConfig      `yaml:"ledger"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app", &c.App},
		{"source", &c.Source},
		{"transcode", &c.Transcode},
		{"upload", &c.Upload},
		{"ghost", &c.Ghost},
		{"auth", &c.Auth},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	if c.Source.Kind == source.KindGhostAPI {
		if c.Ghost.URL == "" {
			return errors.New("source: kind ghost-api needs ghost.url")
		}
		if c.Ghost.AdminAPIKey == "" && c.Ghost.ContentAPIKey == "" {
			return errors.New("source: kind ghost-api needs ghost.admin_api_key or ghost.content_api_key")
		}
	}
	if c.Upload.Kind == uploader.KindGhost && (c.Ghost.URL == "" || c.Ghost.AdminAPIKey == "") {
		return errors.New("upload: kind ghost needs ghost.url and ghost.admin_api_key")
	}
	return nil
}

// GhostPublishing reports whether the Ghost section is complete enough to
// create posts.
func (c *Config) GhostPublishing() error {
	if c.Ghost.URL == "" || c.Ghost.AdminAPIKey == "" {
		return errors.New("ghost: url and admin_api_key are required to publish")
	}
	return nil
}

// ApplicationConfig holds application-level configuration. Concurrency
// bounds documents converted at once; zero means GOMAXPROCS.
type ApplicationConfig struct {
	LogLevel    slog.Level `yaml:"log_level"`
	Concurrency int        `yaml:"concurrency"`
	HTTP        HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Min(0)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig selects where documents are read from.
//
// Path is the input directory for "files", the export file for
// "ghost-export" and a feed file for "feed". URL is a feed URL and takes
// precedence over Path for "feed". "ghost-api" reads from the ghost section.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(anyOf(source.Kinds)...)),
	); err != nil {
		return err
	}
	switch c.Kind {
	case source.KindFiles, source.KindGhostExport:
		if c.Path == "" {
			return fmt.Errorf("kind %s needs a path", c.Kind)
		}
	case source.KindFeed:
		if c.Path == "" && c.URL == "" {
			return fmt.Errorf("kind %s needs a path or url", c.Kind)
		}
	}
	return nil
}

// Location returns the feed URL when set, the path otherwise.
func (c *SourceConfig) Location() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Path
}

// OutputConfig holds the directory converted files are written to.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// TranscodeConfig holds conversion settings.
type TranscodeConfig struct {
	Target      string   `yaml:"target"`
	Engine      string   `yaml:"engine"`
	DefaultTags []string `yaml:"default_tags"`
	Exclude     []string `yaml:"exclude"`
}

// Validate validates the transcode configuration.
func (c *TranscodeConfig) Validate() error {
	targets := make([]string, len(transcode.Targets))
	for i, t := range transcode.Targets {
		targets[i] = string(t)
	}
	engines := make([]string, len(markup.Engines))
	for i, e := range markup.Engines {
		engines[i] = string(e)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Target, validation.Required, validation.In(anyOf(targets)...)),
		validation.Field(&c.Engine, validation.Required, validation.In(anyOf(engines)...)),
	); err != nil {
		return err
	}
	return source.ValidateGlobs(c.Exclude)
}

// UploadConfig selects how local images referenced by documents are
// uploaded.
type UploadConfig struct {
	Kind  string            `yaml:"kind"`
	Local LocalUploadConfig `yaml:"local"`
}

// LocalUploadConfig holds the asset directory used by the local uploader.
type LocalUploadConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	if c.Kind == "" {
		c.Kind = uploader.KindNone
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.In(uploader.KindNone, uploader.KindLocal, uploader.KindGhost)),
	); err != nil {
		return err
	}
	if c.Kind == uploader.KindLocal {
		return validation.ValidateStruct(&c.Local,
			validation.Field(&c.Local.Path, validation.Required),
			validation.Field(&c.Local.BaseURL, validation.Required),
		)
	}
	return nil
}

// GhostConfig holds Ghost site credentials. The admin key has the form
// "id:secret" as shown in Ghost's integration settings.
type GhostConfig struct {
	URL           string `yaml:"url"`
	AdminAPIKey   string `yaml:"admin_api_key"`
	ContentAPIKey string `yaml:"content_api_key"`
	PostStatus    string `yaml:"post_status"`
}

// Validate validates the Ghost configuration.
func (c *GhostConfig) Validate() error {
	if c.PostStatus == "" {
		c.PostStatus = ghost.StatusDraft
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.PostStatus, validation.In(ghost.StatusDraft, ghost.StatusPublished)),
	)
}

// LedgerConfig holds the SQLite ledger location. An empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
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

func anyOf(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Kind: source.KindFiles,
			Path: "./posts",
		},
		Output: OutputConfig{
			Path: "./content",
		},
		Transcode: TranscodeConfig{
			Target:      string(transcode.TargetZola),
			Engine:      string(markup.EngineRules),
			DefaultTags: []string{"NixOS", "Self-Hosting"},
			Exclude:     append([]string(nil), source.DefaultExclude...),
		},
		Upload: UploadConfig{
			Kind: uploader.KindNone,
			Local: LocalUploadConfig{
				Path:    "./static/images",
				BaseURL: "/images",
			},
		},
		Ghost: GhostConfig{
			PostStatus: ghost.StatusDraft,
		},
		Ledger: LedgerConfig{
			Path: "./scribe.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
