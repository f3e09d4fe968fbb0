// Package internal holds the project configuration for Othala.
package internal

import (
	"fmt"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/othala/internal/apperr"
	pkgconfig "github.com/starford/othala/pkg/config"
)

// DefaultConfigFile is the configuration file looked up in the working
// directory when no --config flag is given.
const DefaultConfigFile = "othala.yaml"

// Config is the project configuration for one vault: which sources
// feed it and how their objects map onto projects. Loaded once per run
// and immutable afterwards.
type Config struct {
	DefaultVisibility string          `yaml:"default_visibility"`
	VisibilityField   string          `yaml:"visibility_field"`
	SchemaDir         string          `yaml:"schema_dir"`
	SchemaFiles       []string        `yaml:"schema_files"`
	WarnUnknownFields bool            `yaml:"warn_unknown_fields"`
	Sources           []SourceConfig  `yaml:"sources"`
	Projects          []ProjectConfig `yaml:"projects"`
	Lint              LintConfig      `yaml:"lint"`

	// BaseDir is the directory holding the config file; relative
	// source and schema paths resolve against it.
	BaseDir string `yaml:"-"`
	// ConfigPath is the absolute path the config was loaded from.
	ConfigPath string `yaml:"-"`
}

// SourceConfig declares one physical location yielding raw objects.
type SourceConfig struct {
	ID       string   `yaml:"id"`
	Path     string   `yaml:"path"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Ignore   []string `yaml:"ignore"`
}

// Validate validates a single source declaration.
func (s SourceConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Path, validation.Required),
	)
}

// ProjectConfig is a project profile: the sources it claims for
// fallback attribution, an optional visibility override, and other
// project names grouped beneath it.
type ProjectConfig struct {
	Name       string   `yaml:"name"`
	Sources    []string `yaml:"sources"`
	Visibility string   `yaml:"visibility"`
	Include    []string `yaml:"include"`
}

// Validate validates a single project profile.
func (p ProjectConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}

// LintConfig selects lint rules and names the bibliography surface.
type LintConfig struct {
	// Rules is the enabled rule subset; empty means every registered rule.
	Rules []string `yaml:"rules"`
	// BibliographyTypes are object types whose instances contribute
	// citation keys.
	BibliographyTypes []string `yaml:"bibliography_types"`
	// CitekeyField is the frontmatter field naming an object's citation key.
	CitekeyField string `yaml:"citekey_field"`
}

// Validate validates the full configuration, including the
// cross-references between profiles and sources.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultVisibility, validation.Required),
		validation.Field(&c.VisibilityField, validation.Required),
		validation.Field(&c.Sources, validation.Required),
		validation.Field(&c.Projects),
	); err != nil {
		return err
	}

	sourceIDs := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := sourceIDs[s.ID]; dup {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		sourceIDs[s.ID] = struct{}{}
	}

	projectNames := make(map[string]struct{}, len(c.Projects))
	for _, p := range c.Projects {
		if _, dup := projectNames[p.Name]; dup {
			return fmt.Errorf("duplicate project name %q", p.Name)
		}
		projectNames[p.Name] = struct{}{}
	}

	claimed := make(map[string]string)
	for _, p := range c.Projects {
		for _, id := range p.Sources {
			if _, ok := sourceIDs[id]; !ok {
				return fmt.Errorf("project %q references unknown source id %q", p.Name, id)
			}
			if prev, ok := claimed[id]; ok {
				return fmt.Errorf("source id %q claimed by both %q and %q", id, prev, p.Name)
			}
			claimed[id] = p.Name
		}
		for _, inc := range p.Include {
			if _, ok := projectNames[inc]; !ok {
				return fmt.Errorf("project %q includes unknown project %q", p.Name, inc)
			}
			if inc == p.Name {
				return fmt.Errorf("project %q includes itself", p.Name)
			}
		}
	}

	return nil
}

// SourceByID returns the declared source with the given id, if any.
func (c *Config) SourceByID(id string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Project returns the profile with the given name, if any.
func (c *Config) Project(name string) (ProjectConfig, bool) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return ProjectConfig{}, false
}

// SourceRoot resolves a source path against the config base directory.
func (c *Config) SourceRoot(s SourceConfig) string {
	if filepath.IsAbs(s.Path) {
		return s.Path
	}
	return filepath.Join(c.BaseDir, s.Path)
}

// VisibilityFor returns the default visibility for objects of the given
// project: the profile override when set, otherwise the global default.
func (c *Config) VisibilityFor(project string) string {
	if p, ok := c.Project(project); ok && p.Visibility != "" {
		return p.Visibility
	}
	return c.DefaultVisibility
}

// NewDefaultConfig returns a Config with the documented defaults
// applied; the loaded file overrides them field by field.
func NewDefaultConfig() *Config {
	return &Config{
		DefaultVisibility: "private",
		VisibilityField:   "visibility",
		SchemaDir:         "schemas",
		Lint: LintConfig{
			BibliographyTypes: []string{"reference"},
			CitekeyField:      "citekey",
		},
	}
}

// LoadConfig resolves the configuration file at path. Any failure
// (missing file, malformed YAML, failed validation) surfaces as a
// *apperr.ConfigError; there is no silent defaulting.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, &apperr.ConfigError{Path: path, Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &apperr.ConfigError{Path: path, Err: err}
	}
	cfg.BaseDir = filepath.Dir(abs)
	cfg.ConfigPath = abs
	return cfg, nil
}
