// Package schema loads and indexes the object type schemas a vault
// validates against.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/othala/internal/models"
	pkgconfig "github.com/starford/othala/pkg/config"
)

// FieldType is the declared type of a frontmatter field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBool    FieldType = "bool"
	TypeStrings FieldType = "strings"
)

// ParseFieldType validates a field type name from a schema file.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(s) {
	case TypeString, TypeNumber, TypeBool, TypeStrings:
		return FieldType(s), nil
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Field is one declared frontmatter field of an object type.
type Field struct {
	Type     FieldType
	Required bool
}

// Schema describes one object type: its fields and, optionally, the
// projects it is restricted to.
type Schema struct {
	Name     string
	Projects []string
	Fields   map[string]Field
}

// AllowsProject reports whether objects of this type may belong to the
// given project. An empty restriction list allows every project.
func (s Schema) AllowsProject(name string) bool {
	if len(s.Projects) == 0 {
		return true
	}
	for _, p := range s.Projects {
		if p == name {
			return true
		}
	}
	return false
}

// Registry holds every loaded type schema, keyed by type name.
// Immutable after Load.
type Registry struct {
	types map[string]Schema
}

// Type returns the schema for the named object type, if declared.
func (r *Registry) Type(name string) (Schema, bool) {
	s, ok := r.types[name]
	return s, ok
}

// Types returns every declared type name in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of declared types.
func (r *Registry) Len() int { return len(r.types) }

// File shapes for YAML decoding.
type schemaFile struct {
	Types map[string]schemaType `yaml:"types"`
}

type schemaType struct {
	Projects []string               `yaml:"projects"`
	Fields   map[string]schemaField `yaml:"fields"`
}

type schemaField struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// Load reads every schema file from dir (each *.yaml or *.yml, skipped
// silently when dir does not exist) plus the explicitly listed files,
// in that order. Problems never abort the load; they aggregate as
// schema-stage issues. A malformed file is skipped, a duplicate type
// keeps its first definition, a field with an unknown type is dropped.
func Load(dir string, files []string) (*Registry, []models.Issue) {
	reg := &Registry{types: make(map[string]Schema)}
	origin := make(map[string]string)
	var issues []models.Issue

	var paths []string
	if dir != "" {
		entries, err := os.ReadDir(dir)
		switch {
		case os.IsNotExist(err):
			// No schema directory, nothing to load from it.
		case err != nil:
			issues = append(issues, models.Issue{
				Severity: models.SeverityError,
				Stage:    models.StageSchema,
				Path:     dir,
				Message:  fmt.Sprintf("read schema directory: %v", err),
			})
		default:
			for _, e := range entries {
				if e.IsDir() || !schemaFileName(e.Name()) {
					continue
				}
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	paths = append(paths, files...)

	for _, path := range paths {
		issues = append(issues, loadFile(reg, origin, path)...)
	}
	return reg, issues
}

func schemaFileName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadFile merges one schema file into the registry, returning the
// issues it produced. Iteration is sorted so issue order is stable.
func loadFile(reg *Registry, origin map[string]string, path string) []models.Issue {
	var issues []models.Issue

	var file schemaFile
	if err := pkgconfig.Load(path, &file); err != nil {
		return []models.Issue{{
			Severity: models.SeverityError,
			Stage:    models.StageSchema,
			Path:     path,
			Message:  fmt.Sprintf("invalid schema file: %v", err),
		}}
	}

	names := make([]string, 0, len(file.Types))
	for name := range file.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if prev, dup := origin[name]; dup {
			issues = append(issues, models.Issue{
				Severity: models.SeverityWarn,
				Stage:    models.StageSchema,
				Path:     path,
				Message:  fmt.Sprintf("duplicate type %q, keeping definition from %s", name, prev),
			})
			continue
		}

		decl := file.Types[name]
		s := Schema{
			Name:     name,
			Projects: decl.Projects,
			Fields:   make(map[string]Field, len(decl.Fields)),
		}

		fieldNames := make([]string, 0, len(decl.Fields))
		for fn := range decl.Fields {
			fieldNames = append(fieldNames, fn)
		}
		sort.Strings(fieldNames)

		for _, fn := range fieldNames {
			fd := decl.Fields[fn]
			ft, err := ParseFieldType(fd.Type)
			if err != nil {
				issues = append(issues, models.Issue{
					Severity: models.SeverityWarn,
					Stage:    models.StageSchema,
					Path:     path,
					Message:  fmt.Sprintf("type %q: field %q: %v", name, fn, err),
				})
				continue
			}
			s.Fields[fn] = Field{Type: ft, Required: fd.Required}
		}

		reg.types[name] = s
		origin[name] = path
	}
	return issues
}
