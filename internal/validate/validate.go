// Package validate checks vault objects against their type schemas and
// resolves visibility.
package validate

import (
	"fmt"
	"sort"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/schema"
)

// Options carries the configuration slice the validator needs.
type Options struct {
	VisibilityField   string
	DefaultVisibility string
	// ProjectVisibility maps a project name to its visibility override.
	ProjectVisibility map[string]string
	WarnUnknownFields bool
}

// Fields treated as structural rather than schema-declared; they never
// trigger unknown-field warnings.
var structuralFields = map[string]struct{}{
	"type":  {},
	"title": {},
}

// Run validates every object and resolves its visibility. Objects are
// annotated, never removed: the returned issues are the only output
// besides the visibility each object ends up with.
func Run(objects []*models.Object, reg *schema.Registry, opts Options) []models.Issue {
	var issues []models.Issue
	for _, obj := range objects {
		issues = append(issues, checkObject(obj, reg, opts)...)
		issues = append(issues, resolveVisibility(obj, opts)...)
	}
	return issues
}

func checkObject(obj *models.Object, reg *schema.Registry, opts Options) []models.Issue {
	s, ok := reg.Type(obj.Type)
	if !ok {
		return []models.Issue{objIssue(obj, models.SeverityWarn,
			fmt.Sprintf("no schema registered for type %q", obj.Type))}
	}

	var issues []models.Issue
	if !s.AllowsProject(obj.Project) {
		issues = append(issues, objIssue(obj, models.SeverityWarn,
			fmt.Sprintf("type %q is not declared for project %q", obj.Type, obj.Project)))
	}

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := s.Fields[name]
		v, present := obj.Field(name)
		if !present || v.IsNull() {
			if field.Required {
				issues = append(issues, objIssue(obj, models.SeverityError,
					fmt.Sprintf("missing required field %q", name)))
			}
			continue
		}
		if !kindMatches(v, field.Type) {
			issues = append(issues, objIssue(obj, models.SeverityError,
				fmt.Sprintf("field %q: expected %s, got %s", name, field.Type, v.Kind())))
		}
	}

	if opts.WarnUnknownFields {
		issues = append(issues, unknownFields(obj, s, opts)...)
	}
	return issues
}

// kindMatches reports whether a frontmatter value conforms to the
// declared field type.
func kindMatches(v models.Value, t schema.FieldType) bool {
	switch t {
	case schema.TypeString:
		return v.Kind() == models.KindString
	case schema.TypeNumber:
		return v.Kind() == models.KindNumber
	case schema.TypeBool:
		return v.Kind() == models.KindBool
	case schema.TypeStrings:
		return v.Kind() == models.KindStrings
	}
	return false
}

func unknownFields(obj *models.Object, s schema.Schema, opts Options) []models.Issue {
	var extra []string
	for name := range obj.Frontmatter {
		if _, declared := s.Fields[name]; declared {
			continue
		}
		if _, structural := structuralFields[name]; structural {
			continue
		}
		if name == opts.VisibilityField {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)

	issues := make([]models.Issue, 0, len(extra))
	for _, name := range extra {
		issues = append(issues, objIssue(obj, models.SeverityInfo,
			fmt.Sprintf("unknown field %q", name)))
	}
	return issues
}

// resolveVisibility materialises the object's visibility: an explicit
// string frontmatter value wins, otherwise the project override,
// otherwise the global default.
func resolveVisibility(obj *models.Object, opts Options) []models.Issue {
	v, ok := obj.Field(opts.VisibilityField)
	if ok && v.Kind() == models.KindString && v.Str() != "" {
		obj.Visibility = v.Str()
		return nil
	}

	var issues []models.Issue
	if ok && !v.IsNull() {
		issues = append(issues, objIssue(obj, models.SeverityWarn,
			fmt.Sprintf("field %q must be a string, got %s", opts.VisibilityField, v.Kind())))
	}
	if override, set := opts.ProjectVisibility[obj.Project]; set && override != "" {
		obj.Visibility = override
	} else {
		obj.Visibility = opts.DefaultVisibility
	}
	return issues
}

func objIssue(obj *models.Object, sev models.Severity, msg string) models.Issue {
	return models.Issue{
		Severity: sev,
		Stage:    models.StageValidation,
		ObjectID: obj.ID,
		SourceID: obj.SourceID,
		Path:     obj.RelPath,
		Message:  msg,
	}
}
