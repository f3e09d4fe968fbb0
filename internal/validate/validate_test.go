package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	dir := t.TempDir()
	content := `
types:
  note:
    fields:
      title: {type: string, required: true}
      tags: {type: strings}
      rating: {type: number}
      draft: {type: bool}
  post:
    projects: [blog]
    fields:
      published: {type: string, required: true}
`
	if err := os.WriteFile(filepath.Join(dir, "types.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	reg, issues := schema.Load(dir, nil)
	if len(issues) != 0 {
		t.Fatalf("schema issues: %v", issues)
	}
	return reg
}

func defaultOpts() Options {
	return Options{
		VisibilityField:   "visibility",
		DefaultVisibility: "private",
		ProjectVisibility: map[string]string{"blog": "public"},
	}
}

func obj(id, typ, project string, fm map[string]any) *models.Object {
	return &models.Object{
		ID:          id,
		SourceID:    "src",
		RelPath:     id + ".md",
		Type:        typ,
		Project:     project,
		Frontmatter: models.FromAnyMap(fm),
	}
}

func TestRunValidObject(t *testing.T) {
	o := obj("notes/a", "note", "research", map[string]any{
		"title":  "A",
		"tags":   []any{"x", "y"},
		"rating": 4,
		"draft":  false,
	})
	issues := Run([]*models.Object{o}, testRegistry(t), defaultOpts())
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	if o.Visibility != "private" {
		t.Errorf("Visibility = %q, want default", o.Visibility)
	}
}

func TestRunMissingRequired(t *testing.T) {
	o := obj("notes/a", "note", "research", map[string]any{"tags": []any{"x"}})
	issues := Run([]*models.Object{o}, testRegistry(t), defaultOpts())
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want 1", issues)
	}
	iss := issues[0]
	if iss.Severity != models.SeverityError || iss.Stage != models.StageValidation {
		t.Errorf("issue = %+v", iss)
	}
	if !strings.Contains(iss.Message, `"title"`) {
		t.Errorf("message = %q", iss.Message)
	}
	if iss.ObjectID != "notes/a" {
		t.Errorf("ObjectID = %q", iss.ObjectID)
	}
}

func TestRunNullRequiredCountsAsMissing(t *testing.T) {
	o := obj("notes/a", "note", "research", map[string]any{"title": nil})
	issues := Run([]*models.Object{o}, testRegistry(t), defaultOpts())
	if len(issues) != 1 || issues[0].Severity != models.SeverityError {
		t.Errorf("issues = %v, want missing-field error", issues)
	}
}

func TestRunTypeMismatch(t *testing.T) {
	o := obj("notes/a", "note", "research", map[string]any{
		"title":  "A",
		"rating": "four",
	})
	issues := Run([]*models.Object{o}, testRegistry(t), defaultOpts())
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want 1", issues)
	}
	if !strings.Contains(issues[0].Message, "expected number, got string") {
		t.Errorf("message = %q", issues[0].Message)
	}
}

func TestRunUnknownType(t *testing.T) {
	o := obj("notes/a", "recipe", "research", nil)
	issues := Run([]*models.Object{o}, testRegistry(t), defaultOpts())
	if len(issues) != 1 || issues[0].Severity != models.SeverityWarn {
		t.Fatalf("issues = %v, want one warning", issues)
	}
	if o.Visibility != "private" {
		t.Error("visibility must still resolve for unknown types")
	}
}

func TestRunProjectRestriction(t *testing.T) {
	good := obj("posts/a", "post", "blog", map[string]any{"published": "2024-01-01"})
	bad := obj("notes/b", "post", "research", map[string]any{"published": "2024-01-01"})
	issues := Run([]*models.Object{good, bad}, testRegistry(t), defaultOpts())
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want 1", issues)
	}
	if issues[0].ObjectID != "notes/b" || !strings.Contains(issues[0].Message, "not declared for project") {
		t.Errorf("issue = %+v", issues[0])
	}
}

func TestRunVisibility(t *testing.T) {
	explicit := obj("a", "note", "research", map[string]any{"title": "A", "visibility": "public"})
	override := obj("b", "post", "blog", map[string]any{"published": "x"})
	fallback := obj("c", "note", "research", map[string]any{"title": "C"})
	badKind := obj("d", "note", "research", map[string]any{"title": "D", "visibility": 3})

	issues := Run([]*models.Object{explicit, override, fallback, badKind}, testRegistry(t), defaultOpts())

	if explicit.Visibility != "public" {
		t.Errorf("explicit = %q", explicit.Visibility)
	}
	if override.Visibility != "public" {
		t.Errorf("project override = %q", override.Visibility)
	}
	if fallback.Visibility != "private" {
		t.Errorf("fallback = %q", fallback.Visibility)
	}
	if badKind.Visibility != "private" {
		t.Errorf("badKind = %q, want default after warning", badKind.Visibility)
	}
	if len(issues) != 1 || issues[0].Severity != models.SeverityWarn {
		t.Errorf("issues = %v, want one visibility warning", issues)
	}
}

func TestRunWarnUnknownFields(t *testing.T) {
	opts := defaultOpts()
	opts.WarnUnknownFields = true
	o := obj("a", "note", "research", map[string]any{
		"title":      "A",
		"visibility": "public",
		"zz_custom":  "x",
		"aa_custom":  "y",
	})
	issues := Run([]*models.Object{o}, testRegistry(t), opts)
	if len(issues) != 2 {
		t.Fatalf("issues = %v, want 2 info issues", issues)
	}
	// Sorted field order.
	if !strings.Contains(issues[0].Message, "aa_custom") || !strings.Contains(issues[1].Message, "zz_custom") {
		t.Errorf("issues = %v", issues)
	}
	for _, iss := range issues {
		if iss.Severity != models.SeverityInfo {
			t.Errorf("severity = %v, want info", iss.Severity)
		}
	}
}

func TestRunNeverRemovesObjects(t *testing.T) {
	objs := []*models.Object{
		obj("a", "note", "research", nil),
		obj("b", "mystery", "research", map[string]any{"x": 1}),
	}
	Run(objs, testRegistry(t), defaultOpts())
	if len(objs) != 2 {
		t.Fatalf("len = %d, want 2", len(objs))
	}
	for _, o := range objs {
		if o.Visibility == "" {
			t.Errorf("object %s left without visibility", o.ID)
		}
	}
}
