package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/othala/internal/models"
)

func writeSchema(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "core.yaml", `
types:
  note:
    fields:
      title: {type: string, required: true}
      tags: {type: strings}
  reference:
    fields:
      citekey: {type: string, required: true}
      year: {type: number}
`)
	writeSchema(t, dir, "blog.yml", `
types:
  post:
    projects: [blog]
    fields:
      published: {type: string}
      draft: {type: bool}
`)

	reg, issues := Load(dir, nil)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", reg.Len())
	}

	note, ok := reg.Type("note")
	if !ok {
		t.Fatal("missing type note")
	}
	if f := note.Fields["title"]; f.Type != TypeString || !f.Required {
		t.Errorf("title field = %+v", f)
	}
	if f := note.Fields["tags"]; f.Type != TypeStrings || f.Required {
		t.Errorf("tags field = %+v", f)
	}

	post, _ := reg.Type("post")
	if post.AllowsProject("research") {
		t.Error("post should be restricted to blog")
	}
	if !post.AllowsProject("blog") {
		t.Error("post should allow blog")
	}
	if !note.AllowsProject("anything") {
		t.Error("unrestricted type should allow every project")
	}

	want := []string{"note", "post", "reference"}
	got := reg.Types()
	if len(got) != len(want) {
		t.Fatalf("Types() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadMissingDir(t *testing.T) {
	reg, issues := Load(filepath.Join(t.TempDir(), "absent"), nil)
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none for missing dir", issues)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "bad.yaml", "types: [not, a, map")
	writeSchema(t, dir, "good.yaml", `
types:
  note:
    fields:
      title: {type: string}
`)

	reg, issues := Load(dir, nil)
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want 1", issues)
	}
	if issues[0].Severity != models.SeverityError || issues[0].Stage != models.StageSchema {
		t.Errorf("issue = %+v", issues[0])
	}
	if _, ok := reg.Type("note"); !ok {
		t.Error("valid file should still load after a malformed one")
	}
}

func TestLoadDuplicateTypeKeepsFirst(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "a.yaml", `
types:
  note:
    fields:
      title: {type: string, required: true}
`)
	writeSchema(t, dir, "b.yaml", `
types:
  note:
    fields:
      other: {type: string}
`)

	reg, issues := Load(dir, nil)
	if len(issues) != 1 || issues[0].Severity != models.SeverityWarn {
		t.Fatalf("issues = %v, want one warning", issues)
	}
	note, _ := reg.Type("note")
	if _, ok := note.Fields["title"]; !ok {
		t.Error("first definition should win")
	}
	if _, ok := note.Fields["other"]; ok {
		t.Error("second definition should be ignored")
	}
}

func TestLoadUnknownFieldType(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "a.yaml", `
types:
  note:
    fields:
      title: {type: string}
      weird: {type: datetime}
`)

	reg, issues := Load(dir, nil)
	if len(issues) != 1 || issues[0].Severity != models.SeverityWarn {
		t.Fatalf("issues = %v, want one warning", issues)
	}
	note, _ := reg.Type("note")
	if _, ok := note.Fields["weird"]; ok {
		t.Error("field with unknown type should be dropped")
	}
	if _, ok := note.Fields["title"]; !ok {
		t.Error("valid sibling field should survive")
	}
}

func TestLoadExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	extra := writeSchema(t, dir, "extra.conf.yaml", `
types:
  dataset:
    fields:
      rows: {type: number}
`)

	reg, issues := Load("", []string{extra, filepath.Join(dir, "missing.yaml")})
	if len(issues) != 1 || issues[0].Severity != models.SeverityError {
		t.Fatalf("issues = %v, want one error for the missing file", issues)
	}
	if _, ok := reg.Type("dataset"); !ok {
		t.Error("explicit file should load")
	}
}
