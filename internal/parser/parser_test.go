package parser

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/models"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nrating: 4\ndraft: false\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if v, ok := r.Frontmatter["rating"]; !ok || v.Kind() != models.KindNumber || v.Num() != 4 {
		t.Errorf("rating = %v", v)
	}
	if v, ok := r.Frontmatter["draft"]; !ok || v.Kind() != models.KindBool || v.Bool() {
		t.Errorf("draft = %v", v)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Frontmatter) != 0 {
		t.Errorf("expected empty frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	if _, err := Parse(input); err == nil {
		t.Fatal("expected error for invalid frontmatter YAML")
	}
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Open\nno closing delimiter\n")
	_, err := Parse(input)
	if !errors.Is(err, ErrUnterminatedFrontmatter) {
		t.Fatalf("error = %v, want ErrUnterminatedFrontmatter", err)
	}
}

func TestParse_DateField(t *testing.T) {
	input := []byte("---\npublished: 2024-02-10\n---\ntext\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.Frontmatter["published"]
	if v.Kind() != models.KindString || v.Str() != "2024-02-10" {
		t.Errorf("published = %v (%s), want string 2024-02-10", v, v.Kind())
	}
}

func TestExtractWikilinks_Basic(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	links := ExtractWikilinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractWikilinks_EmptyTarget(t *testing.T) {
	links := ExtractWikilinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	body := "# H1 Title\ntext"
	title := deriveTitle(fm, body)
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}

func TestContentHash_Stable(t *testing.T) {
	a := ContentHash([]byte("same"))
	b := ContentHash([]byte("same"))
	if a != b {
		t.Errorf("hash not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len(hash) = %d, want 64 hex chars", len(a))
	}
	if a == ContentHash([]byte("different")) {
		t.Error("distinct content produced identical hash")
	}
}
