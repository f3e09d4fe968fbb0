package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/vault"
)

func testState() *vault.State {
	return &vault.State{
		Objects: []*models.Object{
			{
				ID:         "alpha",
				SourceID:   "notes",
				RelPath:    "alpha.md",
				Title:      "Alpha",
				Type:       "note",
				Project:    "research",
				Visibility: "private",
				Body:       "Alpha body.",
				ModTime:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				ID:       "posts/hello",
				SourceID: "blog",
				RelPath:  "posts/hello.md",
				Title:    "Hello",
				Type:     "post",
				Project:  "blog",
				ModTime:  time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			},
		},
		Issues: []models.Issue{
			{Severity: models.SeverityWarn, Stage: models.StageValidation, ObjectID: "alpha", Message: "missing required field \"date\""},
		},
		Summaries: []models.SourceSummary{
			{SourceID: "notes", Objects: 1},
			{SourceID: "blog", Objects: 1, Issues: 1},
		},
		BuiltAt: time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testState()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	objects, ok := doc["objects"].([]any)
	if !ok || len(objects) != 2 {
		t.Fatalf("objects = %v, want 2 entries", doc["objects"])
	}
	first := objects[0].(map[string]any)
	if first["id"] != "alpha" || first["project"] != "research" {
		t.Errorf("first object = %v", first)
	}
	issues, ok := doc["issues"].([]any)
	if !ok || len(issues) != 1 {
		t.Fatalf("issues = %v, want 1 entry", doc["issues"])
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, testState()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<h2>blog (1)</h2>",
		"<h2>research (1)</h2>",
		"posts/hello",
		"missing required field",
		"sev-warn",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html output missing %q", want)
		}
	}

	// Projects render sorted by name.
	if strings.Index(out, "<h2>blog") > strings.Index(out, "<h2>research") {
		t.Error("projects not sorted by name")
	}
}

func TestWriteHTMLEscapes(t *testing.T) {
	state := testState()
	state.Issues = append(state.Issues, models.Issue{
		Severity: models.SeverityError,
		Stage:    models.StageLint,
		Message:  "<script>alert(1)</script>",
	})

	var buf bytes.Buffer
	if err := WriteHTML(&buf, state); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("issue message not escaped")
	}
}
