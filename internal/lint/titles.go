package lint

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
)

// titlesRule reports objects without a title. Its fix derives one from
// the file name and rewrites the frontmatter in place.
type titlesRule struct{}

func (titlesRule) Name() string { return "titles" }

func (titlesRule) Check(_ *Context, obj *models.Object) []models.Issue {
	if obj.Title != "" {
		return nil
	}
	return []models.Issue{{
		Severity: models.SeverityWarn,
		Stage:    models.StageLint,
		Rule:     "titles",
		ObjectID: obj.ID,
		SourceID: obj.SourceID,
		Path:     obj.RelPath,
		Message:  "missing title",
	}}
}

func (titlesRule) Fix(lc *Context, obj *models.Object) error {
	store, ok := lc.Stores[obj.SourceID]
	if !ok || store == nil {
		return fmt.Errorf("no write access for source %s", obj.SourceID)
	}

	title := humanizeTitle(path.Base(obj.ID))
	fm := make(map[string]models.Value, len(obj.Frontmatter)+1)
	for k, v := range obj.Frontmatter {
		fm[k] = v
	}
	fm["title"] = models.StringValue(title)

	content, err := renderMarkdown(fm, obj.Body)
	if err != nil {
		return err
	}
	if err := store.Write(filepath.FromSlash(obj.RelPath), content); err != nil {
		return err
	}

	obj.Title = title
	obj.Frontmatter = fm
	obj.Checksum = parser.ContentHash(content)
	return nil
}

// renderMarkdown reassembles a file from frontmatter and body.
func renderMarkdown(fm map[string]models.Value, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("lint: marshal frontmatter: %w", err)
	}
	buf.Write(enc)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}

// humanizeTitle turns a file base name into a display title:
// separators become spaces and the first letter is capitalised.
func humanizeTitle(base string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return base
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
