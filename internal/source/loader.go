// Package source loads raw vault objects from one configured content
// source.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
	"github.com/starford/othala/internal/storage"
)

// Spec is the resolved runtime declaration for one source.
type Spec struct {
	ID          string
	Root        string // absolute directory
	DefaultType string // object type when frontmatter declares none
	Required    bool
	// Ignore holds doublestar patterns matched against slash-separated
	// paths relative to Root.
	Ignore []string
}

// Result is one source's load output: the objects that parsed, the
// issues for the files that did not, and the per-source summary.
type Result struct {
	Objects []*models.Object
	Issues  []models.Issue
	Summary models.SourceSummary
}

// Load walks the source directory and parses every eligible Markdown
// file. File-level failures degrade to issues and skip the file. A
// missing or unreadable root returns *apperr.SourceAccessError for a
// required source; an optional source degrades to a single warning.
func Load(ctx context.Context, spec Spec) (*Result, error) {
	res := &Result{Summary: models.SourceSummary{SourceID: spec.ID}}

	ignore, issues := compilePatterns(spec)
	res.Issues = append(res.Issues, issues...)

	store, err := storage.NewFS(spec.Root)
	if err != nil {
		return res.degrade(spec, err)
	}
	files, err := store.List("")
	if err != nil {
		return res.degrade(spec, err)
	}

	var lastSynced time.Time
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := filepath.ToSlash(fi.Path)
		if matchesAny(ignore, rel) {
			continue
		}

		data, err := store.Read(fi.Path)
		if err != nil {
			res.Issues = append(res.Issues, fileIssue(spec.ID, rel, err))
			continue
		}
		parsed, err := parser.Parse(data)
		if err != nil {
			res.Issues = append(res.Issues, fileIssue(spec.ID, rel, err))
			continue
		}

		obj := &models.Object{
			ID:          objectID(rel),
			SourceID:    spec.ID,
			RelPath:     rel,
			Title:       parsed.Title,
			Type:        objectType(parsed.Frontmatter, spec.DefaultType),
			Frontmatter: parsed.Frontmatter,
			Body:        parsed.Body,
			Checksum:    parser.ContentHash(data),
			ModTime:     fi.ModTime,
		}
		res.Objects = append(res.Objects, obj)

		if fi.ModTime.After(lastSynced) {
			lastSynced = fi.ModTime
		}
	}

	res.Summary.Objects = len(res.Objects)
	res.Summary.Issues = len(res.Issues)
	res.Summary.LastSynced = lastSynced
	return res, nil
}

// degrade converts a root-level failure into either a hard error for a
// required source or a single warning for an optional one.
func (r *Result) degrade(spec Spec, err error) (*Result, error) {
	if spec.Required {
		return nil, &apperr.SourceAccessError{SourceID: spec.ID, Path: spec.Root, Err: err}
	}
	r.Issues = append(r.Issues, models.Issue{
		Severity: models.SeverityWarn,
		Stage:    models.StageSource,
		SourceID: spec.ID,
		Path:     spec.Root,
		Message:  fmt.Sprintf("skipping optional source: %v", err),
	})
	r.Summary.Issues = len(r.Issues)
	return r, nil
}

func fileIssue(sourceID, rel string, err error) models.Issue {
	return models.Issue{
		Severity: models.SeverityError,
		Stage:    models.StageSource,
		SourceID: sourceID,
		Path:     rel,
		Message:  err.Error(),
	}
}

// compilePatterns validates the ignore globs, dropping invalid ones
// with a warning.
func compilePatterns(spec Spec) ([]string, []models.Issue) {
	var out []string
	var issues []models.Issue
	for _, pat := range spec.Ignore {
		if !doublestar.ValidatePattern(pat) {
			issues = append(issues, models.Issue{
				Severity: models.SeverityWarn,
				Stage:    models.StageSource,
				SourceID: spec.ID,
				Message:  fmt.Sprintf("invalid ignore pattern %q", pat),
			})
			continue
		}
		out = append(out, pat)
	}
	return out, issues
}

func matchesAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// objectID derives the stable object id from a slash-separated
// source-relative path by stripping the extension.
func objectID(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// objectType picks the object type: frontmatter wins, then the
// source's declared default, then the global default.
func objectType(fm map[string]models.Value, sourceDefault string) string {
	if v, ok := fm["type"]; ok && v.Kind() == models.KindString && v.Str() != "" {
		return v.Str()
	}
	if sourceDefault != "" {
		return sourceDefault
	}
	return models.DefaultType
}
