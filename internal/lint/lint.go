// Package lint checks vault objects against content rules: citation
// keys, wikilink targets, and titles. Rules annotate, they never block.
package lint

import (
	"fmt"
	"path"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Rule checks one object and reports its findings.
type Rule interface {
	Name() string
	Check(lc *Context, obj *models.Object) []models.Issue
}

// Fixer is implemented by rules that can rewrite an object's file to
// resolve their own findings.
type Fixer interface {
	Fix(lc *Context, obj *models.Object) error
}

// Context is the read-mostly state shared by every rule during a run.
type Context struct {
	// Bibliography maps citation key to the id of the object that
	// declares it.
	Bibliography map[string]string
	// IDs holds every object id in the vault.
	IDs map[string]struct{}
	// Titles maps title and id base name to object id, for wikilink
	// resolution.
	Titles map[string]string
	// Stores provides write access per source id; nil when fixes are
	// not requested.
	Stores map[string]storage.Provider

	CitekeyField string
}

// Options selects rules and names the bibliography surface.
type Options struct {
	// Rules is the enabled subset; empty enables every registered rule.
	Rules             []string
	BibliographyTypes []string
	CitekeyField      string
	// Stores enables fixes when non-nil, keyed by source id.
	Stores map[string]storage.Provider
}

// Runner executes the configured rules over a set of objects.
type Runner struct {
	rules []Rule
	opts  Options
}

// registered is the full rule set in execution order.
func registered() []Rule {
	return []Rule{citationsRule{}, linksRule{}, titlesRule{}}
}

// New builds a runner for the given options. Unknown rule names are
// reported by Run as lint issues rather than failing construction.
func New(opts Options) *Runner {
	all := registered()
	if len(opts.Rules) == 0 {
		return &Runner{rules: all, opts: opts}
	}

	enabled := make(map[string]struct{}, len(opts.Rules))
	for _, name := range opts.Rules {
		enabled[name] = struct{}{}
	}
	var rules []Rule
	for _, r := range all {
		if _, ok := enabled[r.Name()]; ok {
			rules = append(rules, r)
		}
	}
	return &Runner{rules: rules, opts: opts}
}

// Run checks every object with every enabled rule, in object order.
// With fix set, rules that implement Fixer get a chance to resolve
// their own findings; a successful fix downgrades the finding to an
// informational note, a failed one keeps it and records the failure.
func (r *Runner) Run(objects []*models.Object, fix bool) []models.Issue {
	lc := r.buildContext(objects)

	var issues []models.Issue
	issues = append(issues, r.unknownRuleIssues()...)

	for _, obj := range objects {
		for _, rule := range r.rules {
			found := rule.Check(lc, obj)
			if len(found) == 0 {
				continue
			}
			fixer, canFix := rule.(Fixer)
			if !fix || !canFix {
				issues = append(issues, found...)
				continue
			}
			if err := fixer.Fix(lc, obj); err != nil {
				issues = append(issues, found...)
				issues = append(issues, models.Issue{
					Severity: models.SeverityWarn,
					Stage:    models.StageLint,
					Rule:     rule.Name(),
					ObjectID: obj.ID,
					SourceID: obj.SourceID,
					Path:     obj.RelPath,
					Message:  fmt.Sprintf("fix failed: %v", err),
				})
				continue
			}
			issues = append(issues, models.Issue{
				Severity: models.SeverityInfo,
				Stage:    models.StageLint,
				Rule:     rule.Name(),
				ObjectID: obj.ID,
				SourceID: obj.SourceID,
				Path:     obj.RelPath,
				Message:  "fixed",
			})
		}
	}
	return issues
}

// buildContext indexes the bibliography, ids, and titles once per run.
func (r *Runner) buildContext(objects []*models.Object) *Context {
	lc := &Context{
		Bibliography: make(map[string]string),
		IDs:          make(map[string]struct{}, len(objects)),
		Titles:       make(map[string]string),
		Stores:       r.opts.Stores,
		CitekeyField: r.opts.CitekeyField,
	}

	bibTypes := make(map[string]struct{}, len(r.opts.BibliographyTypes))
	for _, t := range r.opts.BibliographyTypes {
		bibTypes[t] = struct{}{}
	}

	for _, obj := range objects {
		lc.IDs[obj.ID] = struct{}{}
		base := path.Base(obj.ID)
		if _, taken := lc.Titles[base]; !taken {
			lc.Titles[base] = obj.ID
		}
		if obj.Title != "" {
			if _, taken := lc.Titles[obj.Title]; !taken {
				lc.Titles[obj.Title] = obj.ID
			}
		}

		if _, isBib := bibTypes[obj.Type]; !isBib {
			continue
		}
		key := base
		if v, ok := obj.Field(lc.CitekeyField); ok && v.Kind() == models.KindString && v.Str() != "" {
			key = v.Str()
		}
		if _, taken := lc.Bibliography[key]; !taken {
			lc.Bibliography[key] = obj.ID
		}
	}
	return lc
}

func (r *Runner) unknownRuleIssues() []models.Issue {
	if len(r.opts.Rules) == 0 {
		return nil
	}
	known := make(map[string]struct{})
	for _, rule := range registered() {
		known[rule.Name()] = struct{}{}
	}
	var issues []models.Issue
	for _, name := range r.opts.Rules {
		if _, ok := known[name]; !ok {
			issues = append(issues, models.Issue{
				Severity: models.SeverityWarn,
				Stage:    models.StageLint,
				Message:  fmt.Sprintf("unknown lint rule %q", name),
			})
		}
	}
	return issues
}
