package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/othala/internal/models"
)

var (
	bracketGroupRe = regexp.MustCompile(`\[[^\[\]]*\]`)
	citekeyRe      = regexp.MustCompile(`@([A-Za-z0-9_]+(?:[:.#\-][A-Za-z0-9_]+)*)`)
)

// citationFields are the frontmatter fields whose string values count
// as cited keys.
var citationFields = []string{"references", "citations", "bibliography_keys", "cites"}

// ExtractCitations returns the sorted set of citation keys an object
// uses: Pandoc-style bracket groups containing at least one @key token
// (groups mentioning mailto: are skipped as email false positives),
// unioned with the keys listed under the citation frontmatter fields.
func ExtractCitations(body string, fm map[string]models.Value) []string {
	set := make(map[string]struct{})

	for _, group := range bracketGroupRe.FindAllString(body, -1) {
		if strings.Contains(group, "mailto:") {
			continue
		}
		for _, m := range citekeyRe.FindAllStringSubmatch(group, -1) {
			set[m[1]] = struct{}{}
		}
	}

	for _, field := range citationFields {
		v, ok := fm[field]
		if !ok {
			continue
		}
		switch v.Kind() {
		case models.KindString:
			if s := strings.TrimSpace(v.Str()); s != "" {
				set[s] = struct{}{}
			}
		case models.KindStrings:
			for _, s := range v.Strings() {
				if s = strings.TrimSpace(s); s != "" {
					set[s] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// citationsRule reports cited keys that no bibliography object
// declares. With no bibliography in the vault the rule is silent.
type citationsRule struct{}

func (citationsRule) Name() string { return "citations" }

func (citationsRule) Check(lc *Context, obj *models.Object) []models.Issue {
	if len(lc.Bibliography) == 0 {
		return nil
	}
	var issues []models.Issue
	for _, key := range ExtractCitations(obj.Body, obj.Frontmatter) {
		if _, ok := lc.Bibliography[key]; ok {
			continue
		}
		issues = append(issues, models.Issue{
			Severity: models.SeverityWarn,
			Stage:    models.StageLint,
			Rule:     "citations",
			ObjectID: obj.ID,
			SourceID: obj.SourceID,
			Path:     obj.RelPath,
			Message:  fmt.Sprintf("cited key %q not found in bibliography", key),
		})
	}
	return issues
}
