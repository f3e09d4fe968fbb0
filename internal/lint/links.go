package lint

import (
	"fmt"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
)

// linksRule reports wikilinks whose target resolves to no object. A
// target resolves when it matches an object id, an id base name, or a
// title.
type linksRule struct{}

func (linksRule) Name() string { return "links" }

func (linksRule) Check(lc *Context, obj *models.Object) []models.Issue {
	var issues []models.Issue
	for _, target := range parser.ExtractWikilinks(obj.Body) {
		if _, ok := lc.IDs[target]; ok {
			continue
		}
		if _, ok := lc.Titles[target]; ok {
			continue
		}
		issues = append(issues, models.Issue{
			Severity: models.SeverityWarn,
			Stage:    models.StageLint,
			Rule:     "links",
			ObjectID: obj.ID,
			SourceID: obj.SourceID,
			Path:     obj.RelPath,
			Message:  fmt.Sprintf("unresolved link %q", target),
		})
	}
	return issues
}
