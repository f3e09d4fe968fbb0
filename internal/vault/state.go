package vault

import (
	"time"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/project"
	"github.com/starford/othala/internal/schema"
)

// State is the assembled vault: every object with its attribution and
// visibility resolved, plus the ordered issue list and per-source
// summaries. Read-only once returned by Build.
type State struct {
	Config    *internal.Config
	Schemas   *schema.Registry
	Objects   []*models.Object
	Issues    []models.Issue
	Summaries []models.SourceSummary
	BuiltAt   time.Time

	resolver *project.Resolver
}

// Query selects vault objects. Zero-valued fields do not constrain.
type Query struct {
	Project    string
	Type       string
	Visibility string
	Source     string
	// IncludeSubprojects widens the project constraint to projects
	// grouped beneath it via include declarations.
	IncludeSubprojects bool
}

// Filter returns the objects matching the query, in vault order.
func (s *State) Filter(q Query) []*models.Object {
	var projects map[string]struct{}
	if q.Project != "" && q.IncludeSubprojects {
		projects = make(map[string]struct{})
		for _, name := range s.Expand(q.Project) {
			projects[name] = struct{}{}
		}
	}

	var out []*models.Object
	for _, obj := range s.Objects {
		if q.Project != "" {
			if projects != nil {
				if _, ok := projects[obj.Project]; !ok {
					continue
				}
			} else if obj.Project != q.Project {
				continue
			}
		}
		if q.Type != "" && obj.Type != q.Type {
			continue
		}
		if q.Visibility != "" && obj.Visibility != q.Visibility {
			continue
		}
		if q.Source != "" && obj.SourceID != q.Source {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// ByID returns the first object with the given id, in vault order.
// Distinct sources may yield the same id; use Lookup to disambiguate.
func (s *State) ByID(id string) (*models.Object, bool) {
	for _, obj := range s.Objects {
		if obj.ID == id {
			return obj, true
		}
	}
	return nil, false
}

// Lookup returns the object with the given id from one source.
func (s *State) Lookup(sourceID, id string) (*models.Object, bool) {
	for _, obj := range s.Objects {
		if obj.SourceID == sourceID && obj.ID == id {
			return obj, true
		}
	}
	return nil, false
}

// Expand returns the project plus everything grouped beneath it.
func (s *State) Expand(projectName string) []string {
	return s.resolver.Expand(projectName)
}

// Projects returns every declared project name, sorted.
func (s *State) Projects() []string {
	return s.resolver.Names()
}

// Overview aggregates the state for status displays.
type Overview struct {
	Objects    int                     `json:"objects"`
	Issues     int                     `json:"issues"`
	ByProject  map[string]int          `json:"by_project,omitempty"`
	ByType     map[string]int          `json:"by_type,omitempty"`
	BySeverity map[models.Severity]int `json:"by_severity,omitempty"`
	Sources    []models.SourceSummary  `json:"sources,omitempty"`
}

// Overview computes aggregate counts over objects and issues.
func (s *State) Overview() Overview {
	ov := Overview{
		Objects:    len(s.Objects),
		Issues:     len(s.Issues),
		ByProject:  make(map[string]int),
		ByType:     make(map[string]int),
		BySeverity: make(map[models.Severity]int),
		Sources:    s.Summaries,
	}
	for _, obj := range s.Objects {
		ov.ByProject[obj.Project]++
		ov.ByType[obj.Type]++
	}
	for _, iss := range s.Issues {
		ov.BySeverity[iss.Severity]++
	}
	return ov
}

// MaxSeverity returns the worst severity present in the issue list,
// and false when there are no issues.
func (s *State) MaxSeverity() (models.Severity, bool) {
	if len(s.Issues) == 0 {
		return "", false
	}
	rank := map[models.Severity]int{
		models.SeverityInfo:  0,
		models.SeverityWarn:  1,
		models.SeverityError: 2,
	}
	worst := s.Issues[0].Severity
	for _, iss := range s.Issues[1:] {
		if rank[iss.Severity] > rank[worst] {
			worst = iss.Severity
		}
	}
	return worst, true
}
