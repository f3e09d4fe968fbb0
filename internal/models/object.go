// Package models defines the domain types for Othala.
package models

import "time"

// ProjectUnknown is assigned when attribution cannot resolve a project.
const ProjectUnknown = "unknown"

// DefaultType is the object type used when neither the frontmatter nor
// the source configuration declares one.
const DefaultType = "note"

// Object is a single content item drawn from a source: parsed
// frontmatter plus free-text body. The source loader creates it,
// attribution sets Project, validation resolves Visibility. After that
// the object is read-only; later stages only attach issues.
type Object struct {
	ID          string           `json:"id"`
	SourceID    string           `json:"source_id"`
	RelPath     string           `json:"path"`
	Title       string           `json:"title,omitempty"`
	Type        string           `json:"type"`
	Project     string           `json:"project"`
	Visibility  string           `json:"visibility,omitempty"`
	Frontmatter map[string]Value `json:"frontmatter,omitempty"`
	Body        string           `json:"body,omitempty"`
	Checksum    string           `json:"checksum"`
	ModTime     time.Time        `json:"mtime"`
}

// Field returns the frontmatter value for name and whether it was set.
func (o *Object) Field(name string) (Value, bool) {
	if o.Frontmatter == nil {
		return Value{}, false
	}
	v, ok := o.Frontmatter[name]
	return v, ok
}

// SourceSummary describes one configured source after a run.
type SourceSummary struct {
	SourceID   string    `json:"source_id"`
	Objects    int       `json:"objects"`
	Issues     int       `json:"issues"`
	LastSynced time.Time `json:"last_synced"`
}
