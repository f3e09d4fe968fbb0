// Package project assigns vault objects to projects and expands
// project groups.
package project

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/othala/internal/models"
)

// Profile is one project declaration the resolver indexes.
type Profile struct {
	Name    string
	Sources []string
	Include []string
}

// Resolver attributes objects to projects. Read-only after
// construction, safe for concurrent use.
type Resolver struct {
	known    map[string]struct{}
	bySource map[string]string
	include  map[string][]string
}

// NewResolver indexes the given profiles. Source ids claimed by more
// than one profile keep the first claim; config validation rejects
// that case before a resolver is ever built.
func NewResolver(profiles []Profile) *Resolver {
	r := &Resolver{
		known:    make(map[string]struct{}, len(profiles)),
		bySource: make(map[string]string),
		include:  make(map[string][]string, len(profiles)),
	}
	for _, p := range profiles {
		r.known[p.Name] = struct{}{}
		for _, id := range p.Sources {
			if _, taken := r.bySource[id]; !taken {
				r.bySource[id] = p.Name
			}
		}
		if len(p.Include) > 0 {
			r.include[p.Name] = append([]string(nil), p.Include...)
		}
	}
	return r
}

// Attribute resolves the project for an object loaded from the given
// source at the given source-relative path. The first directory
// segment wins when it names a known project; otherwise the source's
// claiming profile; otherwise the sentinel "unknown". Never empty.
func (r *Resolver) Attribute(sourceID, relPath string) string {
	slash := filepath.ToSlash(relPath)
	if i := strings.IndexByte(slash, '/'); i > 0 {
		if _, ok := r.known[slash[:i]]; ok {
			return slash[:i]
		}
	}
	if p, ok := r.bySource[sourceID]; ok {
		return p
	}
	return models.ProjectUnknown
}

// Known reports whether name is a declared project.
func (r *Resolver) Known(name string) bool {
	_, ok := r.known[name]
	return ok
}

// Names returns every declared project name in sorted order.
func (r *Resolver) Names() []string {
	out := make([]string, 0, len(r.known))
	for name := range r.known {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Expand returns name plus every project transitively grouped beneath
// it via include declarations, sorted. Cycles are tolerated; each
// project appears once.
func (r *Resolver) Expand(name string) []string {
	seen := make(map[string]struct{})
	var walk func(string)
	walk = func(n string) {
		if _, done := seen[n]; done {
			return
		}
		seen[n] = struct{}{}
		for _, inc := range r.include[n] {
			walk(inc)
		}
	}
	walk(name)

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
