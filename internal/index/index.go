package index

import "github.com/starford/othala/internal/models"

// ObjectIndex defines the search surface over an assembled vault.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type ObjectIndex interface {
	Rebuild(objects []*models.Object) error
	Search(query string, limit int) ([]Hit, error)
	Backlinks(target string) ([]string, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies ObjectIndex at compile time.
var _ ObjectIndex = (*DB)(nil)
