package index

import (
	"fmt"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
)

// Hit represents one search result.
type Hit struct {
	SourceID string
	ID       string
	Title    string
	Project  string
	Snippet  string
}

// Rebuild replaces the entire index with the given objects and their
// outgoing wikilinks in one transaction.
func (db *DB) Rebuild(objects []*models.Object) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM objects`); err != nil {
		return fmt.Errorf("index: clear objects: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	ftsClear(tx)

	insertObj, err := tx.Prepare(`
		INSERT OR REPLACE INTO objects (source_id, id, path, project, type, visibility, title, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare object insert: %w", err)
	}
	defer insertObj.Close()

	insertLink, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer insertLink.Close()

	for _, obj := range objects {
		_, err := insertObj.Exec(obj.SourceID, obj.ID, obj.RelPath, obj.Project,
			obj.Type, obj.Visibility, obj.Title, obj.Body)
		if err != nil {
			return fmt.Errorf("index: insert object %s: %w", obj.ID, err)
		}
		if err := ftsInsert(tx, obj); err != nil {
			return err
		}
		for _, target := range parser.ExtractWikilinks(obj.Body) {
			if _, err := insertLink.Exec(obj.ID, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Backlinks returns the ids of objects whose body links to the given
// target, which may be an id, an id base name, or a title.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of indexed objects.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
