//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/othala/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS objects_fts USING fts5(
			source_id UNINDEXED,
			id UNINDEXED,
			project UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM objects_fts`)
}

func ftsInsert(tx *sql.Tx, obj *models.Object) error {
	_, err := tx.Exec(`INSERT INTO objects_fts (source_id, id, project, title, body) VALUES (?, ?, ?, ?, ?)`,
		obj.SourceID, obj.ID, obj.Project, obj.Title, obj.Body)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns ranked hits
// with snippets.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT source_id,
		       id,
		       title,
		       project,
		       snippet(objects_fts, 4, '<b>', '</b>', '...', 64)
		FROM objects_fts
		WHERE objects_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.SourceID, &h.ID, &h.Title, &h.Project, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
