package index

import (
	"testing"

	"github.com/starford/othala/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testObjects() []*models.Object {
	return []*models.Object{
		{
			SourceID: "notes",
			ID:       "notes/alpha",
			RelPath:  "notes/alpha.md",
			Project:  "research",
			Type:     "note",
			Title:    "Alpha",
			Body:     "uniqueword appears here, see [[beta]]",
		},
		{
			SourceID: "notes",
			ID:       "notes/beta",
			RelPath:  "notes/beta.md",
			Project:  "research",
			Type:     "note",
			Title:    "Beta",
			Body:     "also links [[beta]] wait no, [[Alpha]]",
		},
		{
			SourceID: "blog",
			ID:       "welcome",
			RelPath:  "welcome.md",
			Project:  "blog",
			Type:     "post",
			Title:    "Welcome",
			Body:     "plain text",
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM objects`).Scan(&count); err != nil {
		t.Fatalf("objects table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestRebuildAndCount(t *testing.T) {
	db := testDB(t)
	if err := db.Rebuild(testObjects()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestRebuildReplaces(t *testing.T) {
	db := testDB(t)
	if err := db.Rebuild(testObjects()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := db.Rebuild(testObjects()[:1]); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	n, _ := db.Count()
	if n != 1 {
		t.Errorf("Count after shrink = %d, want 1", n)
	}
	bl, _ := db.Backlinks("Alpha")
	if len(bl) != 0 {
		t.Errorf("stale links survived rebuild: %v", bl)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	if err := db.Rebuild(testObjects()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	bl, err := db.Backlinks("beta")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("backlinks = %v, want 2", bl)
	}
	if bl[0] != "notes/alpha" || bl[1] != "notes/beta" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	if err := db.Rebuild(testObjects()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	hits, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "notes/alpha" {
		t.Fatalf("hits = %+v, want 1 hit for notes/alpha", hits)
	}
	if hits[0].Project != "research" || hits[0].SourceID != "notes" {
		t.Errorf("hit = %+v", hits[0])
	}
	if hits[0].Snippet == "" {
		t.Error("empty snippet")
	}
}

func TestSearch_Limit(t *testing.T) {
	db := testDB(t)
	if err := db.Rebuild(testObjects()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	hits, err := db.Search("li", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) > 1 {
		t.Errorf("limit ignored: %d hits", len(hits))
	}
}
