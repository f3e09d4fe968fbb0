// Package export renders an assembled vault for downstream consumers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/vault"
)

// Document is the stable JSON export shape.
type Document struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Overview    vault.Overview   `json:"overview"`
	Objects     []*models.Object `json:"objects"`
	Issues      []models.Issue   `json:"issues"`
}

// WriteJSON renders the state as indented JSON.
func WriteJSON(w io.Writer, state *vault.State) error {
	doc := Document{
		GeneratedAt: state.BuiltAt,
		Overview:    state.Overview(),
		Objects:     state.Objects,
		Issues:      state.Issues,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
