// Package parser extracts frontmatter, titles, and wikilinks from
// Markdown content.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/models"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// ErrUnterminatedFrontmatter reports an opening frontmatter delimiter
// with no closing one.
var ErrUnterminatedFrontmatter = errors.New("unterminated frontmatter")

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]models.Value
	Body        string
	Title       string
}

// Parse extracts frontmatter, body, and title from raw Markdown bytes.
// A file without frontmatter is valid; a file whose frontmatter block
// is opened but unterminated, or is not well-formed YAML, is not.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: models.FromAnyMap(fm),
		Body:        body,
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the Markdown body. If the file does not open with a
// delimiter the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", fmt.Errorf("parser: %w", ErrUnterminatedFrontmatter)
	}

	yamlBlock := rest[:idx]
	// Body starts after the closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, "", fmt.Errorf("parser: frontmatter yaml: %w", err)
	}

	return fm, body, nil
}

// ExtractWikilinks returns deduplicated wikilink targets from a body,
// normalising aliases.
func ExtractWikilinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// Handle aliases: [[Target|Alias]] resolves to Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// ContentHash returns the hex-encoded SHA-256 digest of data. The
// checksum lets consumers detect on-disk changes between runs without
// re-reading file contents.
func ContentHash(data []byte) string {
	return checksum.Sum(data)
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
