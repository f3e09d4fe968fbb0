package export

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/vault"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Othala vault</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 72rem; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: .3rem; }
h2 { margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin: .5rem 0 1.5rem; }
th, td { border: 1px solid #ccc; padding: .35rem .6rem; text-align: left; font-size: .9rem; }
th { background: #f2f2f2; }
.sev-error { color: #b00020; font-weight: bold; }
.sev-warn { color: #9a6700; }
.sev-info { color: #555; }
footer { margin-top: 2rem; color: #888; font-size: .8rem; }
</style>
</head>
<body>
<h1>Othala vault</h1>
<p>{{.Overview.Objects}} objects, {{.Overview.Issues}} issues across {{len .Overview.Sources}} sources.</p>

{{range .Projects}}
<h2>{{.Name}} ({{len .Objects}})</h2>
<table>
<tr><th>ID</th><th>Title</th><th>Type</th><th>Visibility</th><th>Source</th><th>Modified</th></tr>
{{range .Objects}}
<tr>
<td>{{.ID}}</td>
<td>{{.Title}}</td>
<td>{{.Type}}</td>
<td>{{.Visibility}}</td>
<td>{{.SourceID}}</td>
<td>{{.ModTime.Format "2006-01-02"}}</td>
</tr>
{{end}}
</table>
{{end}}

{{if .Issues}}
<h2>Issues ({{len .Issues}})</h2>
<table>
<tr><th>Severity</th><th>Stage</th><th>Location</th><th>Message</th></tr>
{{range .Issues}}
<tr>
<td class="sev-{{.Severity}}">{{.Severity}}</td>
<td>{{.Stage}}</td>
<td>{{if .Path}}{{.Path}}{{else}}{{.ObjectID}}{{end}}</td>
<td>{{.Message}}</td>
</tr>
{{end}}
</table>
{{end}}

<footer>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</footer>
</body>
</html>
`

var htmlTmpl = template.Must(template.New("vault").Parse(htmlPage))

// projectGroup is one project's objects for the HTML page, in vault order.
type projectGroup struct {
	Name    string
	Objects []*models.Object
}

type htmlData struct {
	GeneratedAt time.Time
	Overview    vault.Overview
	Projects    []projectGroup
	Issues      []models.Issue
}

// WriteHTML renders the state as a standalone HTML page: one object
// table per project (sorted by name) plus the full issue table.
func WriteHTML(w io.Writer, state *vault.State) error {
	byProject := make(map[string][]*models.Object)
	for _, obj := range state.Objects {
		byProject[obj.Project] = append(byProject[obj.Project], obj)
	}
	names := make([]string, 0, len(byProject))
	for name := range byProject {
		names = append(names, name)
	}
	sort.Strings(names)

	data := htmlData{
		GeneratedAt: state.BuiltAt,
		Overview:    state.Overview(),
		Issues:      state.Issues,
	}
	for _, name := range names {
		data.Projects = append(data.Projects, projectGroup{Name: name, Objects: byProject[name]})
	}

	if err := htmlTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("export: render html: %w", err)
	}
	return nil
}
