package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"html/template"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates inside the shared
// layout. It carries no workflow logic.
type Renderer struct {
	tmpl map[string]*template.Template
}

// NewRenderer parses every page template against the layout.
func NewRenderer() (*Renderer, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	templates := map[string]*template.Template{}
	for _, page := range pages {
		if path.Base(page) == "layout.html" {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(page), ".html")
		templates[name] = t
	}
	return &Renderer{tmpl: templates}, nil
}

// Render writes the named page. The status is written first so form
// re-renders can answer with a validation status code.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.tmpl[name]
	if !ok {
		log.Error().Str("template", name).Msg("Template not found")
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Render error")
	}
}
