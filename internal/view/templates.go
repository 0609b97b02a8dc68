package view

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/web"
)

// Site carries the fields every page shares, loaded from the page-context
// defaults document at boot.
type Site struct {
	Name      string
	Strapline string
	Footer    string
}

// TemplateData contains values shared across templates. A fresh value is
// built for every request; nothing in here is shared mutable state.
type TemplateData struct {
	Title       string
	Site        Site
	UserName    string
	UserEmail   string
	Message     string
	MessagePass string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Has reports whether a named template exists. The subpage table is checked
// against this before any route is mounted.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
