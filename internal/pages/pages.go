// Package pages loads the two site configuration documents, the shared
// page-context defaults and the dynamic subpage table, and serves the
// resulting routes.
package pages

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/users"
	"github.com/orchid-portal/orchid/internal/view"
)

// Subpage is one entry of the subpage table.
type Subpage struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

type defaultsDoc struct {
	SiteName  string `json:"siteName"`
	Strapline string `json:"strapline"`
	Footer    string `json:"footer"`
}

// LoadDefaults reads the shared page-context defaults document.
func LoadDefaults(path string) (view.Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return view.Site{}, fmt.Errorf("read page defaults: %w", err)
	}
	var doc defaultsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return view.Site{}, fmt.Errorf("parse page defaults: %w", err)
	}
	return view.Site{Name: doc.SiteName, Strapline: doc.Strapline, Footer: doc.Footer}, nil
}

type subpagesDoc struct {
	Pages []Subpage `json:"pages"`
}

// LoadSubpages reads and validates the subpage table. An entry referencing a
// template the engine does not know refuses to load; that is a configuration
// error, not something to discover per request.
func LoadSubpages(path string, templates *view.Engine) ([]Subpage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subpages: %w", err)
	}
	var doc subpagesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse subpages: %w", err)
	}
	for _, page := range doc.Pages {
		if !strings.HasPrefix(page.Path, "/") {
			return nil, fmt.Errorf("subpage %q: path %q must start with /", page.Name, page.Path)
		}
		if !templates.Has(page.Template) {
			return nil, fmt.Errorf("subpage %q: unknown template %q", page.Name, page.Template)
		}
	}
	return doc.Pages, nil
}

// Handler serves the home page and the configured subpages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	site      view.Site
	users     *users.Service
	subpages  []Subpage
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, site view.Site, users *users.Service, subpages []Subpage) *Handler {
	return &Handler{logger: logger, templates: templates, site: site, users: users, subpages: subpages}
}

// MountRoutes registers the home route plus one route per table entry. Each
// closure captures its own entry by value.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	for _, page := range h.subpages {
		r.Get(page.Path, h.show(page))
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{
		Title:       h.site.Name,
		Site:        h.site,
		CurrentPath: r.URL.Path,
	}
	h.hydrate(r, &data)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.Render(w, "pages/home.html", data); err != nil {
		h.logger.Error("render home", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) show(page Subpage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{
			Title:       page.Name,
			Site:        h.site,
			CurrentPath: r.URL.Path,
		}
		h.hydrate(r, &data)
		if err := h.templates.Render(w, page.Template, data); err != nil {
			h.logger.Error("render subpage", slog.String("template", page.Template), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// hydrate fills the display name when a principal exists. Subpages stay
// public; a stale or anonymous session just renders without a name.
func (h *Handler) hydrate(r *http.Request, data *view.TemplateData) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := sess.UserID()
	if !ok {
		return
	}
	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		return
	}
	data.UserName = user.Name
}
