package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/view"
)

// Handler wires registration and profile endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	site      view.Site
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, site view.Site) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, site: site}
}

// MountRoutes registers account routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAnonymous)
		r.Get("/register", h.showRegister)
	})
	r.Post("/register", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuthenticated)
		r.Get("/profile", h.showProfile)
		r.Post("/saveProf", h.handleSaveProfile)
		r.Post("/savePass", h.handleSavePassword)
	})
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register.html", view.TemplateData{Title: "Register"}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("passwordConfirm")

	user, err := h.service.Register(r.Context(), name, email, password, confirm)
	if err != nil {
		if msg, ok := formMessage(err); ok {
			h.render(w, r, "pages/register.html", view.TemplateData{Title: "Register", Message: msg}, http.StatusOK)
			return
		}
		h.renderError(w, r, "register", err)
		return
	}

	data := view.TemplateData{
		Title:     "Registration successful",
		UserName:  user.Name,
		UserEmail: user.Email,
	}
	h.render(w, r, "pages/success.html", data, http.StatusOK)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	data := view.TemplateData{
		Title:     "Profile",
		UserName:  user.Name,
		UserEmail: user.Email,
	}
	h.render(w, r, "pages/profile.html", data, http.StatusOK)
}

func (h *Handler) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	id, ok := sess.UserID()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")

	if err := h.service.UpdateProfile(r.Context(), id, name, email); err != nil {
		if msg, ok := formMessage(err); ok {
			// Redisplay with the submitted values so the user can fix them.
			data := view.TemplateData{Title: "Profile", UserName: name, UserEmail: email, Message: msg}
			h.render(w, r, "pages/profile.html", data, http.StatusOK)
			return
		}
		h.renderError(w, r, "save profile", err)
		return
	}

	data := view.TemplateData{
		Title:     "Account change successful",
		UserName:  name,
		UserEmail: email,
	}
	h.render(w, r, "pages/success.html", data, http.StatusOK)
}

func (h *Handler) handleSavePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("passwordConfirm")

	if err := h.service.ChangePassword(r.Context(), user.ID, password, confirm); err != nil {
		if msg, ok := formMessage(err); ok {
			data := view.TemplateData{Title: "Profile", UserName: user.Name, UserEmail: user.Email, MessagePass: msg}
			h.render(w, r, "pages/profile.html", data, http.StatusOK)
			return
		}
		h.renderError(w, r, "save password", err)
		return
	}

	h.render(w, r, "pages/success.html", view.TemplateData{Title: "Password change successful"}, http.StatusOK)
}

// currentUser hydrates the session principal. A stale session whose row is
// gone reads as anonymous and is sent back to the login page.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := sess.UserID()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	user, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return nil, false
		}
		h.renderError(w, r, "load profile", err)
		return nil, false
	}
	return user, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data view.TemplateData, status int) {
	data.Site = h.site
	data.CurrentPath = r.URL.Path
	if sess := shared.SessionFromContext(r.Context()); sess != nil && data.Flash == nil {
		data.Flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, data); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("store failure", slog.String("op", op), slog.Any("error", err))
	h.render(w, r, "pages/error.html", view.TemplateData{Title: "Something went wrong"}, http.StatusInternalServerError)
}

// formMessage maps conflict and validation failures to the text redisplayed
// on the originating form.
func formMessage(err error) (string, bool) {
	if errors.Is(err, shared.ErrEmailTaken) {
		return "The email is already in use", true
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}

// ShowRegisterForTest exposes the GET handler for tests.
func (h *Handler) ShowRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.showRegister(w, r)
}

// HandleRegisterForTest exposes the POST handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}

// ShowProfileForTest exposes the profile GET handler for tests.
func (h *Handler) ShowProfileForTest(w http.ResponseWriter, r *http.Request) {
	h.showProfile(w, r)
}

// HandleSaveProfileForTest exposes the profile POST handler for tests.
func (h *Handler) HandleSaveProfileForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSaveProfile(w, r)
}

// HandleSavePasswordForTest exposes the password POST handler for tests.
func (h *Handler) HandleSavePasswordForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSavePassword(w, r)
}
