package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/services"
	"github.com/plumeworks/plume-be/internal/web"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	users    services.UserServiceProvider
	sessions *auth.SessionManager
	events   services.EventServiceProvider
	render   *web.Renderer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, sessions *auth.SessionManager, events services.EventServiceProvider, render *web.Renderer) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, events: events, render: render}
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.PrincipalFrom(r.Context()); ok {
		seeOther(w, r, "/")
		return
	}
	data := viewData(r)
	data["Email"] = ""
	data["Error"] = ""
	h.render.Render(w, http.StatusOK, "login", data)
}

// Login authenticates the submitted credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.users.AuthenticateUser(email, password)
	if err != nil {
		log.Warn().Str("email", email).Msg("Failed authentication attempt")
		data := viewData(r)
		data["Email"] = email
		data["Error"] = "Invalid email or password."
		h.render.Render(w, http.StatusUnauthorized, "login", data)
		return
	}

	if err := h.sessions.Login(w, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	h.events.Record("auth.login", "info", user.Email+" logged in", &user.ID, nil)
	seeOther(w, r, "/")
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w, r)
	seeOther(w, r, "/")
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.PrincipalFrom(r.Context()); ok {
		seeOther(w, r, "/")
		return
	}
	h.render.Render(w, http.StatusOK, "register", h.registerData(r, "", "", "", ""))
}

// Register creates a new account with the baseline role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	firstName := strings.TrimSpace(r.FormValue("firstName"))
	lastName := strings.TrimSpace(r.FormValue("lastName"))
	password := r.FormValue("password")

	if email == "" || firstName == "" || lastName == "" || password == "" {
		h.render.Render(w, http.StatusUnprocessableEntity, "register",
			h.registerData(r, email, firstName, lastName, "All fields are required."))
		return
	}

	user, err := h.users.CreateUser(email, firstName, lastName, password)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Failed to register user")
		h.render.Render(w, http.StatusUnprocessableEntity, "register",
			h.registerData(r, email, firstName, lastName, "Could not create the account. The email may already be in use."))
		return
	}

	h.events.Record("auth.registered", "info", user.Email+" registered", &user.ID, nil)
	seeOther(w, r, "/login")
}

func (h *AuthHandler) registerData(r *http.Request, email, firstName, lastName, errMsg string) map[string]any {
	data := viewData(r)
	data["Email"] = email
	data["FirstName"] = firstName
	data["LastName"] = lastName
	data["Error"] = errMsg
	return data
}
