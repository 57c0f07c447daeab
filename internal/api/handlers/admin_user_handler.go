package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/models"
	"github.com/plumeworks/plume-be/internal/services"
	"github.com/plumeworks/plume-be/internal/web"
)

// userRow pairs a user with the form tokens the admin list embeds.
type userRow struct {
	User              models.User
	ToggleToken       string
	ToggleActiveToken string
	DeleteToken       string
}

// AdminUserHandler handles the admin account workflow.
type AdminUserHandler struct {
	users  services.UserServiceProvider
	csrf   *auth.CSRFManager
	render *web.Renderer
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(users services.UserServiceProvider, csrf *auth.CSRFManager, render *web.Renderer) *AdminUserHandler {
	return &AdminUserHandler{users: users, csrf: csrf, render: render}
}

// Index renders every account, ordered by id, with the toggle and
// delete forms and their tokens.
func (h *AdminUserHandler) Index(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	users, err := h.users.GetAllUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load users")
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		row := userRow{User: u}
		row.ToggleToken = h.issue(principal.SessionID, auth.ActionToggle, u.ID)
		row.ToggleActiveToken = h.issue(principal.SessionID, auth.ActionToggleActive, u.ID)
		row.DeleteToken = h.issue(principal.SessionID, auth.ActionDelete, u.ID)
		rows = append(rows, row)
	}

	data := viewData(r)
	data["Users"] = rows
	h.render.Render(w, http.StatusOK, "admin_users", data)
}

// Show renders one account's detail view.
func (h *AdminUserHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("user_id", id).Msg("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	data := viewData(r)
	data["Target"] = user
	h.render.Render(w, http.StatusOK, "admin_user_show", data)
}

// ToggleAdmin grants or revokes the admin role when the form token
// checks out. Token mismatch and the last-admin safeguard both skip the
// mutation silently behind the same redirect.
func (h *AdminUserHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, auth.ActionToggle, func(id string) error {
		_, err := h.users.ToggleAdminRole(id)
		if errors.Is(err, services.ErrLastAdmin) {
			log.Warn().Str("user_id", id).Msg("Toggle skipped: would demote the last active admin")
			return nil
		}
		return err
	})
}

// ToggleActive flips the account's active flag when the form token
// checks out. Deactivation takes effect on the account's next request.
func (h *AdminUserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, auth.ActionToggleActive, func(id string) error {
		_, err := h.users.ToggleActive(id)
		return err
	})
}

// Delete removes the account when the form token checks out.
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, auth.ActionDelete, func(id string) error {
		return h.users.DeleteUser(id)
	})
}

// mutate implements the shared contract of the three account
// mutations: 404 on an unknown id, token check against the acting
// session, silent no-op on mismatch, 303 to the list regardless.
func (h *AdminUserHandler) mutate(w http.ResponseWriter, r *http.Request, action string, apply func(id string) error) {
	id := chi.URLParam(r, "id")
	if _, err := h.users.GetUserByID(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("user_id", id).Msg("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	if h.csrf.Verify(principal.SessionID, action, id, r.FormValue("_token")) {
		if err := apply(id); err != nil {
			log.Error().Err(err).Str("user_id", id).Str("action", action).Msg("Account mutation failed")
		}
	} else {
		log.Warn().Str("user_id", id).Str("action", action).Msg("Account mutation skipped: invalid form token")
	}

	seeOther(w, r, "/admin/users")
}

func (h *AdminUserHandler) issue(sessionID, action, entityID string) string {
	token, err := h.csrf.Issue(sessionID, action, entityID)
	if err != nil {
		log.Error().Err(err).Str("action", action).Str("entity_id", entityID).Msg("Failed to issue form token")
		return ""
	}
	return token
}
