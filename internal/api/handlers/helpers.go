package handlers

import (
	"net/http"

	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/models"
)

// viewData returns the base template data for a request: the current
// user (nil pointer when anonymous) and an admin flag for the nav.
func viewData(r *http.Request) map[string]any {
	data := map[string]any{
		"User":    (*models.User)(nil),
		"IsAdmin": false,
	}
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		user := p.User
		data["User"] = &user
		data["IsAdmin"] = user.HasRole(models.RoleAdmin)
	}
	return data
}

// seeOther issues the 303 redirect every mutation answers with,
// whether or not its guarded precondition held.
func seeOther(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
