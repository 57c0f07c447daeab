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

const latestPostLimit = 10

// PostHandler serves the public post views.
type PostHandler struct {
	posts    services.PostServiceProvider
	comments services.CommentServiceProvider
	csrf     *auth.CSRFManager
	render   *web.Renderer
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts services.PostServiceProvider, comments services.CommentServiceProvider, csrf *auth.CSRFManager, render *web.Renderer) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, csrf: csrf, render: render}
}

// Index renders the home page with the latest posts.
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetLatestPosts(latestPostLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load latest posts")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}
	data := viewData(r)
	data["Posts"] = posts
	h.render.Render(w, http.StatusOK, "index", data)
}

// ShowCategory renders one category and its posts.
func (h *PostHandler) ShowCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, err := h.posts.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("category_id", id).Msg("Failed to load category")
		http.Error(w, "Failed to load category", http.StatusInternalServerError)
		return
	}

	posts, err := h.posts.GetPostsByCategory(id)
	if err != nil {
		log.Error().Err(err).Str("category_id", id).Msg("Failed to load category posts")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	data := viewData(r)
	data["Category"] = category
	data["Posts"] = posts
	h.render.Render(w, http.StatusOK, "category", data)
}

// Show renders a post with its approved comments. Admins additionally
// get a delete form per comment, so a delete token is issued for each.
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.posts.GetPostByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("post_id", id).Msg("Failed to load post")
		http.Error(w, "Failed to load post", http.StatusInternalServerError)
		return
	}

	comments, err := h.comments.GetApprovedCommentsByPost(id)
	if err != nil {
		log.Error().Err(err).Str("post_id", id).Msg("Failed to load comments")
		http.Error(w, "Failed to load comments", http.StatusInternalServerError)
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		row := commentRow{Comment: c}
		if principal.HasRole(models.RoleAdmin) {
			token, err := h.csrf.Issue(principal.SessionID, auth.ActionDelete, c.ID)
			if err != nil {
				log.Error().Err(err).Str("comment_id", c.ID).Msg("Failed to issue delete token")
			} else {
				row.DeleteToken = token
			}
		}
		rows = append(rows, row)
	}

	data := viewData(r)
	data["Post"] = post
	data["Comments"] = rows
	h.render.Render(w, http.StatusOK, "post", data)
}
