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

// commentRow pairs a comment with the form tokens the current view
// embeds for it.
type commentRow struct {
	Comment      models.Comment
	ApproveToken string
	DeleteToken  string
}

// CommentHandler handles comment submission and moderation.
type CommentHandler struct {
	comments services.CommentServiceProvider
	posts    services.PostServiceProvider
	csrf     *auth.CSRFManager
	render   *web.Renderer
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments services.CommentServiceProvider, posts services.PostServiceProvider, csrf *auth.CSRFManager, render *web.Renderer) *CommentHandler {
	return &CommentHandler{comments: comments, posts: posts, csrf: csrf, render: render}
}

// AdminIndex renders the moderation queue with approve/delete forms,
// issuing the per-comment tokens those forms embed.
func (h *CommentHandler) AdminIndex(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	comments, err := h.comments.GetPendingComments()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending comments")
		http.Error(w, "Failed to load comments", http.StatusInternalServerError)
		return
	}

	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		approve, err := h.csrf.Issue(principal.SessionID, auth.ActionApprove, c.ID)
		if err != nil {
			log.Error().Err(err).Str("comment_id", c.ID).Msg("Failed to issue approve token")
		}
		del, err := h.csrf.Issue(principal.SessionID, auth.ActionDelete, c.ID)
		if err != nil {
			log.Error().Err(err).Str("comment_id", c.ID).Msg("Failed to issue delete token")
		}
		rows = append(rows, commentRow{Comment: c, ApproveToken: approve, DeleteToken: del})
	}

	data := viewData(r)
	data["Comments"] = rows
	h.render.Render(w, http.StatusOK, "admin_comments", data)
}

// New renders the comment form for a post.
func (h *CommentHandler) New(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	data := viewData(r)
	data["Post"] = post
	data["Content"] = ""
	data["Error"] = ""
	h.render.Render(w, http.StatusOK, "comment_new", data)
}

// Create submits a comment into the pending state and redirects to the
// post. A validation failure re-renders the form with a field error.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	principal, _ := auth.PrincipalFrom(r.Context())
	content := r.FormValue("content")

	_, err := h.comments.SubmitComment(post.ID, principal.User, content)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			data := viewData(r)
			data["Post"] = post
			data["Content"] = content
			data["Error"] = "A comment cannot be empty."
			h.render.Render(w, http.StatusUnprocessableEntity, "comment_new", data)
			return
		}
		if errors.Is(err, services.ErrForbidden) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to submit comment")
		http.Error(w, "Failed to submit comment", http.StatusInternalServerError)
		return
	}

	seeOther(w, r, "/posts/"+post.ID)
}

// Approve promotes a pending comment when the form token checks out.
// An invalid token skips the mutation but still answers with the usual
// redirect to the moderation queue.
func (h *CommentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.comments.GetCommentByID(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("comment_id", id).Msg("Failed to load comment")
		http.Error(w, "Failed to load comment", http.StatusInternalServerError)
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	if h.csrf.Verify(principal.SessionID, auth.ActionApprove, id, r.FormValue("_token")) {
		if _, err := h.comments.ApproveComment(id); err != nil {
			log.Error().Err(err).Str("comment_id", id).Msg("Failed to approve comment")
		}
	} else {
		log.Warn().Str("comment_id", id).Msg("Approve skipped: invalid form token")
	}

	seeOther(w, r, "/comments/admin")
}

// Delete removes a comment when the form token checks out, then
// redirects to the comment's post either way.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	comment, err := h.comments.GetCommentByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("comment_id", id).Msg("Failed to load comment")
		http.Error(w, "Failed to load comment", http.StatusInternalServerError)
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	if h.csrf.Verify(principal.SessionID, auth.ActionDelete, id, r.FormValue("_token")) {
		if err := h.comments.DeleteComment(id); err != nil {
			log.Error().Err(err).Str("comment_id", id).Msg("Failed to delete comment")
		}
	} else {
		log.Warn().Str("comment_id", id).Msg("Delete skipped: invalid form token")
	}

	seeOther(w, r, "/posts/"+comment.PostID)
}

func (h *CommentHandler) loadPost(w http.ResponseWriter, r *http.Request) (post postView, ok bool) {
	id := chi.URLParam(r, "id")
	p, err := h.posts.GetPostByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
		} else {
			log.Error().Err(err).Str("post_id", id).Msg("Failed to load post")
			http.Error(w, "Failed to load post", http.StatusInternalServerError)
		}
		return postView{}, false
	}
	return postView{ID: p.ID, Title: p.Title}, true
}

// postView is the slice of a post the comment form needs.
type postView struct {
	ID    string
	Title string
}
