package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/plumeworks/plume-be/internal/api/handlers"
	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/models"
	"github.com/plumeworks/plume-be/internal/services"
	"github.com/plumeworks/plume-be/internal/web"
	ws "github.com/plumeworks/plume-be/internal/websocket"
)

// NewRouter creates and configures the Chi router: the public blog
// views, the authenticated comment flow and the admin-only moderation
// and account surfaces.
func NewRouter(
	render *web.Renderer,
	sessions *auth.SessionManager,
	csrf *auth.CSRFManager,
	userService services.UserServiceProvider,
	postService services.PostServiceProvider,
	commentService services.CommentServiceProvider,
	eventService services.EventServiceProvider,
	hub *ws.Hub,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every request resolves its principal fresh from the store.
	r.Use(sessions.Middleware())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, sessions, eventService, render)
	postHandler := handlers.NewPostHandler(postService, commentService, csrf, render)
	commentHandler := handlers.NewCommentHandler(commentService, postService, csrf, render)
	adminUserHandler := handlers.NewAdminUserHandler(userService, csrf, render)
	feedHandler := handlers.NewFeedHandler(hub)

	// Public views
	r.Get("/", postHandler.Index)
	r.Get("/posts/{id}", postHandler.Show)
	r.Get("/categories/{id}", postHandler.ShowCategory)

	// Authentication
	r.Get("/login", authHandler.ShowLogin)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Get("/register", authHandler.ShowRegister)
	r.Post("/register", authHandler.Register)

	// Comment workflow
	r.Route("/comments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleUser))
			r.Get("/post/{id}/new", commentHandler.New)
			r.Post("/post/{id}/new", commentHandler.Create)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/admin", commentHandler.AdminIndex)
			r.Post("/{id}/approve", commentHandler.Approve)
			r.Post("/{id}", commentHandler.Delete)
		})
	})

	// Admin account workflow
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Get("/", adminUserHandler.Index)
		r.Get("/{id}", adminUserHandler.Show)
		r.Post("/{id}/toggle-admin", adminUserHandler.ToggleAdmin)
		r.Post("/{id}/toggle-active", adminUserHandler.ToggleActive)
		r.Post("/{id}/delete", adminUserHandler.Delete)
	})

	// Live moderation feed
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Get("/ws/moderation", feedHandler.Serve)
	})

	return r
}
