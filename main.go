package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plumeworks/plume-be/internal/api"
	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/config"
	"github.com/plumeworks/plume-be/internal/database"
	"github.com/plumeworks/plume-be/internal/logger"
	"github.com/plumeworks/plume-be/internal/monitoring"
	"github.com/plumeworks/plume-be/internal/services"
	"github.com/plumeworks/plume-be/internal/web"
	"github.com/plumeworks/plume-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	if cfg.Seed {
		if err := database.Seed(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to load demo fixtures")
		}
	}

	// Set up the moderation feed hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	postService := services.NewPostService(db)
	commentService := services.NewCommentService(db, eventService)

	// Session and form-token management
	sessions := auth.NewSessionManager(db, userService, cfg.SessionSecret, cfg.IsProduction())
	csrf := auth.NewCSRFManager(db)

	// Set up and run the background janitor
	janitor, err := monitoring.NewJanitor(db, cfg.CleanupCron)
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.CleanupCron).Msg("Invalid cleanup schedule")
	}
	go janitor.Run()

	// Set up the template renderer
	render, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	// Set up router
	router := api.NewRouter(render, sessions, csrf, userService, postService, commentService, eventService, hub)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
