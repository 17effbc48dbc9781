package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"regintel/internal/config"
	"regintel/internal/db"
	"regintel/internal/handlers"
	"regintel/internal/middleware"
	"regintel/internal/router"
	"regintel/internal/services"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	gdb := db.Init(cfg.DatabaseURL)

	// Services
	users := services.NewUserService(gdb, cfg.StorageTimeout)
	companies := services.NewCompanyService(gdb, cfg.StorageTimeout)
	comments := services.NewCommentService(gdb, cfg.StorageTimeout)
	votes := services.NewVoteService(gdb, cfg.StorageTimeout)
	translator := services.NewTranslateService(nil, services.TranslateConfig{
		Endpoint: cfg.TranslateEndpoint,
		AppID:    cfg.TranslateAppID,
		Secret:   cfg.TranslateSecret,
	})
	fdaSync := services.NewFDASyncService(gdb, nil, services.FDASyncConfig{
		BaseURL:  cfg.OpenFDABaseURL,
		APIKey:   cfg.OpenFDAAPIKey,
		Search:   cfg.OpenFDASearch,
		MaxPages: cfg.OpenFDAMaxPages,
	}, cfg.StorageTimeout, companies.Invalidate)

	if cfg.SyncHour >= 0 && cfg.SyncHour < 24 {
		fdaSync.StartDailySync(ctx, cfg.SyncHour)
		log.Printf("Daily openFDA sync scheduled at %02d:00", cfg.SyncHour)
	}

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("regintel_session", store))

	// Middleware
	r.Use(middleware.LoadUser(gdb))

	router.RegisterRoutes(r, router.Handlers{
		Auth:      handlers.NewAuthHandler(users, handlers.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.SiteURL), cfg.SiteURL),
		Companies: handlers.NewCompanyHandler(companies),
		Comments:  handlers.NewCommentHandler(comments),
		Votes:     handlers.NewVoteHandler(votes),
		Translate: handlers.NewTranslateHandler(translator),
		Cron:      handlers.NewCronHandler(fdaSync),
	}, cfg.CronSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("regintel server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
