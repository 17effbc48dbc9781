package router

import (
	"net/http"
	"regintel/internal/handlers"
	"regintel/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Companies *handlers.CompanyHandler
	Comments  *handlers.CommentHandler
	Votes     *handlers.VoteHandler
	Translate *handlers.TranslateHandler
	Cron      *handlers.CronHandler
}

// RegisterRoutes mounts the JSON API. Identity is resolved by
// middleware.LoadUser, which must run before these routes.
func RegisterRoutes(r *gin.Engine, h Handlers, cronSecret string) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// 认证 (Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.AuthRequired(), h.Auth.Me)
		auth.GET("/google", h.Auth.GoogleLogin)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}

	// 企业目录与评论 (Companies & Comments)
	api.GET("/companies", h.Companies.List)
	api.GET("/companies/:id", h.Companies.Detail)
	api.GET("/companies/:id/comments", h.Comments.List)
	api.POST("/companies/:id/comments", h.Comments.Create)
	api.DELETE("/companies/:id/comments", h.Comments.Delete)

	api.POST("/comments/:id/vote", h.Votes.Vote)
	api.GET("/comments/:id/vote", h.Votes.Current)
	api.POST("/comments/:id/approve", h.Comments.Approve)

	api.POST("/translate", h.Translate.Translate)

	// 定时任务 (Cron)
	cron := api.Group("/cron")
	cron.Use(middleware.CronAuth(cronSecret))
	{
		cron.GET("/sync", h.Cron.Sync)
	}
}
