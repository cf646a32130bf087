package app

import (
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/middleware"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/api/health", c.health.HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	// static front-end resources, cache-first with offline fallbacks
	router.GET("/assets/*path", c.cache.ServeAsset)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())

	quiz := api.Group("/quiz")
	quiz.Use(middleware.RoleMiddleware(model.Student))
	{
		quiz.POST("/:id/start", c.session.StartQuiz)
		quiz.GET("/session", c.session.GetSession)
		quiz.POST("/answer", c.session.RecordAnswer)
		quiz.POST("/submit", c.session.SubmitQuiz)
		quiz.POST("/cancel", c.session.CancelQuiz)
	}

	sync := api.Group("/sync")
	{
		sync.GET("/status", c.sync.Status)
		sync.POST("/flush", c.sync.Flush)
	}

	api.POST("/progress", middleware.RoleMiddleware(model.Student), c.sync.UpdateProgress)

	admin := api.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/cache/install", c.cache.Install)
		admin.POST("/cache/activate", c.cache.Activate)
	}
}
