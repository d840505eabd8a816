package app

import (
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/public/certificates/verify/:code", c.certificate.Verify)
	}

	// authenticated routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		courses := authGroup.Group("/courses")
		{
			courses.GET("", c.course.List)
			courses.GET("/continue", c.course.Continue)
			courses.GET("/slug/:slug", c.course.GetBySlug)
			courses.GET("/:courseId/roadmap", c.course.GetRoadmap)
			courses.GET("/:courseId/modules", c.module.ListWithProgress)
			courses.POST("/:courseId/modules/unlock-next", c.module.UnlockNext)
			courses.PUT("/:courseId/modules/current", c.module.SetCurrent)
		}

		authGroup.POST("/lessons/:lessonId/complete", c.lesson.Complete)

		certificates := authGroup.Group("/certificates")
		{
			certificates.POST("", c.certificate.Issue)
			certificates.GET("", c.certificate.List)
			certificates.GET("/:id", c.certificate.GetByID)
		}
	}

	// admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin, model.Instructor))
	{
		admin.POST("/certificates", c.certificate.AdminIssue)
	}
}
