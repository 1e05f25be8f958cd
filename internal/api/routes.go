package api

import (
	"net/http"
	"strings"
	"time"

	"edustack/lms-backend/internal/config"
	"edustack/lms-backend/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the full HTTP surface: admin console, public catalog and
// partner integration.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	contentService service.ContentService,
	resourceService service.ResourceService,
	auditService service.AuditService,
	nmService service.NmService,
) {
	secureCookies := strings.HasPrefix(cfg.Server.PublicBaseURL, "https://")

	authHandler := NewAuthHandler(authService, auditService)
	contentHandler := NewContentHandler(contentService, auditService)
	resourceHandler := NewResourceHandler(resourceService, auditService)
	publicHandler := NewPublicHandler(contentService, resourceService)
	auditHandler := NewAuditHandler(auditService)
	nmHandler := NewNmHandler(nmService, auditService, cfg.Server.PublicBaseURL, secureCookies)

	router.Use(RequestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.PublicBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(RateLimitMiddleware(cfg.RateLimit.Window, cfg.RateLimit.Max))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// --- Admin console ---
	admin := api.Group("/admin")
	admin.POST("/auth/login", authHandler.Login)

	protected := admin.Group("")
	protected.Use(AuthMiddleware(authService.GetJWTSecret()))
	{
		centers := protected.Group("/centers")
		{
			centers.POST("", contentHandler.CreateCenter)
			centers.GET("", contentHandler.ListCenters)
			centers.PUT("/:id", contentHandler.UpdateCenter)
			centers.DELETE("/:id", contentHandler.DeleteCenter)
		}

		courses := protected.Group("/courses")
		{
			courses.POST("", contentHandler.CreateCourse)
			courses.GET("", contentHandler.ListCourses)
			courses.PUT("/:id", contentHandler.UpdateCourse)
			courses.DELETE("/:id", contentHandler.DeleteCourse)
		}

		subjects := protected.Group("/subjects")
		{
			subjects.POST("", contentHandler.CreateSubject)
			subjects.GET("", contentHandler.ListSubjects)
			subjects.PUT("/:id", contentHandler.UpdateSubject)
			subjects.DELETE("/:id", contentHandler.DeleteSubject)
		}

		sessions := protected.Group("/sessions")
		{
			sessions.POST("", contentHandler.CreateSession)
			sessions.GET("", contentHandler.ListSessions)
			sessions.PUT("/:id", contentHandler.UpdateSession)
			sessions.DELETE("/:id", contentHandler.DeleteSession)
		}

		resources := protected.Group("/resources")
		{
			resources.POST("/file", resourceHandler.UploadFile)
			resources.POST("/youtube", resourceHandler.CreateYoutube)
			resources.GET("/session/:sessionId", resourceHandler.ListBySession)
			resources.PUT("/:id", resourceHandler.Update)
			resources.DELETE("/:id", resourceHandler.Delete)
		}

		protected.POST("/nm/courses/:courseCode/publish", nmHandler.PublishCourse)
		protected.GET("/audit", auditHandler.List)
	}

	// --- Public catalog ---
	api.GET("/centers", publicHandler.ListCenters)
	api.GET("/centers/:centerId/courses", publicHandler.ListCoursesByCenter)
	api.GET("/courses/:courseCode", publicHandler.GetCourse)
	api.GET("/courses/:courseCode/subjects", publicHandler.ListSubjects)
	api.GET("/subjects/:subjectId/sessions", publicHandler.ListSessions)
	api.GET("/sessions/:sessionId/resources", publicHandler.ListResources)

	// --- Partner integration ---
	nmGroup := api.Group("/nm")
	nmGroup.GET("/launch", nmHandler.Launch)

	partner := nmGroup.Group("")
	partner.Use(PartnerAuthMiddleware(cfg.NM.PartnerBearerToken))
	{
		partner.POST("/course/subscribe", nmHandler.Subscribe)
		partner.POST("/course/access", nmHandler.Access)
		partner.POST("/student/progress", nmHandler.UpdateProgress)
		partner.GET("/student/progress", nmHandler.GetProgress)
	}

	// --- Course player (session cookie) ---
	player := api.Group("/session")
	player.Use(SessionAuthMiddleware(cfg.JWT.Secret))
	{
		player.GET("/progress", nmHandler.PlayerGetProgress)
		player.POST("/progress", nmHandler.PlayerUpdateProgress)
	}
}
