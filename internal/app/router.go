package app

import (
	"codesikho_backend/docs"
	"codesikho_backend/internal/config"
	"codesikho_backend/internal/middleware"
	"codesikho_backend/pkg/monitoring"
	"codesikho_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerSubmissionRoutes(authGroup, c, cfg)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/activities", c.content.ListActivities)
		public.GET("/badges", c.content.ListBadges)
		public.GET("/leaderboard", c.leaderboard.GetLeaderboard)
	}
}

func (a *App) registerUserRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/users", c.user.Provision)

	me := group.Group("/users/me")
	{
		me.GET("", c.user.GetProfile)
		me.PUT("", c.user.UpdateProfile)
		me.GET("/rank", c.leaderboard.GetMyRank)
		me.GET("/stats", c.user.GetStats)
		me.GET("/achievements", c.user.GetAchievements)
		me.GET("/activity", c.user.GetRecentActivity)
	}
}

func (a *App) registerSubmissionRoutes(group *gin.RouterGroup, c *controllers, cfg *config.Config) {
	// 提交接口按用户限流
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	userLimiter := security.NewLimiter(cfg.RateLimit.MaxRequests, window)
	a.limiters = append(a.limiters, userLimiter)

	group.POST("/submissions", userLimiter.Middleware(middleware.RateLimitKey), c.submission.Submit)
}
