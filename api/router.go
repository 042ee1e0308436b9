package api

import (
	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers, healthz gin.HandlerFunc) {
	router.GET("/healthz", healthz)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	api.Use(h.Sessions.LoadUserMiddleware())
	{
		api.GET("/stats", h.Dashboard.Stats)
		api.GET("/leaderboard", h.Leaderboard.Get)

		// 注册与登录
		api.POST("/users", h.Users.Register)
		api.POST("/sessions", h.Users.Login)
		api.DELETE("/sessions", h.Users.Logout)

		userRoutes := api.Group("/users")
		{
			userRoutes.GET("/me", user.RequireUser(), h.Dashboard.Me)
			userRoutes.GET("/me/dashboard", user.RequireUser(), h.Dashboard.MyDashboard)
			userRoutes.GET("/me/ledger", user.RequireUser(), h.Ledger.MyLedger)
			userRoutes.GET("/:id", h.Dashboard.User)
		}

		bountyRoutes := api.Group("/bounties")
		{
			bountyRoutes.GET("", h.Bounties.List)
			bountyRoutes.GET("/categories", h.Bounties.Categories)
			bountyRoutes.GET("/:id", h.Refutations.BountyDetail)
			bountyRoutes.POST("", user.RequireUser(), h.Bounties.Create)
			bountyRoutes.POST("/:id/close", user.RequireUser(), h.Bounties.Close)
			bountyRoutes.POST("/:id/refutations", user.RequireUser(), h.Refutations.Submit)
		}

		refutationRoutes := api.Group("/refutations")
		{
			refutationRoutes.GET("/:id", h.Refutations.Get)
			refutationRoutes.POST("/:id/rate", user.RequireUser(), h.Refutations.Rate)
		}
	}
}
