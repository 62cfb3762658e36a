package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ram4lh0/Sleep-App/internal/auth"
)

// NewRouter wires every route. With remote set, tokens are checked by the
// remote provider and the local sign-up/sign-in routes are not mounted.
func NewRouter(app App, provider auth.Provider, remote bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	local := !remote && app.Accounts() != nil
	if local {
		r.POST("/auth/signup", PostSignUp(app))
		r.POST("/auth/signin", PostSignIn(app))
	}

	protected := r.Group("/", auth.AuthMiddleware(provider, remote))
	if local {
		protected.POST("/auth/signout", PostSignOut(app))
	}
	protected.GET("/auth/session", GetSession(app))

	protected.POST("/sleep", PostSleep(app))
	protected.GET("/sleep", GetSleep(app))
	protected.DELETE("/sleep/:id", DeleteSleep(app))
	protected.GET("/sleep/stats", GetSleepStats(app))
	protected.GET("/sleep/chart", GetSleepChart(app))
	protected.GET("/sleep/export", GetSleepExport(app))
	protected.GET("/sleep/feed", GetSleepFeed(app))

	protected.POST("/api/goals", PostGoal(app))
	protected.GET("/api/goals/progress", GetGoalProgress(app))

	return r
}
