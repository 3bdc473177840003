package app

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter builds the gin engine with middleware and every route.
func (a *Application) newRouter() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger, a.metrics))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	if a.registry != nil {
		router.GET("/metrics",
			basicAuthMiddleware("metrics", basicCredentials{Username: a.cfg.MetricsUsername, Password: a.cfg.MetricsPassword}, a.metrics),
			gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1", rateLimitMiddleware(a.httpLimiter))

	api.GET("/programs", a.listPrograms)
	api.GET("/programs/:id", a.getProgram)
	api.GET("/countries", a.listCountries)
	api.POST("/recommendations", a.recommend)

	api.POST("/sessions", a.startSession)
	sessions := api.Group("/sessions/:id", sessionContextMiddleware())
	sessions.GET("", a.getSession)
	sessions.DELETE("", a.deleteSession)
	sessions.POST("/messages", a.postMessage)
	sessions.GET("/recommendations", a.sessionRecommendations)
	sessions.PUT("/programs/:courseId", a.toggleProgram)
	sessions.POST("/meeting", a.scheduleMeeting)
	sessions.GET("/meetings", a.listMeetings)
	sessions.DELETE("/meetings/:meetingId", a.cancelMeeting)
	sessions.POST("/reset", a.resetSession)
	sessions.POST("/submit", a.submit)
	sessions.GET("/responses", a.listResponses)

	return router
}
