// Package api serves the processing pipeline over HTTP with gin.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// NewRouter mounts every route on a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:              corsHeaders,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))
	router.Use(preflight())

	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics)

	// Path kept from the hosted edge function so existing clients work unchanged.
	router.POST("/functions/v1/process-youtube-video", h.ProcessVideo)

	api := router.Group("/api")
	{
		api.POST("/videos/process", h.ProcessVideo)
		api.GET("/videos/:id", h.GetVideo)
	}
	return router
}

// preflight answers OPTIONS requests that carry no Origin, which the cors
// middleware passes through.
func preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.AbortWithStatus(http.StatusOK)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
