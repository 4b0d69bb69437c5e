package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// NewServer creates the HTTP router with all routes configured
func NewServer(handler *Handler, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(requestLogger())
	r.Use(gin.Recovery())

	if opts.CORS {
		r.Use(corsMiddleware())
	}

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		api.POST("/parse-rss", handler.ParseRSS)
		api.OPTIONS("/parse-rss", handler.Preflight)
		api.GET("/placeholder/:width/:height", handler.GetPlaceholder)

		api.GET("/podcasts", handler.ListPodcasts)
		api.POST("/podcasts", handler.Subscribe)
		api.POST("/podcasts/refresh", handler.RefreshAll)
		api.DELETE("/podcasts/:id", handler.RemovePodcast)
		api.POST("/podcasts/:id/select", handler.SelectPodcast)
		api.POST("/podcasts/:id/refresh", handler.RefreshPodcast)

		api.GET("/player", handler.GetPlayer)
		api.POST("/player/episode", handler.SelectEpisode)
		api.POST("/player/next", handler.PlayNext)
		api.POST("/player/previous", handler.PlayPrevious)
		api.POST("/player/play", handler.Play)
		api.POST("/player/pause", handler.Pause)
		api.POST("/player/seek", handler.Seek)
		api.POST("/player/volume", handler.SetVolume)
		api.PUT("/player/playback", handler.SetPlayback)

		api.POST("/playlist", handler.AddToPlaylist)
		api.DELETE("/playlist/:episodeId", handler.RemoveFromPlaylist)
	}

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// requestLogger tags every request with an id and writes one access log
// record when it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, "error", errs)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			slog.Error("HTTP request", attrs...)
		} else {
			slog.Info("HTTP request", attrs...)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
