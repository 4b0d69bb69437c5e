package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/podcast"
	"github.com/lysyi3m/podcast-player/app/tasks"
)

const maxPlaceholderSize = 2000

// NewHandler creates the route handlers. A non-positive requestTimeout
// falls back to feed.DefaultRequestTimeout.
func NewHandler(feeds FeedService, store *player.Store, scheduler tasks.TaskSchedulerInterface, version string, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = feed.DefaultRequestTimeout
	}

	return &Handler{
		feeds:          feeds,
		store:          store,
		scheduler:      scheduler,
		version:        version,
		requestTimeout: requestTimeout,
	}
}

// ParseRSS is the feed boundary: validate or parse a feed URL under the
// overall request deadline.
func (h *Handler) ParseRSS(c *gin.Context) {
	var req feed.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("RSS parsing error", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.feeds.Handle(c.Request.Context(), req)
	if err != nil {
		c.JSON(boundaryStatus(err), errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func boundaryStatus(err error) int {
	switch {
	case feed.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrRequestTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	podcasts := h.store.Podcasts()
	episodes, seconds := 0, 0
	for i := range podcasts {
		episodes += len(podcasts[i].Episodes)
		seconds += podcasts[i].TotalDuration()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"version":          h.version,
		"podcasts":         len(podcasts),
		"episodes":         episodes,
		"library_duration": podcast.FormatDuration(seconds),
		"timestamp":        time.Now().In(time.Local).Format(time.RFC3339),
	})
}

// GetPlaceholder renders a flat SVG with the requested dimensions.
func (h *Handler) GetPlaceholder(c *gin.Context) {
	width, errW := strconv.Atoi(c.Param("width"))
	height, errH := strconv.Atoi(c.Param("height"))
	if errW != nil || errH != nil || width <= 0 || height <= 0 ||
		width > maxPlaceholderSize || height > maxPlaceholderSize {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid dimensions"})
		return
	}

	svg := fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%%" height="100%%" fill="#E5E7EB"/>
  <text x="50%%" y="50%%" font-family="Arial, sans-serif" font-size="14" fill="#9CA3AF" text-anchor="middle" dy=".3em">%d×%d</text>
</svg>
`, width, height, width, height)

	c.Header("Cache-Control", "public, max-age=31536000")
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}
