package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/podcast"
	"github.com/lysyi3m/podcast-player/app/tasks"
)

const (
	msgFeedNotAccessible = "Invalid RSS feed URL or feed is not accessible"
	msgNoEpisodes        = "No episodes found in this podcast feed"
	msgEpisodeNotFound   = "Episode not found"
)

func (h *Handler) GetPlayer(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) ListPodcasts(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Podcasts())
}

// Subscribe validates the feed, parses it and adds the podcast to the
// collection.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: feed.ErrFeedURLRequired.Error()})
		return
	}

	feedURL, err := feed.CheckFeedURL(strings.TrimSpace(req.FeedURL))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	valid := h.feeds.Validate(ctx, feedURL)
	if h.deadlineExceeded(ctx, c) {
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgFeedNotAccessible})
		return
	}

	p, err := h.feeds.Parse(ctx, feedURL)
	if h.deadlineExceeded(ctx, c) {
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if len(p.Episodes) == 0 {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: msgNoEpisodes})
		return
	}

	if err := h.store.AddPodcast(*p); err != nil {
		h.storageError(c, "add_podcast", err)
		return
	}

	slog.Info("Podcast subscribed", "podcast", p.ID, "feed_url", feedURL, "episodes", len(p.Episodes))
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) RemovePodcast(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Podcast(id); !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: player.ErrPodcastNotFound.Error()})
		return
	}

	if err := h.store.RemovePodcast(id); err != nil {
		h.storageError(c, "remove_podcast", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) SelectPodcast(c *gin.Context) {
	if err := h.store.OpenPodcast(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.store.Snapshot())
}

// RefreshPodcast re-parses one podcast's feed in the request.
func (h *Handler) RefreshPodcast(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	task := tasks.NewRefreshPodcastTask(id, h.feeds, h.store)
	task.Start()
	if err := task.Execute(ctx); err != nil {
		if h.deadlineExceeded(ctx, c) {
			return
		}
		switch {
		case errors.Is(err, player.ErrPodcastNotFound):
			c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, tasks.ErrNoFeedURL):
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			var feedErr *feed.Error
			if errors.As(err, &feedErr) {
				c.JSON(http.StatusInternalServerError, errorResponse{Error: feedErr.Error()})
				return
			}
			slog.Error("Podcast refresh failed", "podcast", id, "error", err)
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	p, ok := h.store.Podcast(id)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: player.ErrPodcastNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// RefreshAll queues a background refresh for every subscribed feed.
func (h *Handler) RefreshAll(c *gin.Context) {
	queued, err := h.scheduler.EnqueueRefreshAll()
	if err != nil {
		slog.Warn("Failed to enqueue refresh tasks", "queued", queued, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "queued": queued})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

// SelectEpisode looks the episode up in the playlist, then in the current
// podcast. A null or empty id clears the selection.
func (h *Handler) SelectEpisode(c *gin.Context) {
	var req episodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if req.EpisodeID == nil || *req.EpisodeID == "" {
		h.store.SelectEpisode(nil)
		c.JSON(http.StatusOK, h.store.Snapshot())
		return
	}

	episode := h.findEpisode(*req.EpisodeID, false)
	if episode == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgEpisodeNotFound})
		return
	}

	h.store.SelectEpisode(episode)
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) PlayNext(c *gin.Context) {
	h.store.PlayNext()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) PlayPrevious(c *gin.Context) {
	h.store.PlayPrevious()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) Play(c *gin.Context) {
	h.store.Play()
	c.JSON(http.StatusOK, h.store.Snapshot().PlaybackState)
}

func (h *Handler) Pause(c *gin.Context) {
	h.store.Pause()
	c.JSON(http.StatusOK, h.store.Snapshot().PlaybackState)
}

func (h *Handler) Seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.store.Seek(req.Time)
	c.JSON(http.StatusOK, h.store.Snapshot().PlaybackState)
}

func (h *Handler) SetVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.store.SetVolume(req.Volume)
	c.JSON(http.StatusOK, h.store.Snapshot().PlaybackState)
}

// SetPlayback applies the fields present in the body on top of the current
// playback state.
func (h *Handler) SetPlayback(c *gin.Context) {
	state := h.store.Snapshot().PlaybackState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.store.SetPlaybackState(state)
	c.JSON(http.StatusOK, h.store.Snapshot().PlaybackState)
}

// AddToPlaylist queues an episode from the current podcast, or from any
// subscribed podcast.
func (h *Handler) AddToPlaylist(c *gin.Context) {
	var req episodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EpisodeID == nil || *req.EpisodeID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Episode ID is required"})
		return
	}

	episode := h.findEpisode(*req.EpisodeID, true)
	if episode == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgEpisodeNotFound})
		return
	}

	h.store.AddToPlaylist(*episode)
	c.JSON(http.StatusOK, h.store.Snapshot().Playlist)
}

func (h *Handler) RemoveFromPlaylist(c *gin.Context) {
	h.store.RemoveFromPlaylist(c.Param("episodeId"))
	c.JSON(http.StatusOK, h.store.Snapshot().Playlist)
}

func (h *Handler) findEpisode(id string, searchAll bool) *podcast.Episode {
	state := h.store.Snapshot()

	for i := range state.Playlist {
		if state.Playlist[i].ID == id {
			return &state.Playlist[i]
		}
	}
	if state.CurrentPodcast != nil {
		if e := state.CurrentPodcast.FindEpisode(id); e != nil {
			return e
		}
	}
	if searchAll {
		for i := range state.Podcasts {
			if e := state.Podcasts[i].FindEpisode(id); e != nil {
				return e
			}
		}
	}
	return nil
}

// deadlineExceeded answers 408 once the route's deadline has passed.
func (h *Handler) deadlineExceeded(ctx context.Context, c *gin.Context) bool {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false
	}

	slog.Warn("Request deadline exceeded", "path", c.Request.URL.Path, "timeout", h.requestTimeout.String())
	c.JSON(http.StatusRequestTimeout, errorResponse{Error: feed.ErrRequestTimeout.Error()})
	return true
}

func (h *Handler) storageError(c *gin.Context, operation string, err error) {
	slog.Error("Storage error", "operation", operation, "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to save podcasts"})
}
