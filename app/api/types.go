package api

import (
	"context"
	"time"

	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/podcast"
	"github.com/lysyi3m/podcast-player/app/tasks"
)

// FeedService is the feed access boundary used by the handlers.
type FeedService interface {
	Handle(ctx context.Context, req feed.Request) (any, error)
	Validate(ctx context.Context, feedURL string) bool
	Parse(ctx context.Context, feedURL string) (*podcast.Podcast, error)
}

var _ FeedService = (*feed.Service)(nil)

type Handler struct {
	feeds     FeedService
	store     *player.Store
	scheduler tasks.TaskSchedulerInterface
	version   string

	// requestTimeout bounds every route that reaches the network.
	requestTimeout time.Duration
}

type Options struct {
	CORS bool
}

type subscribeRequest struct {
	FeedURL string `json:"feedUrl"`
}

type episodeRequest struct {
	EpisodeID *string `json:"episodeId"`
}

type seekRequest struct {
	Time float64 `json:"time"`
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

type errorResponse struct {
	Error string `json:"error"`
}
