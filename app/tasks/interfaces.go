package tasks

import (
	"context"

	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/podcast"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to queue background refreshes.
//
//	scheduler := NewScheduler(store, service, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueRefreshAll()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRefreshAll() (int, error)
}

// FeedParser loads a normalized podcast from its feed URL.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (*podcast.Podcast, error)
}

// PodcastStore is the part of the player store refresh tasks write to.
type PodcastStore interface {
	Podcasts() []podcast.Podcast
	Podcast(id string) (podcast.Podcast, bool)
	UpdatePodcast(id string, p podcast.Podcast) error
}

var (
	_ FeedParser   = (*feed.Service)(nil)
	_ PodcastStore = (*player.Store)(nil)
)
