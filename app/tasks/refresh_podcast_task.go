package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/podcast-player/app/player"
)

// ErrNoFeedURL is returned when refreshing a podcast that was not
// subscribed from a feed.
var ErrNoFeedURL = errors.New("podcast has no feed URL")

type RefreshPodcastTask struct {
	Task
	parser FeedParser
	store  PodcastStore
}

func NewRefreshPodcastTask(podcastID string, parser FeedParser, store PodcastStore) *RefreshPodcastTask {
	return &RefreshPodcastTask{
		Task:   NewTask(TaskTypeRefreshPodcast, podcastID),
		parser: parser,
		store:  store,
	}
}

// Execute re-parses the podcast's feed and replaces the stored copy.
func (t *RefreshPodcastTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	current, ok := t.store.Podcast(t.PodcastID)
	if !ok {
		return player.ErrPodcastNotFound
	}
	if current.FeedURL == "" {
		return ErrNoFeedURL
	}

	updated, err := t.parser.Parse(ctx, current.FeedURL)
	if err != nil {
		return fmt.Errorf("failed to refresh podcast: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.store.UpdatePodcast(t.PodcastID, *updated); err != nil {
		return fmt.Errorf("failed to store podcast: %w", err)
	}

	slog.Info("Podcast refreshed", "podcast", t.PodcastID, "episodes", len(updated.Episodes), "duration", t.GetDuration().String())

	return nil
}
