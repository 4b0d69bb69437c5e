package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/podcast-player/app/podcast"
	"github.com/mmcdole/gofeed"
)

const (
	DefaultMaxEpisodes = 50

	untitledEpisode = "Untitled Episode"
	untitledPodcast = "Untitled Podcast"
)

// Parser maps a fetched feed document onto the podcast model. It is safe
// for concurrent use; each Run gets its own gofeed parser.
type Parser struct {
	showNotes   *ShowNotes
	maxEpisodes int
	now         func() time.Time
}

// NewParser creates a parser keeping at most maxEpisodes playable episodes.
// A nil showNotes disables show notes.
func NewParser(maxEpisodes int, showNotes *ShowNotes) *Parser {
	if maxEpisodes <= 0 {
		maxEpisodes = DefaultMaxEpisodes
	}

	return &Parser{
		showNotes:   showNotes,
		maxEpisodes: maxEpisodes,
		now:         time.Now,
	}
}

func (p *Parser) Run(data []byte, feedURL string) (*podcast.Podcast, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := p.normalize(feed, feedURL)

	slog.Debug("Feed normalized",
		"feed_url", feedURL,
		"podcast", result.ID,
		"items", len(feed.Items),
		"episodes", len(result.Episodes))

	return result, nil
}

func (p *Parser) normalize(feed *gofeed.Feed, feedURL string) *podcast.Podcast {
	items := feed.Items
	if len(items) > p.maxEpisodes {
		items = items[:p.maxEpisodes]
	}

	episodes := make([]podcast.Episode, 0, len(items))
	for index, item := range items {
		if item == nil {
			continue
		}

		episode := p.normalizeItem(item, index)
		if episode.AudioURL == "" {
			continue
		}
		episodes = append(episodes, episode)
	}

	if len(episodes) > p.maxEpisodes {
		episodes = episodes[:p.maxEpisodes]
	}

	var itunesImage, imageURL string
	if feed.ITunesExt != nil {
		itunesImage = feed.ITunesExt.Image
	}
	if feed.Image != nil {
		imageURL = feed.Image.URL
	}

	return &podcast.Podcast{
		ID:          GeneratePodcastID(feedURL),
		Title:       cmp.Or(feed.Title, untitledPodcast),
		Description: feed.Description,
		Thumbnail:   cmp.Or(itunesImage, imageURL, podcast.DefaultThumbnail),
		Episodes:    episodes,
		FeedURL:     feedURL,
	}
}

func (p *Parser) normalizeItem(item *gofeed.Item, index int) podcast.Episode {
	var summary, duration, itunesImage, imageURL, audioURL string
	if item.ITunesExt != nil {
		summary = item.ITunesExt.Summary
		duration = item.ITunesExt.Duration
		itunesImage = item.ITunesExt.Image
	}
	if item.Image != nil {
		imageURL = item.Image.URL
	}
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		audioURL = item.Enclosures[0].URL
	}

	episode := podcast.Episode{
		ID:          cmp.Or(item.GUID, fmt.Sprintf("episode-%d", index)),
		Title:       cmp.Or(item.Title, untitledEpisode),
		Description: cmp.Or(summary, textSnippet(item.Description), item.Description, item.Content),
		AudioURL:    audioURL,
		Duration:    ParseDuration(duration),
		Thumbnail:   cmp.Or(itunesImage, imageURL),
	}

	// Unparseable dates are kept verbatim.
	switch {
	case item.PublishedParsed != nil:
		episode.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	case strings.TrimSpace(item.Published) != "":
		episode.PublishedAt = strings.TrimSpace(item.Published)
	default:
		episode.PublishedAt = p.now().UTC().Format(time.RFC3339)
	}

	if p.showNotes != nil && audioURL != "" {
		episode.ShowNotes = p.showNotes.Extract(episode.ID, item.Content)
	}

	return episode
}
