// Package podcast holds the domain model shared by the feed normalizer,
// the player store and the HTTP API.
package podcast

import (
	"fmt"
)

// DefaultThumbnail is used when a feed carries no artwork.
var DefaultThumbnail = PlaceholderURL(300, 300)

type Episode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AudioURL    string `json:"audioUrl"`
	Duration    int    `json:"duration"`    // seconds
	PublishedAt string `json:"publishedAt"` // RFC 3339, or the raw feed date when unparseable
	Thumbnail   string `json:"thumbnail,omitempty"`
	ShowNotes   string `json:"showNotes,omitempty"`
}

type Podcast struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Episodes    []Episode `json:"episodes"`
	FeedURL     string    `json:"feedUrl,omitempty"` // empty for seeded podcasts
}

// PlaybackState is transient transport state. It is never persisted.
type PlaybackState struct {
	IsPlaying      bool     `json:"isPlaying"`
	CurrentTime    float64  `json:"currentTime"`
	Duration       float64  `json:"duration"`
	Volume         float64  `json:"volume"`
	CurrentEpisode *Episode `json:"currentEpisode"`
}

// FindEpisode returns the episode with the given id, or nil.
func (p *Podcast) FindEpisode(id string) *Episode {
	for i := range p.Episodes {
		if p.Episodes[i].ID == id {
			ep := p.Episodes[i]
			return &ep
		}
	}
	return nil
}

// TotalDuration sums the episode durations in seconds.
func (p *Podcast) TotalDuration() int {
	total := 0
	for _, ep := range p.Episodes {
		total += ep.Duration
	}
	return total
}

// Clone returns a copy that shares no slices with p.
func (p Podcast) Clone() Podcast {
	if p.Episodes != nil {
		p.Episodes = append(make([]Episode, 0, len(p.Episodes)), p.Episodes...)
	}
	return p
}

func PlaceholderURL(width, height int) string {
	return fmt.Sprintf("/api/placeholder/%d/%d", width, height)
}

// FormatDuration renders seconds as H:MM:SS, or M:SS below one hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
