package feed

import (
	"log/slog"
	"strings"

	"codeberg.org/readeck/go-readability"
)

// ShowNotes cleans an episode's content:encoded body into readable HTML.
type ShowNotes struct{}

func NewShowNotes() *ShowNotes {
	return &ShowNotes{}
}

// Extract returns the cleaned notes for one episode, or "" when the body is
// blank or nothing readable survives. Failures are only logged.
func (n *ShowNotes) Extract(episodeID, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(body), nil)
	if err != nil {
		slog.Debug("Show notes unavailable", "episode", episodeID, "error", err)
		return ""
	}

	notes := strings.TrimSpace(article.Content)
	if notes == "" {
		slog.Debug("Show notes empty after cleanup", "episode", episodeID)
		return ""
	}

	slog.Debug("Show notes extracted", "episode", episodeID, "length", len(notes))
	return notes
}
