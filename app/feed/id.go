package feed

import (
	"encoding/base64"
	"strings"
)

const (
	podcastIDPrefix = "podcast-"
	podcastIDLength = 12
)

// GeneratePodcastID derives a stable podcast identifier from its feed URL.
// Truncation to 12 characters can collide for URLs sharing a long prefix.
func GeneratePodcastID(feedURL string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(feedURL))

	var b strings.Builder
	for _, r := range encoded {
		if b.Len() == podcastIDLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return podcastIDPrefix + b.String()
}
