package feed

import (
	"regexp"
	"testing"
)

var podcastIDPattern = regexp.MustCompile(`^podcast-[A-Za-z0-9]{12}$`)

func TestGeneratePodcastID(t *testing.T) {
	urls := []string{
		"https://example.com/feed.xml",
		"https://feeds.simplecast.com/54nAGcIl",
		"http://a.co/rss?x=1&y=2",
		"https://example.com/ünïcode/feed",
	}

	for _, feedURL := range urls {
		id1 := GeneratePodcastID(feedURL)
		id2 := GeneratePodcastID(feedURL)

		if id1 != id2 {
			t.Errorf("Expected same id for same URL %s, got %s != %s", feedURL, id1, id2)
		}
		if !podcastIDPattern.MatchString(id1) {
			t.Errorf("Expected id to match %s, got %s", podcastIDPattern, id1)
		}
	}
}

func TestGeneratePodcastIDKnownValue(t *testing.T) {
	// base64("https://example.com/feed.xml") = aHR0cHM6Ly9leGFtcGxlLmNvbS9mZWVkLnhtbA==
	got := GeneratePodcastID("https://example.com/feed.xml")
	if got != "podcast-aHR0cHM6Ly9l" {
		t.Errorf("Expected 'podcast-aHR0cHM6Ly9l', got '%s'", got)
	}
}

func TestGeneratePodcastIDSharedPrefixCollides(t *testing.T) {
	// Only the first nine URL bytes reach the identifier.
	a := GeneratePodcastID("https://example.com/a.xml")
	b := GeneratePodcastID("https://example.com/b.xml")
	if a != b {
		t.Errorf("Expected truncated ids to collide, got %s and %s", a, b)
	}
}
