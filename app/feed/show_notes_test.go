package feed

import (
	"strings"
	"testing"
)

const showNotesHTML = `
<div>
	<nav>Subscribe on every platform</nav>
	<article>
		<h2>In this episode</h2>
		<p>We talk about building reliable audio pipelines, from encoding choices to the way players buffer long recordings on flaky mobile networks.</p>
		<p>Our guest explains how the team moved transcoding into a queue, what broke along the way, and why chapter markers turned out to matter more than bitrate.</p>
		<p>We also answer listener questions about recording setups, room treatment on a budget, and how to keep levels consistent when guests join remotely over unreliable connections.</p>
		<p>Links mentioned in the show include the encoder documentation and a talk about adaptive streaming for spoken word content.</p>
	</article>
	<script>trackPlay();</script>
	<style>.ad { display: none; }</style>
</div>`

func TestShowNotes_Extract(t *testing.T) {
	result := NewShowNotes().Extract("ep-1", showNotesHTML)

	if !strings.Contains(result, "reliable audio pipelines") {
		t.Errorf("Expected show notes to contain the episode text, got: %s", result)
	}
	if strings.Contains(result, "trackPlay") {
		t.Error("Expected scripts to be removed")
	}
	if strings.Contains(result, "display: none") {
		t.Error("Expected styles to be removed")
	}
}

func TestShowNotes_BlankBody(t *testing.T) {
	notes := NewShowNotes()

	for _, body := range []string{"", "   \n\t"} {
		if result := notes.Extract("ep-blank", body); result != "" {
			t.Errorf("Expected no show notes for %q, got: %s", body, result)
		}
	}
}

func TestParser_ShowNotesFromContent(t *testing.T) {
	feedXML := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Notes Show</title>
    <item>
      <guid>with-notes</guid>
      <title>With notes</title>
      <enclosure url="https://example.com/a.mp3" type="audio/mpeg"/>
      <content:encoded><![CDATA[` + showNotesHTML + `]]></content:encoded>
    </item>
    <item>
      <guid>no-notes</guid>
      <title>Without notes</title>
      <enclosure url="https://example.com/b.mp3" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

	parser := NewParser(DefaultMaxEpisodes, NewShowNotes())
	result, err := parser.Run([]byte(feedXML), "https://example.com/notes.xml")
	if err != nil {
		t.Fatalf("Failed to parse feed: %v", err)
	}

	if len(result.Episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(result.Episodes))
	}
	if !strings.Contains(result.Episodes[0].ShowNotes, "reliable audio pipelines") {
		t.Errorf("Expected show notes on first episode, got: %q", result.Episodes[0].ShowNotes)
	}
	if result.Episodes[1].ShowNotes != "" {
		t.Errorf("Expected no show notes on second episode, got: %q", result.Episodes[1].ShowNotes)
	}
}
