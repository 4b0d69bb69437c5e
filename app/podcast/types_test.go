package podcast

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{90, "1:30"},
		{2340, "39:00"},
		{3661, "1:01:01"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.expected {
			t.Errorf("FormatDuration(%d): expected '%s', got '%s'", tt.seconds, tt.expected, got)
		}
	}
}

func TestPodcastHelpers(t *testing.T) {
	p := Podcast{
		ID: "podcast-1",
		Episodes: []Episode{
			{ID: "a", Duration: 60},
			{ID: "b", Duration: 30},
		},
	}

	if p.TotalDuration() != 90 {
		t.Errorf("Expected total duration 90, got %d", p.TotalDuration())
	}

	ep := p.FindEpisode("b")
	if ep == nil || ep.ID != "b" {
		t.Fatalf("Expected to find episode 'b', got %v", ep)
	}
	if p.FindEpisode("missing") != nil {
		t.Error("Expected nil for unknown episode")
	}

	clone := p.Clone()
	clone.Episodes[0].Title = "changed"
	if p.Episodes[0].Title != "" {
		t.Error("Expected clone to not share episodes with the original")
	}
}

func TestDefaultThumbnail(t *testing.T) {
	if DefaultThumbnail != "/api/placeholder/300/300" {
		t.Errorf("Expected '/api/placeholder/300/300', got '%s'", DefaultThumbnail)
	}
}
