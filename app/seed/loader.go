package seed

import (
	"cmp"
	_ "embed"
	"fmt"
	"os"

	"github.com/lysyi3m/podcast-player/app/podcast"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultSeed []byte

type file struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Thumbnail   string        `yaml:"thumbnail"`
	FeedURL     string        `yaml:"feed_url"`
	Episodes    []fileEpisode `yaml:"episodes"`
}

type fileEpisode struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	AudioURL    string `yaml:"audio_url"`
	Duration    int    `yaml:"duration"` // seconds
	PublishedAt string `yaml:"published_at"`
	Thumbnail   string `yaml:"thumbnail"`
	ShowNotes   string `yaml:"show_notes"`
}

// Load reads a seed podcast from path, or the built-in one when path is empty.
func Load(path string) (*podcast.Podcast, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	return parse(data)
}

func parse(data []byte) (*podcast.Podcast, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&f); err != nil {
		return nil, err
	}

	p := &podcast.Podcast{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Thumbnail:   cmp.Or(f.Thumbnail, podcast.DefaultThumbnail),
		FeedURL:     f.FeedURL,
		Episodes:    make([]podcast.Episode, 0, len(f.Episodes)),
	}
	for _, e := range f.Episodes {
		p.Episodes = append(p.Episodes, podcast.Episode{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			AudioURL:    e.AudioURL,
			Duration:    e.Duration,
			PublishedAt: e.PublishedAt,
			Thumbnail:   e.Thumbnail,
			ShowNotes:   e.ShowNotes,
		})
	}

	return p, nil
}

func validate(f *file) error {
	required := map[string]string{
		"podcast id":    f.ID,
		"podcast title": f.Title,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	seen := make(map[string]bool, len(f.Episodes))
	for i, e := range f.Episodes {
		if e.ID == "" {
			return fmt.Errorf("episode at index %d has no id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate episode id %q", e.ID)
		}
		seen[e.ID] = true

		if e.AudioURL == "" {
			return fmt.Errorf("episode %q has no audio URL", e.ID)
		}
		if e.Duration < 0 {
			return fmt.Errorf("episode %q duration must be non-negative", e.ID)
		}
	}

	return nil
}
