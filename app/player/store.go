// Package player holds the playback and playlist state machine together
// with the subscribed podcast collection.
package player

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lysyi3m/podcast-player/app/podcast"
)

// StorageKey is the durable slot holding the subscribed podcasts.
const StorageKey = "podcast-player-feeds"

var ErrPodcastNotFound = errors.New("podcast not found")

// KeyValue is the durable slot the store persists into.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// State is a point-in-time copy of the store for observers.
type State struct {
	CurrentEpisode *podcast.Episode      `json:"currentEpisode"`
	PlaybackState  podcast.PlaybackState `json:"playbackState"`
	Playlist       []podcast.Episode     `json:"playlist"`
	Podcasts       []podcast.Podcast     `json:"podcasts"`
	CurrentPodcast *podcast.Podcast      `json:"currentPodcast"`
}

type Store struct {
	kv KeyValue
	mu sync.RWMutex

	currentEpisode *podcast.Episode
	playback       podcast.PlaybackState
	playlist       []podcast.Episode
	podcasts       []podcast.Podcast
	currentPodcast *podcast.Podcast
}

func NewStore(kv KeyValue) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("player store requires a key-value slot")
	}

	return &Store{
		kv:       kv,
		playback: podcast.PlaybackState{Volume: 1},
		playlist: []podcast.Episode{},
		podcasts: []podcast.Podcast{},
	}, nil
}

// Load restores the podcast collection from the durable slot. Unreadable
// data is logged and discarded. A non-empty collection opens its first
// podcast.
func (s *Store) Load() error {
	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read saved podcasts: %w", err)
	}
	if !ok {
		return nil
	}

	var saved []podcast.Podcast
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		slog.Error("Error loading saved podcasts", "key", StorageKey, "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.podcasts = saved
	if s.podcasts == nil {
		s.podcasts = []podcast.Podcast{}
	}
	if len(s.podcasts) > 0 {
		s.openLocked(s.podcasts[0])
	}

	slog.Debug("Saved podcasts loaded", "count", len(s.podcasts))
	return nil
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		CurrentEpisode: copyEpisode(s.currentEpisode),
		PlaybackState:  s.playback,
		Playlist:       append([]podcast.Episode{}, s.playlist...),
		Podcasts:       make([]podcast.Podcast, 0, len(s.podcasts)),
	}
	state.PlaybackState.CurrentEpisode = copyEpisode(s.playback.CurrentEpisode)
	for _, p := range s.podcasts {
		state.Podcasts = append(state.Podcasts, p.Clone())
	}
	if s.currentPodcast != nil {
		current := s.currentPodcast.Clone()
		state.CurrentPodcast = &current
	}

	return state
}

func (s *Store) Podcasts() []podcast.Podcast {
	return s.Snapshot().Podcasts
}

// Podcast returns a copy of the subscribed podcast with the given id.
func (s *Store) Podcast(id string) (podcast.Podcast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.podcasts[i].Clone(), true
	}
	return podcast.Podcast{}, false
}

// SelectEpisode makes e the active episode. A nil e clears it. The
// playlist is left as is.
func (s *Store) SelectEpisode(e *podcast.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectEpisodeLocked(copyEpisode(e))
}

// SelectPodcast only changes the current podcast. Use OpenPodcast to also
// rebuild the playlist.
func (s *Store) SelectPodcast(p *podcast.Podcast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		s.currentPodcast = nil
		return
	}
	current := p.Clone()
	s.currentPodcast = &current
}

// OpenPodcast selects a subscribed podcast, replaces the playlist with its
// episodes and clears the active episode.
func (s *Store) OpenPodcast(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrPodcastNotFound
	}
	s.openLocked(s.podcasts[i])
	return nil
}

// AddPodcast replaces a podcast with the same id in place, or appends it.
// The first podcast added to an empty collection becomes current.
func (s *Store) AddPodcast(p podcast.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Clone()
	wasEmpty := len(s.podcasts) == 0

	if i := s.indexLocked(p.ID); i >= 0 {
		s.podcasts[i] = p
	} else {
		s.podcasts = append(s.podcasts, p)
	}

	if wasEmpty {
		current := p.Clone()
		s.currentPodcast = &current
	}

	return s.persistLocked()
}

// RemovePodcast drops the podcast with the given id. Removing the current
// podcast selects the first remaining one and clears the active episode
// and the playlist.
func (s *Store) RemovePodcast(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]podcast.Podcast, 0, len(s.podcasts))
	for _, p := range s.podcasts {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	s.podcasts = filtered

	if s.currentPodcast != nil && s.currentPodcast.ID == id {
		s.currentPodcast = nil
		if len(filtered) > 0 {
			current := filtered[0].Clone()
			s.currentPodcast = &current
		}
		s.selectEpisodeLocked(nil)
		s.playlist = []podcast.Episode{}
	}

	return s.persistLocked()
}

// UpdatePodcast replaces the stored podcast with the given id. The current
// podcast is refreshed, the playlist is not.
func (s *Store) UpdatePodcast(id string, p podcast.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Clone()
	for i := range s.podcasts {
		if s.podcasts[i].ID == id {
			s.podcasts[i] = p
		}
	}

	if s.currentPodcast != nil && s.currentPodcast.ID == id {
		current := p.Clone()
		s.currentPodcast = &current
	}

	return s.persistLocked()
}

// SetPodcasts replaces the whole collection.
func (s *Store) SetPodcasts(podcasts []podcast.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.podcasts = make([]podcast.Podcast, 0, len(podcasts))
	for _, p := range podcasts {
		s.podcasts = append(s.podcasts, p.Clone())
	}

	return s.persistLocked()
}

func (s *Store) SetPlaylist(episodes []podcast.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = append([]podcast.Episode{}, episodes...)
}

// AddToPlaylist appends e unless an episode with its id is already queued.
func (s *Store) AddToPlaylist(e podcast.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, queued := range s.playlist {
		if queued.ID == e.ID {
			return
		}
	}
	s.playlist = append(s.playlist, e)
}

func (s *Store) RemoveFromPlaylist(episodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]podcast.Episode, 0, len(s.playlist))
	for _, e := range s.playlist {
		if e.ID != episodeID {
			filtered = append(filtered, e)
		}
	}
	s.playlist = filtered
}

// PlayNext moves to the following playlist entry. It does nothing at the
// end of the playlist.
func (s *Store) PlayNext() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentEpisode == nil || len(s.playlist) == 0 {
		return
	}

	// An episode outside the playlist sits at -1, so next starts from the top.
	i := s.playlistIndexLocked(s.currentEpisode.ID)
	if i < len(s.playlist)-1 {
		next := s.playlist[i+1]
		s.selectEpisodeLocked(&next)
	}
}

// PlayPrevious moves to the preceding playlist entry. It does nothing at
// the start of the playlist.
func (s *Store) PlayPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentEpisode == nil || len(s.playlist) == 0 {
		return
	}

	i := s.playlistIndexLocked(s.currentEpisode.ID)
	if i > 0 {
		previous := s.playlist[i-1]
		s.selectEpisodeLocked(&previous)
	}
}

// SetPlaybackState records transport state reported by the audio element.
// The current episode mirror always follows the store.
func (s *Store) SetPlaybackState(state podcast.PlaybackState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Volume = clampVolume(state.Volume)
	if state.CurrentTime < 0 {
		state.CurrentTime = 0
	}
	if state.Duration < 0 {
		state.Duration = 0
	}
	state.CurrentEpisode = copyEpisode(s.currentEpisode)
	s.playback = state
}

func (s *Store) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentEpisode != nil {
		s.playback.IsPlaying = true
	}
}

func (s *Store) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playback.IsPlaying = false
}

func (s *Store) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if s.playback.Duration > 0 && seconds > s.playback.Duration {
		seconds = s.playback.Duration
	}
	s.playback.CurrentTime = seconds
}

func (s *Store) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playback.Volume = clampVolume(volume)
}

func (s *Store) openLocked(p podcast.Podcast) {
	current := p.Clone()
	s.currentPodcast = &current
	s.playlist = append([]podcast.Episode{}, p.Episodes...)
	s.selectEpisodeLocked(nil)
}

func (s *Store) selectEpisodeLocked(e *podcast.Episode) {
	s.currentEpisode = e
	s.playback.CurrentEpisode = copyEpisode(e)
	s.playback.CurrentTime = 0
	s.playback.Duration = 0
	if e == nil {
		s.playback.IsPlaying = false
	} else {
		s.playback.Duration = float64(e.Duration)
	}
}

// persistLocked writes the collection while it is non-empty. An emptied
// collection is not written, so the slot keeps the last non-empty value.
func (s *Store) persistLocked() error {
	if len(s.podcasts) == 0 {
		return nil
	}

	data, err := json.Marshal(s.podcasts)
	if err != nil {
		return fmt.Errorf("failed to encode podcasts: %w", err)
	}

	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save podcasts: %w", err)
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.podcasts {
		if s.podcasts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) playlistIndexLocked(episodeID string) int {
	for i := range s.playlist {
		if s.playlist[i].ID == episodeID {
			return i
		}
	}
	return -1
}

func copyEpisode(e *podcast.Episode) *podcast.Episode {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
