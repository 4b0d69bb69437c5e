package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/podcast"
	"github.com/lysyi3m/podcast-player/app/tasks"
)

const testFeedURL = "https://example.com/feed.xml"

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Show</title>
    <description>A show for tests</description>
    <item>
      <guid>ep-1</guid>
      <title>First</title>
      <enclosure url="https://example.com/1.mp3" type="audio/mpeg" length="1"/>
      <itunes:duration>1:30</itunes:duration>
    </item>
    <item>
      <guid>ep-2</guid>
      <title>Second</title>
      <enclosure url="https://example.com/2.mp3" type="audio/mpeg" length="1"/>
    </item>
  </channel>
</rss>`

const emptyFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Empty</title></channel></rss>`

// stubFetcher serves docs from memory. When delay is set it applies to
// every call from the slowFrom-th on (all calls when slowFrom is zero).
type stubFetcher struct {
	mu       sync.Mutex
	docs     map[string]string
	delay    time.Duration
	slowFrom int
	calls    int
}

func (f *stubFetcher) Run(ctx context.Context, feedURL string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	wait := f.delay
	if f.calls < f.slowFrom {
		wait = 0
	}
	f.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[feedURL]
	if !ok {
		return nil, errors.New("HTTP error: 404 Not Found")
	}
	return []byte(doc), nil
}

func (f *stubFetcher) set(feedURL, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[feedURL] = doc
}

type stubScheduler struct {
	queued int
	err    error
}

var _ tasks.TaskSchedulerInterface = (*stubScheduler)(nil)

func (s *stubScheduler) Start() {}

func (s *stubScheduler) Stop() {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	return nil
}

func (s *stubScheduler) EnqueueRefreshAll() (int, error) {
	return s.queued, s.err
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type testServer struct {
	router    *gin.Engine
	service   *feed.Service
	store     *player.Store
	fetcher   *stubFetcher
	scheduler *stubScheduler
}

func newTestServer(t *testing.T, opts Options, serviceOpts feed.Options) *testServer {
	t.Helper()

	fetcher := &stubFetcher{docs: map[string]string{testFeedURL: testFeed}}
	service := feed.NewService(fetcher, feed.NewParser(feed.DefaultMaxEpisodes, nil), serviceOpts)

	store, err := player.NewStore(&memoryKV{values: make(map[string]string)})
	if err != nil {
		t.Fatal(err)
	}

	scheduler := &stubScheduler{}
	handler := NewHandler(service, store, scheduler, "test", serviceOpts.RequestTimeout)

	return &testServer{
		router:    NewServer(handler, opts),
		service:   service,
		store:     store,
		fetcher:   fetcher,
		scheduler: scheduler,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestParseRSSValidate(t *testing.T) {
	s := newTestServer(t, Options{CORS: true}, feed.Options{})

	w := s.do(http.MethodPost, "/api/parse-rss", `{"feedUrl":"`+testFeedURL+`","action":"validate"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"isValid":true}` {
		t.Errorf("Expected valid response, got %s", w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/parse-rss", `{"feedUrl":"https://example.com/missing.xml","action":"validate"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"isValid":false}` {
		t.Errorf("Expected invalid response, got %s", w.Body.String())
	}
}

func TestParseRSSParse(t *testing.T) {
	s := newTestServer(t, Options{CORS: true}, feed.Options{})

	w := s.do(http.MethodPost, "/api/parse-rss", `{"feedUrl":"`+testFeedURL+`","action":"parse"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var p podcast.Podcast
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != feed.GeneratePodcastID(testFeedURL) {
		t.Errorf("Expected id '%s', got '%s'", feed.GeneratePodcastID(testFeedURL), p.ID)
	}
	if p.Title != "Test Show" {
		t.Errorf("Expected title 'Test Show', got '%s'", p.Title)
	}
	if len(p.Episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(p.Episodes))
	}
	if p.Episodes[0].Duration != 90 {
		t.Errorf("Expected duration 90, got %d", p.Episodes[0].Duration)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected CORS header '*', got '%s'", got)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("Expected a request id header")
	}
}

func TestParseRSSErrors(t *testing.T) {
	s := newTestServer(t, Options{CORS: true}, feed.Options{})

	tests := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{"missing url", `{"action":"parse"}`, http.StatusBadRequest, "Feed URL is required"},
		{"non-string url", `{"feedUrl":42,"action":"parse"}`, http.StatusBadRequest, "Feed URL is required"},
		{"bad url", `{"feedUrl":"not a url","action":"parse"}`, http.StatusBadRequest, "Invalid URL format"},
		{"bad action", `{"feedUrl":"` + testFeedURL + `","action":"delete"}`, http.StatusBadRequest, `Invalid action. Use "validate" or "parse"`},
		{"fetch failure", `{"feedUrl":"https://example.com/missing.xml","action":"parse"}`, http.StatusInternalServerError, "Failed to parse RSS feed: HTTP error: 404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/parse-rss", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if got := decodeError(t, w); got != tt.error {
				t.Errorf("Expected error '%s', got '%s'", tt.error, got)
			}
		})
	}

	w := s.do(http.MethodPost, "/api/parse-rss", `{not json`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for unreadable body, got %d", w.Code)
	}
}

func TestParseRSSInvalidFormat(t *testing.T) {
	s := newTestServer(t, Options{}, feed.Options{})
	s.fetcher.set("https://example.com/page.html", "<html><body>not a feed</body></html>")

	w := s.do(http.MethodPost, "/api/parse-rss", `{"feedUrl":"https://example.com/page.html","action":"parse"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if got := decodeError(t, w); got != "Invalid RSS feed format. Please check if this is a valid podcast RSS feed." {
		t.Errorf("Unexpected error '%s'", got)
	}
}

func TestParseRSSTimeout(t *testing.T) {
	s := newTestServer(t, Options{}, feed.Options{RequestTimeout: 20 * time.Millisecond})
	s.fetcher.delay = 200 * time.Millisecond

	w := s.do(http.MethodPost, "/api/parse-rss", `{"feedUrl":"`+testFeedURL+`","action":"parse"}`)
	if w.Code != http.StatusRequestTimeout {
		t.Errorf("Expected status 408, got %d", w.Code)
	}
	if got := decodeError(t, w); got != "Request timeout" {
		t.Errorf("Expected 'Request timeout', got '%s'", got)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{CORS: true}, feed.Options{})

	w := s.do(http.MethodOptions, "/api/parse-rss", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight status 200, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty preflight body, got %q", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Expected allow headers 'Content-Type', got '%s'", got)
	}

	s = newTestServer(t, Options{CORS: false}, feed.Options{})
	w = s.do(http.MethodOptions, "/api/parse-rss", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight status 200 without CORS, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header, got '%s'", got)
	}
}

func TestPlaceholder(t *testing.T) {
	s := newTestServer(t, Options{}, feed.Options{})

	w := s.do(http.MethodGet, podcast.DefaultThumbnail, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("Expected SVG content type, got '%s'", got)
	}
	body := w.Body.String()
	if !strings.Contains(body, `width="300"`) || !strings.Contains(body, "300×300") {
		t.Errorf("Unexpected SVG body: %s", body)
	}

	for _, path := range []string{"/api/placeholder/abc/10", "/api/placeholder/0/10", "/api/placeholder/10/99999"} {
		if w := s.do(http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", path, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{}, feed.Options{})

	w := s.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" || health["version"] != "test" {
		t.Errorf("Unexpected health response: %v", health)
	}
	if health["podcasts"] != float64(0) {
		t.Errorf("Expected 0 podcasts, got %v", health["podcasts"])
	}
	if health["library_duration"] != "0:00" {
		t.Errorf("Expected empty library duration '0:00', got %v", health["library_duration"])
	}

	subscribe(t, s)
	w = s.do(http.MethodGet, "/health", "")
	health = nil
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["podcasts"] != float64(1) || health["episodes"] != float64(2) {
		t.Errorf("Expected 1 podcast with 2 episodes, got %v", health)
	}
	if health["library_duration"] != "1:30" {
		t.Errorf("Expected library duration '1:30', got %v", health["library_duration"])
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	s := newTestServer(t, Options{}, feed.Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("Expected request id 'abc-123', got '%s'", got)
	}
}
