package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/lysyi3m/podcast-player/app/podcast"
)

const (
	ActionValidate = "validate"
	ActionParse    = "parse"

	DefaultRequestTimeout  = 25 * time.Second
	DefaultValidateTimeout = 10 * time.Second
)

// FetcherInterface retrieves a raw feed document.
type FetcherInterface interface {
	Run(ctx context.Context, feedURL string) ([]byte, error)
}

var _ FetcherInterface = (*Fetcher)(nil)

type Options struct {
	RequestTimeout  time.Duration
	ValidateTimeout time.Duration
}

// Service is the feed access boundary: validate and parse behind a deadline.
type Service struct {
	fetcher         FetcherInterface
	parser          *Parser
	requestTimeout  time.Duration
	validateTimeout time.Duration
}

func NewService(fetcher FetcherInterface, parser *Parser, opts Options) *Service {
	return &Service{
		fetcher:         fetcher,
		parser:          parser,
		requestTimeout:  cmpDuration(opts.RequestTimeout, DefaultRequestTimeout),
		validateTimeout: cmpDuration(opts.ValidateTimeout, DefaultValidateTimeout),
	}
}

// Request is the decoded body of a feed boundary call. Fields stay untyped
// so that a non-string feedUrl is reported as missing rather than as a
// decoding failure.
type Request struct {
	FeedURL any `json:"feedUrl"`
	Action  any `json:"action"`
}

type ValidateResponse struct {
	IsValid bool `json:"isValid"`
}

// Handle checks the request, then runs the action under the overall request
// deadline. It returns a ValidateResponse or a *podcast.Podcast.
func (s *Service) Handle(ctx context.Context, req Request) (any, error) {
	feedURL, err := CheckFeedURL(req.FeedURL)
	if err != nil {
		return nil, err
	}

	action, _ := req.Action.(string)
	switch action {
	case ActionValidate:
		return race(ctx, s.requestTimeout, ErrRequestTimeout, func(ctx context.Context) (any, error) {
			return ValidateResponse{IsValid: s.Validate(ctx, feedURL)}, nil
		})
	case ActionParse:
		return race(ctx, s.requestTimeout, ErrRequestTimeout, func(ctx context.Context) (any, error) {
			return s.Parse(ctx, feedURL)
		})
	default:
		return nil, ErrInvalidAction
	}
}

// CheckFeedURL accepts a non-empty string that parses as an absolute URL.
func CheckFeedURL(raw any) (string, error) {
	feedURL, ok := raw.(string)
	if !ok || feedURL == "" {
		return "", ErrFeedURLRequired
	}

	u, err := url.Parse(feedURL)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return "", ErrInvalidURL
	}

	return feedURL, nil
}

// Validate reports whether the feed can be fetched and parsed within the
// validation deadline. Failures are logged, never returned.
func (s *Service) Validate(ctx context.Context, feedURL string) bool {
	_, err := race(ctx, s.validateTimeout, ErrValidateTimeout, func(ctx context.Context) (*podcast.Podcast, error) {
		return s.load(ctx, feedURL)
	})
	if err != nil {
		slog.Warn("RSS validation error", "feed_url", feedURL, "error", err)
		return false
	}
	return true
}

// Parse fetches and normalizes a feed. Errors are *Error values carrying a
// user-facing category.
func (s *Service) Parse(ctx context.Context, feedURL string) (*podcast.Podcast, error) {
	result, err := s.load(ctx, feedURL)
	if err != nil {
		feedErr := classifyError(err)
		slog.Error("Error parsing RSS feed", "feed_url", feedURL, "kind", feedErr.Kind.String(), "error", err)
		return nil, feedErr
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, feedURL string) (*podcast.Podcast, error) {
	data, err := s.fetcher.Run(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	result, err := s.parser.Run(data, feedURL)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// race runs fn and returns its outcome, or timeoutErr once the deadline
// passes. The losing fn sees a cancelled context and its result is dropped.
func race[T any](ctx context.Context, timeout time.Duration, timeoutErr error, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, timeoutErr
		}
		return zero, fmt.Errorf("request cancelled: %w", ctx.Err())
	}
}

func cmpDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
