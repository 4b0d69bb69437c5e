package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mmcdole/gofeed"
)

var (
	ErrFeedURLRequired = errors.New("Feed URL is required")
	ErrInvalidURL      = errors.New("Invalid URL format")
	ErrInvalidAction   = errors.New(`Invalid action. Use "validate" or "parse"`)
	ErrRequestTimeout  = errors.New("Request timeout")
	ErrValidateTimeout = errors.New("Validation timeout")
)

// IsClientError reports whether err was caused by the request input and
// was raised before any network access.
func IsClientError(err error) bool {
	return errors.Is(err, ErrFeedURLRequired) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidAction)
}

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindNotFound
	KindInvalidFormat
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindInvalidFormat:
		return "invalid_format"
	default:
		return "unknown"
	}
}

// Error is a feed fetch or parse failure with a user-facing message.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "RSS feed took too long to load. Please try again later."
	case KindNotFound:
		return "RSS feed URL not found. Please check the URL and try again."
	case KindInvalidFormat:
		return "Invalid RSS feed format. Please check if this is a valid podcast RSS feed."
	default:
		if e.Err == nil {
			return "Failed to parse RSS feed: Unknown error"
		}
		return fmt.Sprintf("Failed to parse RSS feed: %s", e.Err.Error())
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classifyError wraps err into an *Error of the matching kind.
func classifyError(err error) *Error {
	var feedErr *Error
	if errors.As(err, &feedErr) {
		return feedErr
	}

	return &Error{Kind: errorKind(err), Err: err}
}

func errorKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindNotFound
	}

	var syntaxErr *xml.SyntaxError
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) || errors.As(err, &syntaxErr) {
		return KindInvalidFormat
	}

	// Some transports only surface the cause in the message text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "no such host"):
		return KindNotFound
	}

	return KindUnknown
}
