package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aluiziolira/go-scrape-channels/parser"
)

// maxBodyExcerpt bounds the response body kept in a BadStatusError.
const maxBodyExcerpt = 200

// BootstrapError reports a failed cookie warm-up. It is never fatal.
type BootstrapError struct {
	URL string
	Err error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap %s: %v", e.URL, e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// BadStatusError indicates the API answered with something other than 200.
type BadStatusError struct {
	StatusCode int
	Body       string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps network failures, timeouts and undecodable payloads.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Errorf("transport: %w", e.Err).Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newBadStatus(code int, body []byte) *BadStatusError {
	excerpt := body
	if len(excerpt) > maxBodyExcerpt {
		excerpt = excerpt[:maxBodyExcerpt]
	}
	return &BadStatusError{StatusCode: code, Body: string(excerpt)}
}

// ClassifyError returns the metric label for a fetch error.
func ClassifyError(err error) string {
	if err == nil {
		return "unknown"
	}

	var status *BadStatusError
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusForbidden:
			return "forbidden"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		default:
			return "bad_status"
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	if errors.Is(err, parser.ErrMalformed) || errors.Is(err, parser.ErrNotObject) ||
		errors.Is(err, parser.ErrNotArray) || errors.Is(err, parser.ErrRecordNotObject) {
		return "parse"
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		return "transport"
	}
	return "other"
}
