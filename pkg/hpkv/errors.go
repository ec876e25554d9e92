package hpkv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error by the HTTP status bucket it came from.
type Kind int

const (
	// KindGeneric covers failing statuses with no more specific mapping.
	KindGeneric Kind = iota
	// KindBadRequest maps 400 responses (malformed or invalid request).
	KindBadRequest
	// KindUnauthorized maps 401 responses (missing or invalid API key).
	KindUnauthorized
	// KindForbidden maps 403 responses (operation not allowed).
	KindForbidden
	// KindNotFound maps 404 responses (record does not exist).
	KindNotFound
	// KindConflict maps 409 responses (timestamp conflict).
	KindConflict
	// KindRateLimited maps 429 responses (rate limit exceeded).
	KindRateLimited
	// KindInternal maps 5xx responses, and 2xx responses whose body does not
	// match the shape the operation requires.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindInternal:
		return "internal"
	default:
		return "generic"
	}
}

// Error is the error type returned for every failing API call. StatusCode is
// the HTTP status of the response and Body the decoded JSON error body, nil
// when the body was empty or not valid JSON.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// IsNotFound reports whether err is an API error for a missing record.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsUnauthorized reports whether err is an API error for a rejected API key.
func IsUnauthorized(err error) bool { return hasKind(err, KindUnauthorized) }

// IsRateLimited reports whether err is an API error for an exceeded rate limit.
func IsRateLimited(err error) bool { return hasKind(err, KindRateLimited) }

// IsConflict reports whether err is an API error for a write conflict.
func IsConflict(err error) bool { return hasKind(err, KindConflict) }

func hasKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// classify maps a failing HTTP response onto an *Error. The body is decoded
// leniently: an empty or undecodable body only costs the specific message,
// never the classification itself.
func classify(status int, body []byte) *Error {
	var decoded map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			decoded = nil
		}
	}

	message := fmt.Sprintf("HTTP error %d", status)
	if msg, ok := decoded["error"].(string); ok && msg != "" {
		message = msg
	}

	var kind Kind
	switch {
	case status == http.StatusBadRequest:
		kind = KindBadRequest
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= http.StatusInternalServerError:
		kind = KindInternal
	default:
		kind = KindGeneric
	}

	return &Error{
		Kind:       kind,
		Message:    message,
		StatusCode: status,
		Body:       decoded,
	}
}

// formatError reports a 2xx response whose body failed shape validation for
// its operation. The contract violation is classified as internal regardless
// of the actual status code.
func formatError(status int, body map[string]any) *Error {
	return &Error{
		Kind:       KindInternal,
		Message:    "invalid response format from server",
		StatusCode: status,
		Body:       body,
	}
}
