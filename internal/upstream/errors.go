package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrUnavailable is returned while the circuit breaker of an upstream is
// open, or half-open and already probing.
var ErrUnavailable = errors.New("upstream unavailable")

// ErrPasswordMismatch is returned before any call when the new password and
// its confirmation differ.
var ErrPasswordMismatch = errors.New("new password and confirmation do not match")

// StatusError is a non-2xx answer from an upstream.
type StatusError struct {
	Upstream string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Upstream, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Upstream, e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

func IsForbidden(err error) bool { return StatusOf(err) == http.StatusForbidden }

// errorBody covers both backends: the auth service answers
// {"timestamp","message","details"} and the recipe service
// {"statusCode","message","error"} where message may be a list.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
}

// maxRawMessage bounds, in bytes, a non-JSON error body copied into a
// StatusError.
const maxRawMessage = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return truncate(strings.TrimSpace(string(body)), maxRawMessage)
	}
	var msg string
	if err := json.Unmarshal(eb.Message, &msg); err == nil && msg != "" {
		return msg
	}
	var msgs []string
	if err := json.Unmarshal(eb.Message, &msgs); err == nil && len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	if eb.Error != "" {
		return eb.Error
	}
	return eb.Details
}
