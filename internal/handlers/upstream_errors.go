package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/recipebook/internal/discussion"
	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/upstream"
)

// writeUpstreamError maps errors from the backends and the discussion
// service onto the API error envelope. Client errors from a backend keep
// their status; server errors become 502.
func writeUpstreamError(w http.ResponseWriter, requestID string, err error) {
	var se *upstream.StatusError
	switch {
	case errors.As(err, &se):
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Status)
		}
		switch {
		case se.Status == http.StatusBadRequest, se.Status == http.StatusUnprocessableEntity:
			api.BadRequest(w, "INVALID_REQUEST", msg, requestID, nil)
		case se.Status == http.StatusUnauthorized:
			api.Unauthorized(w, "UNAUTHORIZED", msg, requestID)
		case se.Status == http.StatusForbidden:
			api.Forbidden(w, "FORBIDDEN", msg, requestID)
		case se.Status == http.StatusNotFound:
			api.NotFound(w, "NOT_FOUND", msg, requestID)
		case se.Status == http.StatusConflict:
			api.Conflict(w, "CONFLICT", msg, requestID, nil)
		case se.Status == http.StatusTooManyRequests:
			api.RateLimited(w, "RATE_LIMITED", msg, requestID, nil)
		case se.Status < http.StatusInternalServerError:
			api.WriteError(w, se.Status, "UPSTREAM_REJECTED", msg, requestID, nil)
		default:
			api.BadGateway(w, "Upstream error", requestID)
		}
	case errors.Is(err, upstream.ErrUnavailable):
		api.Unavailable(w, "Upstream temporarily unavailable", requestID)
	case errors.Is(err, context.DeadlineExceeded):
		api.WriteError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "Upstream timed out", requestID, nil)
	case errors.Is(err, upstream.ErrPasswordMismatch):
		api.BadRequest(w, "PASSWORD_MISMATCH", err.Error(), requestID, nil)
	case errors.Is(err, discussion.ErrEmptyText):
		api.BadRequest(w, "EMPTY_TEXT", err.Error(), requestID, nil)
	case errors.Is(err, discussion.ErrTextTooLong):
		api.BadRequest(w, "TEXT_TOO_LONG", err.Error(), requestID, map[string]any{"max_length": discussion.MaxTextLength})
	default:
		api.BadGateway(w, "Upstream error", requestID)
	}
}
