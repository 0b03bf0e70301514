package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/yourorg/opentoclose-go/apierr"
)

// mapError turns a non-success response into the matching apierr kind.
// A 2xx that carries HTML instead of JSON is also an error: the vendor
// serves login pages and error pages with status 200.
func mapError(method, endpoint string, status int, header http.Header, raw []byte) error {
	body := parseBody(raw)

	if status == http.StatusOK || status == http.StatusCreated || status == http.StatusNoContent {
		ct := strings.ToLower(header.Get("Content-Type"))
		if !strings.Contains(ct, "text/html") {
			return nil
		}
		text := strings.ToLower(string(raw))
		base := apierr.APIError{
			StatusCode: status,
			Method:     method,
			Endpoint:   endpoint,
			Body:       Record{"content_type": ct},
		}
		if strings.Contains(text, "error occurred") || strings.Contains(text, "internal server error") {
			base.Message = fmt.Sprintf("server returned HTML error page for %s %s", method, endpoint)
			return &apierr.ServerError{APIError: base}
		}
		base.Message = fmt.Sprintf("received HTML login page instead of JSON for %s %s: check authentication", method, endpoint)
		return &apierr.AuthenticationError{APIError: base}
	}

	msg := bodyMessage(body)
	base := apierr.APIError{
		StatusCode: status,
		Method:     method,
		Endpoint:   endpoint,
		Body:       body,
	}

	switch {
	case status == http.StatusBadRequest:
		base.Message = fmt.Sprintf("bad request to %s %s: %s", method, endpoint, orDefault(msg, "invalid request"))
		return &apierr.ValidationError{APIError: base, FieldErrors: fieldErrors(body)}
	case status == http.StatusUnauthorized:
		base.Message = fmt.Sprintf("authentication failed for %s %s: %s", method, endpoint, orDefault(msg, "invalid credentials"))
		return &apierr.AuthenticationError{APIError: base}
	case status == http.StatusNotFound:
		base.Message = fmt.Sprintf("resource not found for %s %s: %s", method, endpoint, orDefault(msg, "not found"))
		return &apierr.NotFoundError{APIError: base}
	case status == http.StatusTooManyRequests:
		base.Message = fmt.Sprintf("rate limit exceeded for %s %s: %s", method, endpoint, orDefault(msg, "too many requests"))
		return &apierr.RateLimitError{APIError: base, RetryAfter: retryAfter(header)}
	case status >= 500 && status < 600:
		base.Message = fmt.Sprintf("server error for %s %s: %s", method, endpoint, orDefault(msg, "internal server error"))
		return &apierr.ServerError{APIError: base}
	}

	base.Message = fmt.Sprintf("unexpected status %d for %s %s: %s", status, method, endpoint, orDefault(msg, "unknown error"))
	return &base
}

func decodeSuccess(raw []byte, _ http.Header) (any, error) {
	if len(raw) == 0 {
		return Record{}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// keep the text around for callers instead of failing outright
		return Record{"message": string(raw), "raw_content": string(raw)}, nil
	}
	if v == nil {
		return Record{}, nil
	}
	return v, nil
}

func parseBody(raw []byte) Record {
	if len(raw) == 0 {
		return Record{}
	}
	var m Record
	if err := json.Unmarshal(raw, &m); err != nil {
		return Record{"message": string(raw)}
	}
	return m
}

func bodyMessage(body Record) string {
	if s, ok := body["message"].(string); ok {
		return s
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func fieldErrors(body Record) map[string]any {
	for _, key := range []string{"errors", "field_errors"} {
		if m, ok := body[key].(map[string]any); ok {
			return m
		}
	}
	return nil
}

func retryAfter(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
