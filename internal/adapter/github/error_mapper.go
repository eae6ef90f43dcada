package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cpp-linter/cpp-linter/internal/adapter/httpx"
)

const serviceName = "github"

// MapHTTPError maps a GitHub API error response to a typed httpx.Error so
// the shared retry logic can decide what to do with it. Rate-limit headers
// are consulted for the server-requested backoff.
func MapHTTPError(statusCode int, body []byte, header http.Header) *httpx.Error {
	message := parseErrorMessage(statusCode, body)

	switch statusCode {
	case http.StatusUnauthorized:
		return &httpx.Error{
			Type:       httpx.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}

	case http.StatusForbidden, http.StatusTooManyRequests:
		// 403 with an exhausted x-ratelimit-remaining is a rate limit,
		// not an auth failure.
		if statusCode == http.StatusForbidden && !rateLimited(header) {
			return &httpx.Error{
				Type:       httpx.ErrTypeAuthentication,
				Message:    message,
				StatusCode: statusCode,
				Retryable:  false,
				Service:    serviceName,
			}
		}
		return &httpx.Error{
			Type:              httpx.ErrTypeRateLimit,
			Message:           message,
			StatusCode:        statusCode,
			Retryable:         true,
			Service:           serviceName,
			RetryAfterSeconds: retryAfterSeconds(header),
		}

	case http.StatusNotFound:
		return &httpx.Error{
			Type:       httpx.ErrTypeNotFound,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}

	case http.StatusUnprocessableEntity:
		return &httpx.Error{
			Type:       httpx.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &httpx.Error{
			Type:       httpx.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Service:    serviceName,
		}

	default:
		return &httpx.Error{
			Type:       httpx.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}
	}
}

// rateLimited reports whether the response carries an exhausted primary
// rate limit or a secondary-limit retry-after.
func rateLimited(header http.Header) bool {
	if header.Get("retry-after") != "" {
		return true
	}
	remaining, err := strconv.Atoi(header.Get("x-ratelimit-remaining"))
	return err == nil && remaining == 0
}

// retryAfterSeconds derives the server-requested wait from retry-after or
// the x-ratelimit-reset epoch. Zero means the server expressed no
// preference.
func retryAfterSeconds(header http.Header) int {
	if v := header.Get("retry-after"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return secs
		}
	}
	if v := header.Get("x-ratelimit-reset"); v != "" {
		if reset, err := strconv.ParseInt(v, 10, 64); err == nil {
			wait := time.Until(time.Unix(reset, 0))
			if wait > 0 {
				return int(wait/time.Second) + 1
			}
		}
	}
	return 0
}

// parseErrorMessage extracts a user-friendly error message from GitHub's response.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 100 {
			bodyPreview = bodyPreview[:100] + "..."
		}
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	if errResp.Message == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Field != "" {
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}
