package retry

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/google/go-github/v70/github"
	"github.com/xanzy/go-gitlab"
)

// IsTransient reports whether err is worth retrying: rate limits, server errors and transport failures.
// Validation and other client errors are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response == nil {
			return false
		}
		code := ghErr.Response.StatusCode
		// 一次レート制限を使い切った403はヘッダーで判定する
		return isTransientStatus(code) ||
			(code == http.StatusForbidden && ghErr.Response.Header.Get("X-RateLimit-Remaining") == "0")
	}

	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) {
		if glErr.Response == nil {
			return false
		}
		return isTransientStatus(glErr.Response.StatusCode)
	}

	var netErr *url.Error
	return errors.As(err, &netErr)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}
