package caches

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// DefaultExpiredDuration the default expired duration
	DefaultExpiredDuration = 24 * time.Hour

	// DefaultExpiredTaskTimer is the default duration of the expired task timer
	DefaultExpiredTaskTimer = 10 * time.Minute
)

// Key returns the cache key of a request: its absolute URL with the host lower-cased
// and the query string and fragment dropped, so tracking parameters added by link
// previews do not fragment the cache.
//
// The host is taken from r.Host when set, which is the public host for requests
// rewritten by a reverse proxy, and the scheme from X-Forwarded-Proto when present.
func Key(r http.Request) string {
	u := url.URL{
		Scheme:  r.URL.Scheme,
		Host:    r.Host,
		Path:    r.URL.Path,
		RawPath: r.URL.RawPath,
	}

	if u.Host == "" {
		u.Host = r.URL.Host
	}
	u.Host = strings.ToLower(u.Host)

	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		u.Scheme = proto
	}

	if u.Scheme == "" {
		if r.TLS != nil {
			u.Scheme = "https"
		} else {
			u.Scheme = "http"
		}
	}

	return u.String()
}
