package sardedge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/dgduncan/sard-edge/caches"
)

const (
	headerCacheControl = "Cache-Control"
	headerContentType  = "Content-Type"
	headerRobotsTag    = "X-Robots-Tag"
	headerRenderedBy   = "X-Rendered-By"

	contentTypeHTML = "text/html; charset=utf-8"
	robotsIndex     = "index, follow"
)

// Responder implements http.RoundTripper and pre-renders novel detail pages for
// crawlers. Every other request is handed to the wrapped RoundTripper untouched.
//
// Requests are resolved in order:
// 1. Anything that is not /novel/{slug} passes through.
// 2. Anything whose User-Agent is not a known crawler passes through.
// 3. A cached rendering of the URL is served as is.
// 4. Otherwise the novel metadata is fetched, rendered, cached and returned.
//
// If step 4 fails for any reason the request passes through as well.
type Responder struct {
	Wrapped http.RoundTripper

	cache    Cache
	crawlers *CrawlerMatcher
	logger   *slog.Logger
	now      func() time.Time

	c Config
}

// RoundTrip implements http.RoundTripper.
func (c *Responder) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	slug, ok := novelSlug(r.URL.Path)
	if !ok {
		return c.passthrough(r, reasonPath)
	}

	if !c.crawlers.Match(r.UserAgent()) {
		return c.passthrough(r, reasonUserAgent)
	}

	if r.Method != http.MethodGet {
		return c.passthrough(r, reasonMethod)
	}

	key := caches.Key(*r)

	if resp, hit := c.lookup(ctx, r, key); hit {
		c.logger.DebugContext(ctx, "serving cached page", "url", key, "slug", slug)
		c.c.Metrics.observe(OutcomeCacheHit, reasonNone)
		return resp, nil
	}

	resp, err := c.render(ctx, r, slug, key)
	if err != nil {
		c.logger.ErrorContext(ctx, "pre-render failed, falling back to origin", "url", key, "slug", slug, "error", err)
		c.c.Metrics.observe(OutcomeRenderFailed, reasonNone)
		return c.Wrapped.RoundTrip(r)
	}

	c.c.Metrics.observe(OutcomeRendered, reasonNone)
	return resp, nil
}

func (c *Responder) passthrough(r *http.Request, reason string) (*http.Response, error) {
	c.c.Metrics.observe(OutcomePassthrough, reason)
	return c.Wrapped.RoundTrip(r)
}

// lookup replays a stored page. Any cache error is a miss.
func (c *Responder) lookup(ctx context.Context, r *http.Request, key string) (*http.Response, bool) {
	item, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, caches.ErrNoCacheItem) && !errors.Is(err, caches.ErrCacheItemExpired) {
			c.logger.WarnContext(ctx, "error reading cache", "url", key, "error", err)
		} else {
			c.logger.DebugContext(ctx, "cache item not found", "url", key)
		}
		return nil, false
	}

	if item.Expired(c.now()) {
		c.logger.DebugContext(ctx, "cache item expired", "url", key, "expiration", item.Expiration.Format(time.RFC3339))
		return nil, false
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(item.Response)), r)
	if err != nil {
		c.logger.WarnContext(ctx, "unreadable cache item", "url", key, "error", err)
		return nil, false
	}

	return resp, true
}

func (c *Responder) render(ctx context.Context, r *http.Request, slug, key string) (*http.Response, error) {
	start := time.Now()
	novel, err := fetchNovel(ctx, c.c.HTTPClient, c.c.APIURL, slug)
	c.c.Metrics.observeFetch(start, err)
	if err != nil {
		return nil, &RenderError{Slug: slug, Err: err}
	}

	body, err := page{
		novel:     novel,
		canonical: c.canonicalURL(r, slug),
		siteName:  c.c.SiteName,
	}.render()
	if err != nil {
		return nil, &RenderError{Slug: slug, Err: err}
	}

	resp := c.newResponse(r, body)

	// DumpResponse drains the body and puts an equivalent reader back.
	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, &RenderError{Slug: slug, Err: err}
	}

	expiration := c.now().UTC().Add(c.c.CacheTTL)
	c.logger.DebugContext(ctx, "caching rendered page", "url", key, "slug", slug, "expiration", expiration.Format(time.RFC3339))
	if err := c.cache.Set(ctx, key, &CacheItem{
		Response:   dump,
		Expiration: expiration,
	}); err != nil {
		c.logger.WarnContext(ctx, "error caching rendered page", "url", key, "error", err)
	}

	return resp, nil
}

func (c *Responder) newResponse(r *http.Request, body []byte) *http.Response {
	h := make(http.Header)
	h.Set(headerContentType, contentTypeHTML)
	h.Set(headerCacheControl, fmt.Sprintf("public, max-age=%d", int64(c.c.CacheTTL.Seconds())))
	h.Set(headerRobotsTag, robotsIndex)
	h.Set(headerRenderedBy, c.c.RenderedBy)

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       r,
	}
}

func (c *Responder) canonicalURL(r *http.Request, slug string) string {
	base := strings.TrimRight(c.c.SiteURL, "/")
	if base == "" {
		u, err := url.Parse(caches.Key(*r))
		if err == nil {
			base = u.Scheme + "://" + u.Host
		}
	}
	return base + "/novel/" + url.PathEscape(slug)
}

// New creates a transport middleware that pre-renders novel pages for crawlers and
// caches the result in the given Cache.
//
// If opts is nil DefaultConfig is used; zero fields of opts are taken from it.
// If the 'now' function is nil, time.Now will be used as the default time provider.
// If the 'logger' is nil, a no-op logger writing to io.Discard will be used.
// A nil RoundTripper passed to the returned function means http.DefaultTransport.
func New(
	cache Cache,
	opts *Config,
	now func() time.Time,
	logger *slog.Logger,
) func(http.RoundTripper) http.RoundTripper {
	nowFunc := now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := Config{}
	if opts == nil {
		c = DefaultConfig()
	} else {
		c = opts.withDefaults()
	}

	crawlers := NewCrawlerMatcher(c.Crawlers)

	return func(rt http.RoundTripper) http.RoundTripper {
		if rt == nil {
			rt = http.DefaultTransport
		}
		return &Responder{
			Wrapped:  rt,
			cache:    cache,
			crawlers: crawlers,
			logger:   logger,
			now:      nowFunc,
			c:        c,
		}
	}
}
