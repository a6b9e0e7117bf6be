package sardedge

import (
	"net/http"
	"time"
)

const (
	defaultSiteName   = "سرد"
	defaultRenderedBy = "sard-edge"
	defaultAPITimeout = 10 * time.Second
	defaultCacheTTL   = 24 * time.Hour
)

// DefaultCrawlers is the user-agent allow-list of search engines and link-preview
// bots that receive pre-rendered pages. Entries are matched case-insensitively as
// substrings of the User-Agent header.
var DefaultCrawlers = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"applebot",
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"whatsapp",
	"telegrambot",
	"discordbot",
	"slackbot",
	"pinterest",
}

type Config struct {
	// APIURL is the base URL of the origin API. Novel metadata is read from
	// {APIURL}/api/novel/{slug}.
	APIURL string

	// SiteURL is the public base URL used for canonical and og:url links. When empty
	// the scheme and host of the incoming request are used.
	SiteURL string

	// SiteName is appended to page titles and used as og:site_name.
	SiteName string

	// RenderedBy is the value of the X-Rendered-By header on pre-rendered pages.
	RenderedBy string

	// CacheTTL is how long a rendered page stays in the edge cache. It is also
	// advertised as the Cache-Control max-age.
	CacheTTL time.Duration

	// Crawlers overrides DefaultCrawlers.
	Crawlers []string

	// HTTPClient performs the metadata fetch. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	// Metrics records responder outcomes. Nil disables metrics.
	Metrics *Metrics
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		SiteName:   defaultSiteName,
		RenderedBy: defaultRenderedBy,
		CacheTTL:   defaultCacheTTL,
		Crawlers:   DefaultCrawlers,
		HTTPClient: &http.Client{Timeout: defaultAPITimeout},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.SiteName == "" {
		c.SiteName = d.SiteName
	}
	if c.RenderedBy == "" {
		c.RenderedBy = d.RenderedBy
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if len(c.Crawlers) == 0 {
		c.Crawlers = d.Crawlers
	}
	if c.HTTPClient == nil {
		c.HTTPClient = d.HTTPClient
	}

	return c
}
