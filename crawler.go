package sardedge

import (
	"regexp"
	"strings"
)

var novelPath = regexp.MustCompile(`^/novel/([^/]+)$`)

// CrawlerMatcher reports whether a User-Agent belongs to a known crawler.
type CrawlerMatcher struct {
	pattern *regexp.Regexp
}

// NewCrawlerMatcher compiles the allow-list into a single case-insensitive pattern.
// Blank entries are ignored; an empty list matches nothing.
func NewCrawlerMatcher(signatures []string) *CrawlerMatcher {
	quoted := make([]string, 0, len(signatures))
	for _, s := range signatures {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(s)))
	}

	if len(quoted) == 0 {
		return &CrawlerMatcher{}
	}

	return &CrawlerMatcher{
		pattern: regexp.MustCompile(`(?i)` + strings.Join(quoted, "|")),
	}
}

// Match reports whether userAgent contains one of the crawler signatures.
func (m *CrawlerMatcher) Match(userAgent string) bool {
	if m == nil || m.pattern == nil || userAgent == "" {
		return false
	}
	return m.pattern.MatchString(userAgent)
}

// novelSlug returns the slug of a /novel/{slug} path.
func novelSlug(path string) (string, bool) {
	m := novelPath.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
