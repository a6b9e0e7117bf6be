package sardedge

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`<script>"'&</script>`, "&lt;script&gt;&quot;&#39;&amp;&lt;/script&gt;"},
		{"&amp;", "&amp;amp;"},
		{"سرد & كتب", "سرد &amp; كتب"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeHTML(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("  short  ", 160))

	long := strings.Repeat("ح", 200)
	got := truncate(long, 160)
	assert.Equal(t, 160, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

var jsonLDBlock = regexp.MustCompile(`<script type="application/ld\+json">(.*)</script>`)

func TestRenderPage(t *testing.T) {
	t.Parallel()

	p := page{
		novel: &Novel{
			Title:         "The Lost Kingdom",
			Summary:       "A tale...",
			Author:        Author{DisplayName: "Jane Doe"},
			CoverImageURL: "https://x/y.png",
			CreatedAt:     "2024-01-01",
		},
		canonical: "https://sard.example/novel/the-lost-kingdom",
		siteName:  "سرد",
	}

	b, err := p.render()
	require.NoError(t, err)
	html := string(b)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<html lang="ar" dir="rtl">`)
	assert.Contains(t, html, "<title>The Lost Kingdom - سرد</title>")
	assert.Contains(t, html, `<meta name="description" content="A tale...">`)
	assert.Contains(t, html, `<meta property="og:image" content="https://x/y.png">`)
	assert.Contains(t, html, `<meta name="twitter:card" content="summary_large_image">`)
	assert.Contains(t, html, `<meta name="twitter:title" content="The Lost Kingdom">`)

	m := jsonLDBlock.FindStringSubmatch(html)
	require.Len(t, m, 2)

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(m[1]), &ld))
	assert.Equal(t, "https://schema.org", ld["@context"])
	assert.Equal(t, "Book", ld["@type"])
	assert.Equal(t, "The Lost Kingdom", ld["name"])
	assert.Equal(t, "2024-01-01", ld["datePublished"])
	assert.Equal(t, "ar", ld["inLanguage"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Jane Doe"}, ld["author"])
}

func TestRenderPageWithoutCover(t *testing.T) {
	t.Parallel()

	b, err := page{
		novel:     &Novel{Title: "Untitled"},
		canonical: "https://sard.example/novel/untitled",
		siteName:  "سرد",
	}.render()
	require.NoError(t, err)
	html := string(b)

	assert.NotContains(t, html, "og:image")
	assert.NotContains(t, html, "twitter:image")
	assert.NotContains(t, html, `name="author"`)
	assert.Contains(t, html, `<meta name="twitter:card" content="summary">`)
	assert.NotContains(t, html, `"author"`)
}
