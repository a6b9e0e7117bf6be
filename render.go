package sardedge

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const descriptionLimit = 160

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five HTML-unsafe characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// page holds the values interpolated into a pre-rendered novel document.
type page struct {
	novel     *Novel
	canonical string
	siteName  string
}

type jsonLDPerson struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type jsonLDBook struct {
	Context       string        `json:"@context"`
	Type          string        `json:"@type"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Author        *jsonLDPerson `json:"author,omitempty"`
	Image         string        `json:"image,omitempty"`
	DatePublished string        `json:"datePublished,omitempty"`
	URL           string        `json:"url"`
	InLanguage    string        `json:"inLanguage"`
}

// truncate cuts s to at most limit runes, ending with an ellipsis when shortened.
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

func (p page) jsonLD() ([]byte, error) {
	book := jsonLDBook{
		Context:       "https://schema.org",
		Type:          "Book",
		Name:          p.novel.Title,
		Description:   p.novel.Summary,
		Image:         p.novel.CoverImageURL,
		DatePublished: p.novel.CreatedAt,
		URL:           p.canonical,
		InLanguage:    "ar",
	}
	if p.novel.Author.DisplayName != "" {
		book.Author = &jsonLDPerson{Type: "Person", Name: p.novel.Author.DisplayName}
	}

	// json.Marshal escapes <, > and & so the block cannot close its script element.
	return json.Marshal(book)
}

func meta(b *strings.Builder, attr, key, value string) {
	b.WriteString(`<meta `)
	b.WriteString(attr)
	b.WriteString(`="`)
	b.WriteString(key)
	b.WriteString(`" content="`)
	b.WriteString(value)
	b.WriteString("\">\n")
}

// render produces the static document served to crawlers.
func (p page) render() ([]byte, error) {
	ld, err := p.jsonLD()
	if err != nil {
		return nil, err
	}

	title := EscapeHTML(p.novel.Title)
	description := EscapeHTML(truncate(p.novel.Summary, descriptionLimit))
	author := EscapeHTML(p.novel.Author.DisplayName)
	summary := EscapeHTML(p.novel.Summary)
	canonical := EscapeHTML(p.canonical)
	cover := EscapeHTML(p.novel.CoverImageURL)
	site := EscapeHTML(p.siteName)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"ar\" dir=\"rtl\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>" + title + " - " + site + "</title>\n")
	meta(&b, "name", "description", description)
	if author != "" {
		meta(&b, "name", "author", author)
	}
	b.WriteString("<link rel=\"canonical\" href=\"" + canonical + "\">\n")

	meta(&b, "property", "og:type", "book")
	meta(&b, "property", "og:site_name", site)
	meta(&b, "property", "og:title", title)
	meta(&b, "property", "og:description", description)
	meta(&b, "property", "og:url", canonical)
	meta(&b, "property", "og:locale", "ar_AR")
	if cover != "" {
		meta(&b, "property", "og:image", cover)
		meta(&b, "name", "twitter:card", "summary_large_image")
	} else {
		meta(&b, "name", "twitter:card", "summary")
	}
	meta(&b, "name", "twitter:title", title)
	meta(&b, "name", "twitter:description", description)
	if cover != "" {
		meta(&b, "name", "twitter:image", cover)
	}

	b.WriteString("<script type=\"application/ld+json\">")
	b.Write(ld)
	b.WriteString("</script>\n")
	b.WriteString("</head>\n<body>\n<main>\n")
	b.WriteString("<h1>" + title + "</h1>\n")
	if author != "" {
		b.WriteString("<p>" + author + "</p>\n")
	}
	if cover != "" {
		b.WriteString("<img src=\"" + cover + "\" alt=\"" + title + "\">\n")
	}
	if summary != "" {
		b.WriteString("<p>" + summary + "</p>\n")
	}
	b.WriteString("<a href=\"" + canonical + "\">" + title + "</a>\n")
	b.WriteString("</main>\n</body>\n</html>\n")

	return []byte(b.String()), nil
}
