package sardedge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrNovelUnavailable is returned when the origin API answers with a non-200 status.
	ErrNovelUnavailable = errors.New("novel metadata unavailable")

	// ErrIncompleteNovel is returned when the metadata has no title to render.
	ErrIncompleteNovel = errors.New("novel metadata incomplete")
)

// maxNovelBody bounds how much of an API response is decoded.
const maxNovelBody = 1 << 20

// Novel is the subset of the origin API's novel resource needed for pre-rendering.
type Novel struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Author        Author `json:"author"`
	CoverImageURL string `json:"coverImageUrl"`
	CreatedAt     string `json:"createdAt"`
}

type Author struct {
	DisplayName string `json:"displayName"`
}

// RenderError wraps any failure on the render path. The responder always recovers
// from it by passing the request through to the origin.
type RenderError struct {
	Slug string
	Err  error
}

func (re *RenderError) Error() string {
	return fmt.Sprintf("render novel %q: %v", re.Slug, re.Err)
}

func (re *RenderError) Unwrap() error {
	return re.Err
}

// novelURL builds {apiURL}/api/novel/{slug}.
func novelURL(apiURL, slug string) string {
	return strings.TrimRight(apiURL, "/") + "/api/novel/" + url.PathEscape(slug)
}

// fetchNovel makes a single GET to the origin API. No retries.
func fetchNovel(ctx context.Context, client *http.Client, apiURL, slug string) (*Novel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, novelURL(apiURL, slug), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrNovelUnavailable, resp.StatusCode)
	}

	var n Novel
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxNovelBody)).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode novel: %w", err)
	}

	if strings.TrimSpace(n.Title) == "" {
		return nil, ErrIncompleteNovel
	}

	return &n, nil
}
