package sardedge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNovelURL(t *testing.T) {
	assert.Equal(t, "http://api/api/novel/a-b", novelURL("http://api/", "a-b"))
	assert.Equal(t, "http://api/v2/api/novel/a%2Fb", novelURL("http://api/v2", "a/b"))
}

func TestFetchNovel(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"title":"t","summary":"s","author":{"displayName":"a"},"coverImageUrl":"c","createdAt":"2024-01-01","chapters":[1,2]}`))
	}))
	t.Cleanup(srv.Close)

	n, err := fetchNovel(context.Background(), srv.Client(), srv.URL, "t")
	require.NoError(t, err)

	assert.Equal(t, "application/json", accept)
	assert.Equal(t, &Novel{
		Title:         "t",
		Summary:       "s",
		Author:        Author{DisplayName: "a"},
		CoverImageURL: "c",
		CreatedAt:     "2024-01-01",
	}, n)
}

func TestFetchNovelErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNovelUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, wantErr: ErrNovelUnavailable},
		{name: "blank title", status: http.StatusOK, body: `{"title":"  "}`, wantErr: ErrIncompleteNovel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := fetchNovel(context.Background(), srv.Client(), srv.URL, "x")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRenderErrorUnwraps(t *testing.T) {
	err := &RenderError{Slug: "x", Err: ErrNovelUnavailable}
	assert.ErrorIs(t, err, ErrNovelUnavailable)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{APIURL: "http://api", CacheTTL: time.Hour}.withDefaults()

	assert.Equal(t, "http://api", c.APIURL)
	assert.Equal(t, time.Hour, c.CacheTTL)
	assert.Equal(t, defaultSiteName, c.SiteName)
	assert.Equal(t, defaultRenderedBy, c.RenderedBy)
	assert.Equal(t, DefaultCrawlers, c.Crawlers)
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, defaultAPITimeout, c.HTTPClient.Timeout)
}
