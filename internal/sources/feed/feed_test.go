package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bakkerme/freegame-alerts/internal/classify"
	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/mmcdole/gofeed"
)

const giveawayFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Giveaways</title>
    <link>https://giveaways.example.com</link>
    <description>Free games</description>
    <item>
      <title>Space Drifter (GOG) Giveaway</title>
      <link>https://giveaways.example.com/space-drifter</link>
      <guid>gw-101</guid>
      <enclosure url="https://giveaways.example.com/img/101.jpg" type="image/jpeg" length="1000"/>
    </item>
    <item>
      <link>https://giveaways.example.com/untitled</link>
    </item>
  </channel>
</rss>`

func TestFetchNormalizesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(giveawayFeed))
	}))
	defer server.Close()

	platform := core.Platform("giveaways")
	adapter := New(core.PlatformConfig{ID: platform, URL: server.URL}, server.Client(), "test")
	items, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "gw-101" || items[0].Platform != platform {
		t.Fatalf("unexpected first item: %#v", items[0])
	}
	if items[0].ThumbnailURL != "https://giveaways.example.com/img/101.jpg" {
		t.Fatalf("unexpected thumbnail %q", items[0].ThumbnailURL)
	}
	if items[1].ID != "https://giveaways.example.com/untitled" || items[1].Title != core.UnknownTitle {
		t.Fatalf("expected link id and placeholder title, got %#v", items[1])
	}
	for _, item := range items {
		if !classify.IsFree(item.RawPromotions) {
			t.Fatalf("expected feed entry %s to be free", item.ID)
		}
	}
}

func TestFetchRejectsNonFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	defer server.Close()

	adapter := New(core.PlatformConfig{ID: "giveaways", URL: server.URL}, server.Client(), "")
	_, err := adapter.Fetch(context.Background())
	var fetchErr *core.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestNormalizeImageFromBody(t *testing.T) {
	items, err := Normalize("giveaways", &gofeed.Feed{Items: []*gofeed.Item{{
		GUID:        "gw-7",
		Title:       "Quiet Harbor",
		Description: `<p><img src="https://cdn.example.com/harbor.jpg"> Free on Steam</p>`,
	}}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if items[0].ThumbnailURL != "https://cdn.example.com/harbor.jpg" {
		t.Fatalf("unexpected thumbnail %q", items[0].ThumbnailURL)
	}
}

func TestNormalizeMissingIdentity(t *testing.T) {
	_, err := Normalize("giveaways", &gofeed.Feed{Items: []*gofeed.Item{{Title: "No id"}}})
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
