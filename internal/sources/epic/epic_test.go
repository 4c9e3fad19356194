package epic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bakkerme/freegame-alerts/internal/classify"
	"github.com/bakkerme/freegame-alerts/internal/core"
)

const sampleResponse = `{
  "data": {
    "Catalog": {
      "searchStore": {
        "elements": [
          {
            "title": "Mystery Adventure",
            "id": "a1b2",
            "productSlug": "mystery-adventure",
            "keyImages": [
              {"type": "OfferImageWide", "url": "https://cdn.example.com/wide.jpg"},
              {"type": "Thumbnail", "url": "https://cdn.example.com/thumb.jpg"}
            ],
            "promotions": {
              "promotionalOffers": [
                {"promotionalOffers": [{"startDate": "2025-01-02T16:00:00.000Z", "endDate": "2025-01-09T16:00:00.000Z"}]}
              ],
              "upcomingPromotionalOffers": []
            },
            "unknownField": {"ignored": true}
          },
          {
            "id": "c3d4",
            "catalogNs": {"mappings": [{"pageSlug": "next-week"}]},
            "promotions": null
          }
        ]
      }
    }
  }
}`

func TestParseExtractsElements(t *testing.T) {
	items, err := Parse(core.PlatformEpicGames, []byte(sampleResponse))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "a1b2" || first.Title != "Mystery Adventure" {
		t.Fatalf("unexpected first item: %#v", first)
	}
	if first.Platform != core.PlatformEpicGames {
		t.Fatalf("expected platform to be set by adapter, got %q", first.Platform)
	}
	if first.ThumbnailURL != "https://cdn.example.com/thumb.jpg" {
		t.Fatalf("unexpected thumbnail: %s", first.ThumbnailURL)
	}
	if first.URL != "https://store.epicgames.com/p/mystery-adventure" {
		t.Fatalf("unexpected url: %s", first.URL)
	}
	if !classify.IsFree(first.RawPromotions) {
		t.Fatalf("expected first item promotions to classify as free")
	}

	second := items[1]
	if second.Title != core.UnknownTitle {
		t.Fatalf("expected placeholder title, got %q", second.Title)
	}
	if second.URL != "https://store.epicgames.com/p/next-week" {
		t.Fatalf("unexpected fallback url: %s", second.URL)
	}
	if classify.IsFree(second.RawPromotions) {
		t.Fatalf("expected null promotions to classify as not free")
	}
}

func TestParseRejectsMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"not json":       `<html></html>`,
		"missing path":   `{"data":{"Catalog":{}}}`,
		"path not array": `{"data":{"Catalog":{"searchStore":{"elements":{}}}}}`,
		"element no id":  `{"data":{"Catalog":{"searchStore":{"elements":[{"id":"x"},{"title":"no id"}]}}}}`,
		"element scalar": `{"data":{"Catalog":{"searchStore":{"elements":["x"]}}}}`,
		"object id":      `{"data":{"Catalog":{"searchStore":{"elements":[{"id":{"x":1}}]}}}}`,
		"array id":       `{"data":{"Catalog":{"searchStore":{"elements":[{"id":["a"]}]}}}}`,
		"boolean id":     `{"data":{"Catalog":{"searchStore":{"elements":[{"id":true}]}}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			items, err := Parse(core.PlatformEpicGames, []byte(body))
			if err == nil {
				t.Fatalf("expected error, got %d items", len(items))
			}
			if items != nil {
				t.Fatalf("expected no partial results")
			}
			var fetchErr *core.FetchError
			if !errors.As(err, &fetchErr) || fetchErr.Platform != core.PlatformEpicGames {
				t.Fatalf("expected FetchError for epic, got %v", err)
			}
			if !errors.Is(err, core.ErrMalformedResponse) {
				t.Fatalf("expected malformed response error, got %v", err)
			}
		})
	}
}

func TestFetchReportsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := New(core.PlatformConfig{ID: core.PlatformEpicGames, URL: server.URL}, server.Client(), "test-agent")
	_, err := adapter.Fetch(context.Background())
	var fetchErr *core.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	adapter := New(core.PlatformConfig{URL: server.URL}, server.Client(), "freegame-alerts/test")
	items, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if gotAgent != "freegame-alerts/test" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if adapter.Platform() != core.PlatformEpicGames {
		t.Fatalf("expected default epic platform, got %q", adapter.Platform())
	}
}
