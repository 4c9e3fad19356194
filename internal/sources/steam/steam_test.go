package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bakkerme/freegame-alerts/internal/classify"
	"github.com/bakkerme/freegame-alerts/internal/core"
)

const featured = `{
  "specials": {
    "id": "cat_specials",
    "name": "Specials",
    "items": [
      {"id": 620, "name": "Portal 2", "discounted": true, "discount_percent": 100,
       "original_price": 999, "final_price": 0, "currency": "USD",
       "header_image": "https://cdn.example.com/620/header.jpg", "discount_expiration": 1735920000},
      {"id": 730, "name": "Discounted", "discounted": true, "discount_percent": 50,
       "original_price": 2000, "final_price": 1000, "large_capsule_image": "https://cdn.example.com/730.jpg"},
      {"id": 440, "name": "Always Free", "discounted": false, "original_price": 0, "final_price": 0}
    ]
  },
  "coming_soon": {"items": []}
}`

func TestParseMarksOnlyTemporarilyFreeSpecials(t *testing.T) {
	items, err := Parse(core.PlatformSteam, []byte(featured))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	want := map[string]bool{"620": true, "730": false, "440": false}
	for _, item := range items {
		if item.Platform != core.PlatformSteam {
			t.Fatalf("expected steam platform, got %q", item.Platform)
		}
		if got := classify.IsFree(item.RawPromotions); got != want[item.ID] {
			t.Fatalf("item %s: free=%v want %v (promotions=%s)", item.ID, got, want[item.ID], item.RawPromotions)
		}
	}
	if items[0].ThumbnailURL != "https://cdn.example.com/620/header.jpg" {
		t.Fatalf("unexpected thumbnail: %s", items[0].ThumbnailURL)
	}
	if items[1].ThumbnailURL != "https://cdn.example.com/730.jpg" {
		t.Fatalf("expected capsule fallback, got %s", items[1].ThumbnailURL)
	}
	if items[0].URL != "https://store.steampowered.com/app/620/" {
		t.Fatalf("unexpected url: %s", items[0].URL)
	}
}

func TestParseRejectsMissingSpecials(t *testing.T) {
	_, err := Parse(core.PlatformSteam, []byte(`{"featured_win":[]}`))
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestParseRejectsNonScalarIDs(t *testing.T) {
	for _, id := range []string{`{"x":1}`, `[620]`, `null`, `""`} {
		body := `{"specials":{"items":[{"id":` + id + `,"name":"Odd"}]}}`
		items, err := Parse(core.PlatformSteam, []byte(body))
		if !errors.Is(err, core.ErrMalformedResponse) {
			t.Fatalf("id %s: expected malformed response, got %v", id, err)
		}
		if items != nil {
			t.Fatalf("id %s: expected no partial results", id)
		}
	}
}

func TestFetchTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	adapter := New(core.PlatformConfig{URL: url}, &http.Client{}, "")
	_, err := adapter.Fetch(context.Background())
	var fetchErr *core.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Platform != core.PlatformSteam {
		t.Fatalf("unexpected platform %q", fetchErr.Platform)
	}
}
