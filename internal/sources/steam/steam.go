// Package steam reads the Steam storefront featured categories and turns
// specials that currently cost nothing into promotions.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/bakkerme/freegame-alerts/internal/sources"
	"github.com/tidwall/gjson"
)

const (
	specialsPath = "specials.items"
	appPageBase  = "https://store.steampowered.com/app/"
)

type Adapter struct {
	platform  core.Platform
	url       string
	client    *http.Client
	userAgent string
}

var _ sources.Adapter = (*Adapter)(nil)

func New(cfg core.PlatformConfig, client *http.Client, userAgent string) *Adapter {
	platform := cfg.ID
	if platform == "" {
		platform = core.PlatformSteam
	}
	return &Adapter{
		platform:  platform,
		url:       cfg.URL,
		client:    client,
		userAgent: userAgent,
	}
}

func (a *Adapter) Platform() core.Platform {
	return a.platform
}

func (a *Adapter) Fetch(ctx context.Context) ([]core.ItemDescriptor, error) {
	body, err := sources.GetBody(ctx, a.client, a.platform, a.url, a.userAgent)
	if err != nil {
		return nil, err
	}
	return Parse(a.platform, body)
}

// offer is the normalized promotion written for a special that is free.
type offer struct {
	DiscountPercent int    `json:"discountPercent"`
	OriginalPrice   int64  `json:"originalPrice"`
	Currency        string `json:"currency,omitempty"`
	ExpiresAt       int64  `json:"expiresAt,omitempty"`
}

type promotions struct {
	Offers []offer `json:"offers"`
}

// Parse reads featuredcategories specials. Items keep the same shape whether
// or not they are free; only the offers list differs.
func Parse(platform core.Platform, body []byte) ([]core.ItemDescriptor, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.Malformed(platform, "invalid json")
	}
	specials := gjson.GetBytes(body, specialsPath)
	if !specials.IsArray() {
		return nil, core.Malformed(platform, "missing "+specialsPath)
	}

	raw := specials.Array()
	items := make([]core.ItemDescriptor, 0, len(raw))
	for i, entry := range raw {
		if !entry.IsObject() {
			return nil, core.Malformed(platform, fmt.Sprintf("item %d is not an object", i))
		}
		id, ok := sources.RecordID(entry.Get("id"))
		if !ok {
			return nil, core.Malformed(platform, fmt.Sprintf("item %d has no usable id", i))
		}
		title := strings.TrimSpace(entry.Get("name").String())
		if title == "" {
			title = core.UnknownTitle
		}

		promo, err := json.Marshal(promotionsFor(entry))
		if err != nil {
			return nil, core.NewFetchError(platform, fmt.Errorf("encode promotions for %s: %w", id, err))
		}

		thumb := entry.Get("header_image").String()
		if thumb == "" {
			thumb = entry.Get("large_capsule_image").String()
		}

		items = append(items, core.ItemDescriptor{
			ID:            id,
			Title:         title,
			Platform:      platform,
			RawPromotions: promo,
			ThumbnailURL:  thumb,
			URL:           appPageBase + id + "/",
		})
	}
	return items, nil
}

// promotionsFor yields one offer when a normally paid item is discounted to zero.
func promotionsFor(entry gjson.Result) promotions {
	p := promotions{Offers: []offer{}}
	original := entry.Get("original_price").Int()
	final := entry.Get("final_price")
	if !entry.Get("discounted").Bool() || !final.Exists() || final.Int() != 0 || original <= 0 {
		return p
	}
	p.Offers = append(p.Offers, offer{
		DiscountPercent: int(entry.Get("discount_percent").Int()),
		OriginalPrice:   original,
		Currency:        entry.Get("currency").String(),
		ExpiresAt:       entry.Get("discount_expiration").Int(),
	})
	return p
}
