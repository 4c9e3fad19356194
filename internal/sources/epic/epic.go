// Package epic reads the Epic Games Store free-games promotion feed.
package epic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/bakkerme/freegame-alerts/internal/sources"
	"github.com/tidwall/gjson"
)

const (
	elementsPath   = "data.Catalog.searchStore.elements"
	storePageBase  = "https://store.epicgames.com/p/"
	thumbnailImage = "Thumbnail"
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
		platform = core.PlatformEpicGames
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

// Parse extracts catalog elements from a freeGamesPromotions response. Either
// every element is returned or the response is rejected as malformed.
func Parse(platform core.Platform, body []byte) ([]core.ItemDescriptor, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.Malformed(platform, "invalid json")
	}
	elements := gjson.GetBytes(body, elementsPath)
	if !elements.IsArray() {
		return nil, core.Malformed(platform, "missing "+elementsPath)
	}

	raw := elements.Array()
	items := make([]core.ItemDescriptor, 0, len(raw))
	for i, element := range raw {
		if !element.IsObject() {
			return nil, core.Malformed(platform, fmt.Sprintf("element %d is not an object", i))
		}
		id, ok := sources.RecordID(element.Get("id"))
		if !ok {
			return nil, core.Malformed(platform, fmt.Sprintf("element %d has no usable id", i))
		}
		title := strings.TrimSpace(element.Get("title").String())
		if title == "" {
			title = core.UnknownTitle
		}

		item := core.ItemDescriptor{
			ID:           id,
			Title:        title,
			Platform:     platform,
			ThumbnailURL: thumbnail(element),
			URL:          storeURL(element),
		}
		if promotions := element.Get("promotions"); promotions.Exists() {
			item.RawPromotions = []byte(promotions.Raw)
		}
		items = append(items, item)
	}
	return items, nil
}

func thumbnail(element gjson.Result) string {
	url := ""
	element.Get("keyImages").ForEach(func(_, image gjson.Result) bool {
		if image.Get("type").String() == thumbnailImage {
			url = image.Get("url").String()
			return url == ""
		}
		return true
	})
	return url
}

func storeURL(element gjson.Result) string {
	slug := element.Get("productSlug").String()
	if slug == "" {
		slug = element.Get("catalogNs.mappings.0.pageSlug").String()
	}
	slug = strings.TrimSuffix(strings.TrimSpace(slug), "/home")
	if slug == "" {
		return ""
	}
	return storePageBase + slug
}
