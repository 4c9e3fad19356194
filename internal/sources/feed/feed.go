// Package feed treats every entry of a giveaway RSS/Atom feed as an active
// free offer.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/bakkerme/freegame-alerts/internal/sources"
	"github.com/mmcdole/gofeed"
)

// activeOffer is the promotions document attached to every feed entry.
var activeOffer = []byte(`{"offers":[{"source":"feed"}]}`)

type Adapter struct {
	platform core.Platform
	url      string
	parser   *gofeed.Parser
}

var _ sources.Adapter = (*Adapter)(nil)

func New(cfg core.PlatformConfig, client *http.Client, userAgent string) *Adapter {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent
	return &Adapter{platform: cfg.ID, url: cfg.URL, parser: parser}
}

func (a *Adapter) Platform() core.Platform {
	return a.platform
}

func (a *Adapter) Fetch(ctx context.Context) ([]core.ItemDescriptor, error) {
	parsed, err := a.parser.ParseURLWithContext(a.url, ctx)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, core.Malformed(a.platform, "unrecognized feed")
		}
		return nil, core.NewFetchError(a.platform, fmt.Errorf("parse feed: %w", err))
	}
	return Normalize(a.platform, parsed)
}

// Normalize converts parsed feed entries into descriptors.
func Normalize(platform core.Platform, parsed *gofeed.Feed) ([]core.ItemDescriptor, error) {
	if parsed == nil {
		return nil, core.Malformed(platform, "empty feed")
	}
	items := make([]core.ItemDescriptor, 0, len(parsed.Items))
	for i, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		id := strings.TrimSpace(entry.GUID)
		if id == "" {
			id = strings.TrimSpace(entry.Link)
		}
		if id == "" {
			return nil, core.Malformed(platform, fmt.Sprintf("entry %d has no guid or link", i))
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = core.UnknownTitle
		}
		items = append(items, core.ItemDescriptor{
			ID:            id,
			Title:         title,
			Platform:      platform,
			RawPromotions: activeOffer,
			ThumbnailURL:  imageOf(entry),
			URL:           entry.Link,
		})
	}
	return items, nil
}

func imageOf(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enclosure := range entry.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	if src := firstImageSrc(entry.Content); src != "" {
		return src
	}
	return firstImageSrc(entry.Description)
}
