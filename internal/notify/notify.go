// Package notify turns a newly tracked free item into an outbound alert and
// hands it to the configured notifier.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/core"
)

const (
	PriceFree     = "FREE"
	DurationLimit = "Limited Time Offer"
)

// Alert carries every field a notifier needs to render a message.
type Alert struct {
	Title        string
	ItemID       string
	Platform     core.Platform
	PlatformName string
	Price        string
	Duration     string
	TrackedCount int
	ThumbnailURL string
	URL          string
	Color        int
	DetectedAt   time.Time
}

// Notifier delivers a rendered alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// Counter reports how many items are tracked, for the alert footer.
type Counter interface {
	Size() int
}

type Gateway struct {
	notifier Notifier
	counter  Counter
	logger   *slog.Logger
	now      func() time.Time
}

func NewGateway(notifier Notifier, counter Counter, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		notifier: notifier,
		counter:  counter,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Notify builds the alert for item and sends it once. Failures, including a
// panicking notifier, come back as *core.NotifyError.
func (g *Gateway) Notify(ctx context.Context, item core.ItemDescriptor, platform core.PlatformConfig) (err error) {
	if g.notifier == nil {
		return &core.NotifyError{Platform: item.Platform, ItemID: item.ID, Cause: fmt.Errorf("notifier is not configured")}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &core.NotifyError{Platform: item.Platform, ItemID: item.ID, Cause: fmt.Errorf("notifier panic: %v", r)}
		}
	}()

	alert := g.BuildAlert(item, platform)
	if sendErr := g.notifier.Send(ctx, alert); sendErr != nil {
		return &core.NotifyError{Platform: item.Platform, ItemID: item.ID, Cause: sendErr}
	}
	g.logger.Info("alert sent", "platform", item.Platform, "item_id", item.ID, "title", alert.Title)
	return nil
}

func (g *Gateway) BuildAlert(item core.ItemDescriptor, platform core.PlatformConfig) Alert {
	title := item.Title
	if title == "" {
		title = core.UnknownTitle
	}
	tracked := 0
	if g.counter != nil {
		tracked = g.counter.Size()
	}
	detected := item.DiscoveredAt
	if detected.IsZero() {
		detected = g.now()
	}
	return Alert{
		Title:        title,
		ItemID:       item.ID,
		Platform:     item.Platform,
		PlatformName: platform.DisplayName(),
		Price:        PriceFree,
		Duration:     DurationLimit,
		TrackedCount: tracked,
		ThumbnailURL: item.ThumbnailURL,
		URL:          item.URL,
		Color:        platform.Color,
		DetectedAt:   detected,
	}
}
