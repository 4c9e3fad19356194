// Package discord posts alerts to a Discord channel through the bot REST API.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/notify"
)

const (
	DefaultBaseURL = "https://discord.com/api/v10"
	footerName     = "Free Game Monitor"
)

type Notifier struct {
	token     string
	channelID string
	baseURL   string
	footerURL string
	client    *http.Client
}

var _ notify.Notifier = (*Notifier)(nil)

type Option func(*Notifier)

// WithBaseURL points the notifier at another API root (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(n *Notifier) {
		if baseURL != "" {
			n.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithFooterIcon sets the icon shown next to the tracked-count footer.
func WithFooterIcon(iconURL string) Option {
	return func(n *Notifier) { n.footerURL = iconURL }
}

func New(token, channelID string, client *http.Client, opts ...Option) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	n := &Notifier{
		token:     token,
		channelID: channelID,
		baseURL:   DefaultBaseURL,
		client:    client,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields"`
	Footer      embedFooter  `json:"footer"`
	Thumbnail   *embedImage  `json:"thumbnail,omitempty"`
}

type messagePayload struct {
	Embeds []embed `json:"embeds"`
}

// buildEmbed renders alert as a Discord embed.
func buildEmbed(alert notify.Alert, footerIcon string) embed {
	e := embed{
		Title:       fmt.Sprintf("FREE GAME ALERT - %s", alert.PlatformName),
		Description: fmt.Sprintf("**%s**", alert.Title),
		URL:         alert.URL,
		Color:       alert.Color,
		Timestamp:   alert.DetectedAt.UTC().Format(time.RFC3339),
		Fields: []embedField{
			{Name: "Price", Value: fmt.Sprintf("**%s**", alert.Price), Inline: true},
			{Name: "Duration", Value: alert.Duration, Inline: true},
			{Name: "Platform", Value: alert.PlatformName, Inline: true},
		},
		Footer: embedFooter{
			Text:    fmt.Sprintf("%s • %d games tracked", footerName, alert.TrackedCount),
			IconURL: footerIcon,
		},
	}
	if alert.ThumbnailURL != "" {
		e.Thumbnail = &embedImage{URL: alert.ThumbnailURL}
	}
	return e
}

func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	if n.token == "" || n.channelID == "" {
		return fmt.Errorf("discord notifier misconfigured")
	}

	body, err := json.Marshal(messagePayload{Embeds: []embed{buildEmbed(alert, n.footerURL)}})
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", n.baseURL, url.PathEscape(n.channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("discord channel %s not found", n.channelID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}
