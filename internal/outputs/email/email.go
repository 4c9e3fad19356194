package email

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/notify"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Message struct {
	From     string
	To       string
	Subject  string
	Body     string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}

// Notifier renders alerts as Markdown, converts them to HTML and mails them.
type Notifier struct {
	sender    Sender
	from      string
	to        string
	subject   string
	converter goldmark.Markdown
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier builds an alert mailer. subject may contain one %s which is
// replaced by the item title.
func NewNotifier(sender Sender, from, to, subject string) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("email recipient is required")
	}
	if subject == "" {
		subject = "Free game: %s"
	}
	return &Notifier{
		sender:    sender,
		from:      from,
		to:        to,
		subject:   subject,
		converter: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	markdown := RenderMarkdown(alert)
	var html bytes.Buffer
	if err := n.converter.Convert([]byte(markdown), &html); err != nil {
		return fmt.Errorf("render alert html: %w", err)
	}
	subject := n.subject
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, alert.Title)
	}
	return n.sender.Send(ctx, Message{
		From:     n.from,
		To:       n.to,
		Subject:  subject,
		Body:     html.String(),
		TextBody: markdown,
	})
}

// RenderMarkdown produces the alert body shared by the HTML and text parts.
func RenderMarkdown(alert notify.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# FREE GAME ALERT - %s\n\n", alert.PlatformName)
	if alert.URL != "" {
		fmt.Fprintf(&b, "**[%s](%s)**\n\n", alert.Title, alert.URL)
	} else {
		fmt.Fprintf(&b, "**%s**\n\n", alert.Title)
	}
	if alert.ThumbnailURL != "" {
		fmt.Fprintf(&b, "![%s](%s)\n\n", alert.Title, alert.ThumbnailURL)
	}
	b.WriteString("| Price | Duration | Platform |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| **%s** | %s | %s |\n\n", alert.Price, alert.Duration, alert.PlatformName)
	fmt.Fprintf(&b, "_Free Game Monitor • %d games tracked • %s_\n", alert.TrackedCount, alert.DetectedAt.UTC().Format(time.RFC1123))
	return b.String()
}
