package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"gopkg.in/yaml.v3"
)

const (
	NotifierDiscord = "discord"
	NotifierEmail   = "email"
)

const (
	DefaultPollInterval   = 5 * time.Minute
	DefaultHealthInterval = time.Hour
	DefaultSourceSpacing  = 15 * time.Second
)

// Document is the top-level structure of a freegame.yaml file.
type Document struct {
	Schedule  Schedule              `yaml:"schedule"`
	Platforms []core.PlatformConfig `yaml:"platforms"`
	Notifier  NotifierConfig        `yaml:"notifier"`
	Backoff   BackoffConfig         `yaml:"backoff"`
}

// Schedule holds the poll and health cadences.
type Schedule struct {
	PollInterval   Duration `yaml:"poll_interval"`
	HealthInterval Duration `yaml:"health_interval"`
	// SourceSpacing is the pause between two sources within one cycle.
	SourceSpacing Duration `yaml:"source_spacing"`
}

type NotifierConfig struct {
	Kind  string      `yaml:"kind"`
	Email EmailConfig `yaml:"email,omitempty"`
}

type EmailConfig struct {
	To      string `yaml:"to"`
	From    string `yaml:"from,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// BackoffConfig controls the optional per-source exponential backoff applied
// after consecutive fetch failures.
type BackoffConfig struct {
	Enabled bool     `yaml:"enabled"`
	Initial Duration `yaml:"initial,omitempty"`
	Max     Duration `yaml:"max,omitempty"`
}

// Default returns the built-in configuration: Epic Games Store and Steam,
// polled every five minutes, alerts sent to Discord.
func Default() Document {
	return Document{
		Schedule: Schedule{
			PollInterval:   Duration(DefaultPollInterval),
			HealthInterval: Duration(DefaultHealthInterval),
			SourceSpacing:  Duration(DefaultSourceSpacing),
		},
		Platforms: []core.PlatformConfig{
			{
				ID:    core.PlatformEpicGames,
				Name:  "Epic Games Store",
				Kind:  core.SourceKindEpic,
				URL:   "https://store-site-backend-static-ipv4.ak.epicgames.com/freeGamesPromotions?locale=tr",
				Color: 0x2E64FE,
			},
			{
				ID:    core.PlatformSteam,
				Name:  "Steam",
				Kind:  core.SourceKindSteam,
				URL:   "https://store.steampowered.com/api/featuredcategories",
				Color: 0x1B2838,
			},
		},
		Notifier: NotifierConfig{Kind: NotifierDiscord},
		Backoff: BackoffConfig{
			Initial: Duration(time.Minute),
			Max:     Duration(time.Hour),
		},
	}
}

// Load reads the document at path over the defaults. An empty path or a
// missing file yields Default().
func Load(path string) (Document, error) {
	doc := Default()
	if path == "" {
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (Document, error) {
	doc := Default()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse config: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (d *Document) applyDefaults() {
	if d.Schedule.PollInterval == 0 {
		d.Schedule.PollInterval = Duration(DefaultPollInterval)
	}
	if d.Schedule.HealthInterval == 0 {
		d.Schedule.HealthInterval = Duration(DefaultHealthInterval)
	}
	if d.Notifier.Kind == "" {
		d.Notifier.Kind = NotifierDiscord
	}
}

// Validate checks the document for values the runner cannot work with.
func (d *Document) Validate() error {
	if d.Schedule.PollInterval.Std() < time.Second {
		return fmt.Errorf("schedule: poll_interval must be at least 1s")
	}
	if d.Schedule.HealthInterval.Std() < time.Second {
		return fmt.Errorf("schedule: health_interval must be at least 1s")
	}
	if d.Schedule.SourceSpacing < 0 {
		return fmt.Errorf("schedule: source_spacing must not be negative")
	}

	if len(d.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	seen := make(map[core.Platform]struct{}, len(d.Platforms))
	for i, p := range d.Platforms {
		if p.ID == "" {
			return fmt.Errorf("platforms[%d]: 'id' field is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("platforms[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		switch p.Kind {
		case core.SourceKindEpic, core.SourceKindSteam, core.SourceKindFeed:
		default:
			return fmt.Errorf("platform %s: unknown kind %q", p.ID, p.Kind)
		}
		if p.URL == "" {
			return fmt.Errorf("platform %s: 'url' field is required", p.ID)
		}
	}

	switch d.Notifier.Kind {
	case NotifierDiscord:
	case NotifierEmail:
		if _, err := mail.ParseAddress(d.Notifier.Email.To); err != nil {
			return fmt.Errorf("notifier email: invalid to address")
		}
		if d.Notifier.Email.From != "" {
			if _, err := mail.ParseAddress(d.Notifier.Email.From); err != nil {
				return fmt.Errorf("notifier email: invalid from address")
			}
		}
	default:
		return fmt.Errorf("notifier: unknown kind %q", d.Notifier.Kind)
	}

	if d.Backoff.Enabled {
		if d.Backoff.Initial <= 0 {
			return fmt.Errorf("backoff: initial must be positive")
		}
		if d.Backoff.Max < d.Backoff.Initial {
			return fmt.Errorf("backoff: max must be at least initial")
		}
	}
	return nil
}

// EnabledPlatforms returns the platforms that should be polled, in order.
func (d *Document) EnabledPlatforms() []core.PlatformConfig {
	out := make([]core.PlatformConfig, 0, len(d.Platforms))
	for _, p := range d.Platforms {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}
