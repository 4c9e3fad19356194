// Package factory assembles runner dependencies from the YAML document and
// environment configuration.
package factory

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/config"
	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/bakkerme/freegame-alerts/internal/filter"
	"github.com/bakkerme/freegame-alerts/internal/notify"
	"github.com/bakkerme/freegame-alerts/internal/outputs/discord"
	"github.com/bakkerme/freegame-alerts/internal/outputs/email"
	"github.com/bakkerme/freegame-alerts/internal/outputs/email/smtp"
	"github.com/bakkerme/freegame-alerts/internal/runner"
	"github.com/bakkerme/freegame-alerts/internal/sources"
	"github.com/bakkerme/freegame-alerts/internal/sources/epic"
	"github.com/bakkerme/freegame-alerts/internal/sources/feed"
	"github.com/bakkerme/freegame-alerts/internal/sources/steam"
	"github.com/bakkerme/freegame-alerts/internal/store"
)

type Factory struct {
	Logger     *slog.Logger
	HTTPClient *http.Client
	UserAgent  string
	Discord    config.DiscordEnvConfig
	SMTP       config.SMTPEnvConfig
	// EmailSender overrides the SMTP sender built from SMTP, mostly for tests.
	EmailSender email.Sender
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig, client *http.Client) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: env.HTTP.Timeout}
	}
	return &Factory{
		Logger:     logger,
		HTTPClient: client,
		UserAgent:  env.HTTP.UserAgent,
		Discord:    env.Discord,
		SMTP:       env.SMTP,
	}
}

// BuildDeps wires the enabled platforms, the notifier and the store into
// runner dependencies. health may be nil.
func (f *Factory) BuildDeps(doc config.Document, st *store.Store, health runner.HealthReporter) (runner.Deps, error) {
	srcs, err := f.BuildSources(doc.EnabledPlatforms())
	if err != nil {
		return runner.Deps{}, err
	}
	notifier, err := f.BuildNotifier(doc.Notifier)
	if err != nil {
		return runner.Deps{}, err
	}
	return runner.Deps{
		Sources: srcs,
		Store:   st,
		Gateway: notify.NewGateway(notifier, st, f.Logger.With("component", "notify")),
		Health:  health,
		Logger:  f.Logger,
		Schedule: runner.Schedule{
			PollInterval:   doc.Schedule.PollInterval.Std(),
			HealthInterval: doc.Schedule.HealthInterval.Std(),
			SourceSpacing:  doc.Schedule.SourceSpacing.Std(),
		},
		Backoff: runner.BackoffPolicy{
			Enabled: doc.Backoff.Enabled,
			Initial: doc.Backoff.Initial.Std(),
			Max:     doc.Backoff.Max.Std(),
		},
	}, nil
}

func (f *Factory) BuildSources(platforms []core.PlatformConfig) ([]runner.Source, error) {
	out := make([]runner.Source, 0, len(platforms))
	for _, cfg := range platforms {
		adapter, err := f.BuildAdapter(cfg)
		if err != nil {
			return nil, err
		}
		flt, err := filter.Compile(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("platform %s: %w", cfg.ID, err)
		}
		out = append(out, runner.Source{Adapter: adapter, Config: cfg, Filter: flt})
	}
	return out, nil
}

func (f *Factory) BuildAdapter(cfg core.PlatformConfig) (sources.Adapter, error) {
	switch cfg.Kind {
	case core.SourceKindEpic:
		return epic.New(cfg, f.HTTPClient, f.UserAgent), nil
	case core.SourceKindSteam:
		return steam.New(cfg, f.HTTPClient, f.UserAgent), nil
	case core.SourceKindFeed:
		return feed.New(cfg, f.HTTPClient, f.UserAgent), nil
	default:
		return nil, fmt.Errorf("platform %s: unsupported kind %q", cfg.ID, cfg.Kind)
	}
}

// BuildNotifier returns the configured alert channel. Missing credentials are
// reported here so the process can refuse to start.
func (f *Factory) BuildNotifier(cfg config.NotifierConfig) (notify.Notifier, error) {
	switch cfg.Kind {
	case "", config.NotifierDiscord:
		if strings.TrimSpace(f.Discord.Token) == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required for the discord notifier")
		}
		if strings.TrimSpace(f.Discord.ChannelID) == "" {
			return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required for the discord notifier")
		}
		opts := []discord.Option{}
		if f.Discord.BaseURL != "" {
			opts = append(opts, discord.WithBaseURL(f.Discord.BaseURL))
		}
		if f.Discord.FooterIcon != "" {
			opts = append(opts, discord.WithFooterIcon(f.Discord.FooterIcon))
		}
		return discord.New(f.Discord.Token, f.Discord.ChannelID, f.HTTPClient, opts...), nil
	case config.NotifierEmail:
		sender := f.EmailSender
		if sender == nil {
			smtpSender, err := smtp.NewSender(smtp.Config{
				Host:               f.SMTP.Host,
				Port:               f.SMTP.Port,
				Username:           f.SMTP.User,
				Password:           f.SMTP.Password,
				TLSMode:            f.SMTP.TLSMode,
				InsecureSkipVerify: f.SMTP.InsecureSkipVerify,
			})
			if err != nil {
				return nil, fmt.Errorf("email notifier: %w", err)
			}
			sender = smtpSender
		}
		return email.NewNotifier(sender, cfg.Email.From, cfg.Email.To, cfg.Email.Subject)
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Kind)
	}
}
