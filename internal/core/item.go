package core

import "time"

// Platform identifies the catalog a descriptor was produced from.
type Platform string

const (
	PlatformEpicGames Platform = "epic_games"
	PlatformSteam     Platform = "steam"
)

// UnknownTitle is used when upstream data carries no title.
const UnknownTitle = "Unknown Game"

// ItemDescriptor is the normalized form of one catalog entry. It is built fresh
// on every poll cycle and discarded once the cycle has processed it.
type ItemDescriptor struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Platform Platform `json:"platform"`
	// RawPromotions is the promotions substructure exactly as the adapter
	// extracted it; the classifier decides whether it describes a free offer.
	RawPromotions   []byte    `json:"-"`
	IsFreePromotion bool      `json:"is_free_promotion"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	URL             string    `json:"url,omitempty"`
	DiscoveredAt    time.Time `json:"discovered_at,omitempty"`
}

// Key returns the composite identity used for deduplication.
func (d ItemDescriptor) Key() ItemKey {
	return ItemKey{Platform: d.Platform, ID: d.ID}
}

// ItemKey scopes an upstream id to the platform that reported it.
type ItemKey struct {
	Platform Platform
	ID       string
}

func (k ItemKey) String() string {
	return string(k.Platform) + "/" + k.ID
}

// SourceKind selects the adapter implementation for a platform.
type SourceKind string

const (
	SourceKindEpic  SourceKind = "epic"
	SourceKindSteam SourceKind = "steam"
	SourceKindFeed  SourceKind = "feed"
)

// PlatformConfig is static per-platform metadata. It is built at startup and
// never mutated by polling.
type PlatformConfig struct {
	ID      Platform   `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Kind    SourceKind `json:"kind" yaml:"kind"`
	URL     string     `json:"url" yaml:"url"`
	Color   int        `json:"color" yaml:"color"`
	Enabled *bool      `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Filter is an optional expression; items for which it is true are dropped.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// IsEnabled reports whether the platform should be polled. Platforms are
// enabled unless explicitly switched off.
func (p PlatformConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// DisplayName falls back to the platform id when no name is configured.
func (p PlatformConfig) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.ID)
}
