package domain

import "time"

// DefaultContentType is assigned to every normalized item; the catalog does
// not distinguish episode kinds.
const DefaultContentType = "podcast"

// Channel identifies one content source for a run.
type Channel struct {
	Slug       string `yaml:"slug" json:"slug"`
	Name       string `yaml:"name" json:"name"`
	ExternalID string `yaml:"external_id" json:"external_id,omitempty"`
}

// Link is one outbound reference attached to a media item. Links with a
// platform not produced by normalization (e.g. "Apple Podcasts") are curated
// by hand and must survive re-normalization.
type Link struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// Thumbnails holds every size variant the catalog offers, empty string when a
// size is absent. The full set is persisted so the preferred image can be
// re-derived without re-fetching.
type Thumbnails struct {
	Default  string `json:"default"`
	Medium   string `json:"medium"`
	High     string `json:"high"`
	Standard string `json:"standard"`
	Maxres   string `json:"maxres"`
}

// Preferred returns the image URL to display: high resolution when available,
// otherwise the default size.
func (t Thumbnails) Preferred() string {
	if t.High != "" {
		return t.High
	}
	return t.Default
}

// MediaItem is one episode/video. ID is the remote catalog's native item
// identifier and the natural dedup key within a channel.
//
// Duration is the lossy human display string; DurationISO retains the raw
// machine encoding verbatim so records can be reclassified later.
type MediaItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"` // YYYY-MM-DD
	ContentType string     `json:"contentType"`
	Links       []Link     `json:"links"`
	Duration    string     `json:"duration"`
	DurationISO string     `json:"duration_iso,omitempty"`
	Description string     `json:"description"`
	Image       string     `json:"image,omitempty"`
	Thumbnails  Thumbnails `json:"thumbnails"`
	ChannelSlug string     `json:"-"`
}

// HasLinkFor reports whether the item already carries a link for the given
// platform.
func (m MediaItem) HasLinkFor(platform string) bool {
	for _, l := range m.Links {
		if l.Platform == platform {
			return true
		}
	}
	return false
}

// RawItem is one record as yielded by the remote catalog client, before
// normalization.
type RawItem struct {
	ID          string
	Title       string
	Description string
	PublishedAt time.Time
	DurationISO string
	Thumbnails  Thumbnails
	Platform    string
	WatchURL    string
}
