// Package normalize maps raw catalog records into canonical media items and
// applies the short-content filter.
package normalize

import (
	"errors"
	"fmt"

	"mediasync/internal/domain"
	"mediasync/internal/duration"
)

// MinDurationSeconds is the policy threshold below which items are treated as
// short-form content and never persisted.
const MinDurationSeconds = 120

// ErrShortContent marks an item filtered for being under MinDurationSeconds.
var ErrShortContent = errors.New("short content")

// Normalize converts a raw catalog record into a canonical MediaItem.
// It returns ErrShortContent when the decoded duration is below the minimum,
// and a validation error when required fields are missing; callers
// distinguish the two with errors.Is.
func Normalize(raw domain.RawItem) (domain.MediaItem, error) {
	if raw.ID == "" {
		return domain.MediaItem{}, fmt.Errorf("raw item missing id")
	}
	if raw.PublishedAt.IsZero() {
		return domain.MediaItem{}, fmt.Errorf("raw item %s missing publish timestamp", raw.ID)
	}

	if duration.Seconds(raw.DurationISO) < MinDurationSeconds {
		return domain.MediaItem{}, fmt.Errorf("item %s: %w", raw.ID, ErrShortContent)
	}

	return domain.MediaItem{
		ID:          raw.ID,
		Title:       raw.Title,
		Date:        raw.PublishedAt.UTC().Format("2006-01-02"),
		ContentType: domain.DefaultContentType,
		Links: []domain.Link{
			{Type: "video", URL: raw.WatchURL, Platform: raw.Platform},
		},
		Duration:    duration.Display(raw.DurationISO),
		DurationISO: raw.DurationISO,
		Description: raw.Description,
		Image:       raw.Thumbnails.Preferred(),
		Thumbnails:  raw.Thumbnails,
	}, nil
}
