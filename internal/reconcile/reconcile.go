// Package reconcile computes the minimal set of writes needed to bring a
// persisted channel snapshot in line with freshly normalized catalog records.
// All functions are pure; persistence is the caller's concern.
package reconcile

import (
	"sort"

	"mediasync/internal/domain"
	"mediasync/internal/duration"
	"mediasync/internal/normalize"
)

// Plan partitions incoming canonical records against the current snapshot.
// Updates are already merged with their prior persisted version and can be
// written in place.
type Plan struct {
	Inserts   []domain.MediaItem
	Updates   []domain.MediaItem
	Unchanged int
}

// Diff compares incoming records to the old snapshot by id. Records absent
// from the snapshot become inserts; present records are compared field by
// field and merged when dirty; the rest are left untouched.
func Diff(old, incoming []domain.MediaItem) Plan {
	byID := make(map[string]domain.MediaItem, len(old))
	for _, item := range old {
		byID[item.ID] = item
	}

	var plan Plan
	for _, in := range incoming {
		prev, exists := byID[in.ID]
		if !exists {
			plan.Inserts = append(plan.Inserts, in)
			continue
		}
		if dirty(prev, in) {
			plan.Updates = append(plan.Updates, merge(prev, in))
		} else {
			plan.Unchanged++
		}
	}
	return plan
}

// dirty reports whether a persisted record drifted from its normalized
// version. Thumbnail drift is the primary signal; title, description and
// duration display are checked only when the thumbnail set is unchanged.
func dirty(old, in domain.MediaItem) bool {
	if old.Thumbnails != in.Thumbnails {
		return true
	}
	return old.Title != in.Title ||
		old.Description != in.Description ||
		old.Duration != in.Duration
}

// merge overwrites the comparable fields of a persisted record with the new
// normalized values while carrying forward any link whose platform the new
// record does not produce. That is how curated links survive updates.
func merge(old, in domain.MediaItem) domain.MediaItem {
	merged := in
	merged.Image = in.Thumbnails.Preferred()
	if merged.ChannelSlug == "" {
		merged.ChannelSlug = old.ChannelSlug
	}
	for _, l := range old.Links {
		if !merged.HasLinkFor(l.Platform) {
			merged.Links = append(merged.Links, l)
		}
	}
	return merged
}

// Apply rebuilds the full file-backed snapshot from a plan: updated records
// replace their old versions in place, inserts are appended, records whose
// decoded duration has fallen under the minimum are purged, and the result is
// sorted by published date descending. Ties keep their pre-sort relative
// order. changed reports whether the snapshot needs rewriting; a no-op run
// must not touch the file.
func Apply(old []domain.MediaItem, plan Plan) (snapshot []domain.MediaItem, changed bool, purged int) {
	updated := make(map[string]domain.MediaItem, len(plan.Updates))
	for _, item := range plan.Updates {
		updated[item.ID] = item
	}

	snapshot = make([]domain.MediaItem, 0, len(old)+len(plan.Inserts))
	for _, item := range old {
		if u, ok := updated[item.ID]; ok {
			item = u
		}
		if !keep(item) {
			purged++
			continue
		}
		snapshot = append(snapshot, item)
	}
	snapshot = append(snapshot, plan.Inserts...)

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Date > snapshot[j].Date
	})

	changed = len(plan.Inserts) > 0 || len(plan.Updates) > 0 || purged > 0
	return snapshot, changed, purged
}

// keep applies the minimum-duration filter retroactively. The raw encoding is
// authoritative; legacy records without one fall back to the display string.
func keep(item domain.MediaItem) bool {
	secs := duration.Seconds(item.DurationISO)
	if item.DurationISO == "" {
		secs = duration.DisplaySeconds(item.Duration)
	}
	return secs >= normalize.MinDurationSeconds
}

// NewSince selects the incoming records to insert into a relational snapshot:
// only items published on or after the latest persisted date are considered
// (all of them when no date is persisted), and ids already present are
// skipped. The relational path performs no field-level update detection.
func NewSince(existing map[string]struct{}, latestDate string, incoming []domain.MediaItem) []domain.MediaItem {
	var fresh []domain.MediaItem
	for _, item := range incoming {
		if latestDate != "" && item.Date < latestDate {
			continue
		}
		if _, ok := existing[item.ID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}
