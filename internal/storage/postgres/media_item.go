package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mediasync/internal/domain"
)

// ExistingIDs returns the set of item ids already persisted for a channel.
func (s *Store) ExistingIDs(ctx context.Context, channelSlug string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM media_items WHERE channel_slug = $1",
		channelSlug,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// LatestDate returns the most recent published date for a channel as
// YYYY-MM-DD, empty when no items are persisted.
func (s *Store) LatestDate(ctx context.Context, channelSlug string) (string, error) {
	var latest string
	err := s.db.GetContext(ctx, &latest,
		"SELECT COALESCE(to_char(MAX(date), 'YYYY-MM-DD'), '') FROM media_items WHERE channel_slug = $1",
		channelSlug,
	)
	if err != nil {
		return "", err
	}
	return latest, nil
}

// InsertBatch inserts new items for a channel inside one transaction, chunked
// into bounded multi-row statements. Conflicting ids are left untouched, so a
// retried run re-attempts only what is missing.
func (s *Store) InsertBatch(ctx context.Context, channelSlug string, items []domain.MediaItem) error {
	if len(items) == 0 {
		return nil
	}

	return s.tm.WithTransaction(ctx, func(txCtx context.Context) error {
		for start := 0; start < len(items); start += insertChunkSize {
			end := start + insertChunkSize
			if end > len(items) {
				end = len(items)
			}
			if err := s.insertChunk(txCtx, channelSlug, items[start:end]); err != nil {
				return fmt.Errorf("insert items %d..%d: %w", start, end, err)
			}
		}
		return nil
	})
}

func (s *Store) insertChunk(ctx context.Context, channelSlug string, items []domain.MediaItem) error {
	const cols = 10

	var sb strings.Builder
	sb.WriteString(`INSERT INTO media_items (
		channel_slug, id, title, date, content_type,
		duration, duration_iso, description, image, source_url
	) VALUES `)

	args := make([]interface{}, 0, len(items)*cols)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*cols + j + 1))
		}
		sb.WriteString(")")

		args = append(args,
			channelSlug,
			item.ID,
			item.Title,
			item.Date,
			item.ContentType,
			item.Duration,
			item.DurationISO,
			item.Description,
			item.Image,
			sourceURL(item),
		)
	}
	sb.WriteString(" ON CONFLICT (channel_slug, id) DO NOTHING")

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	return err
}

// sourceURL picks the canonical watch link produced by normalization.
func sourceURL(item domain.MediaItem) string {
	for _, l := range item.Links {
		if l.Type == "video" {
			return l.URL
		}
	}
	return ""
}
