// Package file implements the snapshot store as one JSON array per channel on
// local disk, the format consumed directly by the publishing site.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mediasync/internal/domain"
)

type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(channelSlug string) string {
	return filepath.Join(s.dir, channelSlug+".json")
}

// UpsertChannel is a no-op: channel identity lives in the snapshot filename,
// so repeated upserts have nothing to write.
func (s *Store) UpsertChannel(ctx context.Context, ch domain.Channel) error {
	return nil
}

// ReadAll returns the persisted snapshot for a channel. A missing file is an
// empty snapshot; an unreadable one is logged and treated as empty so the
// next write starts fresh.
func (s *Store) ReadAll(ctx context.Context, channelSlug string) ([]domain.MediaItem, error) {
	data, err := os.ReadFile(s.path(channelSlug))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var items []domain.MediaItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("snapshot file corrupt, starting fresh",
			"channel", channelSlug,
			"error", err,
		)
		return nil, nil
	}

	for i := range items {
		items[i].ChannelSlug = channelSlug
	}
	return items, nil
}

// WriteAll replaces the channel snapshot atomically via a temp file rename.
func (s *Store) WriteAll(ctx context.Context, channelSlug string, items []domain.MediaItem) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, channelSlug+".json.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(channelSlug)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ExistingIDs reads the snapshot and returns the set of persisted item ids.
func (s *Store) ExistingIDs(ctx context.Context, channelSlug string) (map[string]struct{}, error) {
	items, err := s.ReadAll(ctx, channelSlug)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.ID] = struct{}{}
	}
	return ids, nil
}

// LatestDate returns the most recent published date in the snapshot, empty
// when nothing is persisted.
func (s *Store) LatestDate(ctx context.Context, channelSlug string) (string, error) {
	items, err := s.ReadAll(ctx, channelSlug)
	if err != nil {
		return "", err
	}
	latest := ""
	for _, item := range items {
		if item.Date > latest {
			latest = item.Date
		}
	}
	return latest, nil
}

// InsertBatch appends new items to the snapshot. The orchestrator prefers the
// ReadAll/WriteAll path for this backend; this exists to satisfy the common
// store contract.
func (s *Store) InsertBatch(ctx context.Context, channelSlug string, items []domain.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	existing, err := s.ReadAll(ctx, channelSlug)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		seen[item.ID] = struct{}{}
	}
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		existing = append(existing, item)
	}
	return s.WriteAll(ctx, channelSlug, existing)
}
