package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediasync/internal/domain"
	"mediasync/internal/normalize"
	"mediasync/internal/reconcile"
)

// SyncService reconciles configured channels against the snapshot store, one
// channel at a time. A channel's failure never aborts the run.
type SyncService struct {
	source    Source
	store     SnapshotStore
	telemetry Telemetry // may be nil
	channels  []domain.Channel
	logger    *slog.Logger
}

func NewSyncService(
	source Source,
	store SnapshotStore,
	telemetry Telemetry,
	channels []domain.Channel,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:    source,
		store:     store,
		telemetry: telemetry,
		channels:  channels,
		logger:    logger,
	}
}

// Run processes every configured channel sequentially and returns aggregate
// stats. It only errors when the run as a whole could not start.
func (s *SyncService) Run(ctx context.Context) (*domain.RunStats, error) {
	start := time.Now()
	run := &domain.RunStats{}

	for _, ch := range s.channels {
		stats, err := s.syncChannel(ctx, ch)
		if err != nil {
			s.logger.Error("channel sync failed",
				"channel", ch.Slug,
				"error", err,
			)
			s.emit(ctx, "error", "channel sync failed", map[string]any{
				"channel": ch.Slug,
				"error":   err.Error(),
			})
			run.Failed++
			continue
		}

		run.Add(*stats)
		s.emit(ctx, "info", "channel sync completed", map[string]any{
			"channel":  ch.Slug,
			"name":     ch.Name,
			"new":      stats.New,
			"updated":  stats.Updated,
			"filtered": stats.Filtered,
		})
	}

	run.Duration = time.Since(start)
	s.logger.Info("run completed",
		"channels", run.Channels,
		"failed", run.Failed,
		"new", run.New,
		"updated", run.Updated,
		"filtered", run.Filtered,
		"duration", run.Duration,
	)
	return run, nil
}

func (s *SyncService) syncChannel(ctx context.Context, ch domain.Channel) (*domain.SyncStats, error) {
	start := time.Now()
	logger := s.logger.With("channel", ch.Slug)
	logger.Info("starting channel sync", "name", ch.Name)

	externalID := ch.ExternalID
	if externalID == "" {
		id, err := s.source.ResolveChannelID(ctx, ch.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve channel id: %w", err)
		}
		logger.Info("resolved channel id", "external_id", id)
		externalID = id
	}

	if err := s.store.UpsertChannel(ctx, ch); err != nil {
		return nil, fmt.Errorf("upsert channel: %w", err)
	}

	raw, err := s.source.FetchItems(ctx, externalID)
	if err != nil {
		if len(raw) == 0 {
			return nil, fmt.Errorf("fetch items: %w", err)
		}
		logger.Warn("fetch aborted early, reconciling partial results",
			"fetched", len(raw),
			"error", err,
		)
	}

	stats := &domain.SyncStats{
		ChannelSlug: ch.Slug,
		ChannelName: ch.Name,
		Fetched:     len(raw),
	}

	items := s.normalizeAll(logger, ch.Slug, raw, stats)

	if rewriter, ok := s.store.(SnapshotRewriter); ok {
		err = s.reconcileSnapshot(ctx, logger, ch.Slug, items, rewriter, stats)
	} else {
		err = s.reconcileAppend(ctx, ch.Slug, items, stats)
	}
	if err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	logger.Info("channel sync completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"filtered", stats.Filtered,
		"purged", stats.Purged,
		"skipped", stats.Skipped,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (s *SyncService) normalizeAll(logger *slog.Logger, channelSlug string, raw []domain.RawItem, stats *domain.SyncStats) []domain.MediaItem {
	items := make([]domain.MediaItem, 0, len(raw))
	for _, r := range raw {
		item, err := normalize.Normalize(r)
		switch {
		case errors.Is(err, normalize.ErrShortContent):
			stats.Filtered++
			logger.Debug("filtered short item", "id", r.ID)
			continue
		case err != nil:
			stats.Skipped++
			logger.Warn("skipping malformed item", "error", err)
			continue
		}
		item.ChannelSlug = channelSlug
		items = append(items, item)
	}
	return items
}

// reconcileSnapshot is the file-backed path: full diff, merge, retroactive
// purge, and a rewrite only when something changed.
func (s *SyncService) reconcileSnapshot(
	ctx context.Context,
	logger *slog.Logger,
	channelSlug string,
	items []domain.MediaItem,
	rewriter SnapshotRewriter,
	stats *domain.SyncStats,
) error {
	old, err := rewriter.ReadAll(ctx, channelSlug)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	plan := reconcile.Diff(old, items)
	snapshot, changed, purged := reconcile.Apply(old, plan)

	stats.New = len(plan.Inserts)
	stats.Updated = len(plan.Updates)
	stats.Purged = purged

	if !changed {
		logger.Info("snapshot up to date")
		return nil
	}
	if err := rewriter.WriteAll(ctx, channelSlug, snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// reconcileAppend is the relational path: only items at or past the latest
// persisted date are considered, and non-pre-existing ids are pure inserts.
func (s *SyncService) reconcileAppend(
	ctx context.Context,
	channelSlug string,
	items []domain.MediaItem,
	stats *domain.SyncStats,
) error {
	existing, err := s.store.ExistingIDs(ctx, channelSlug)
	if err != nil {
		return fmt.Errorf("list existing ids: %w", err)
	}
	latest, err := s.store.LatestDate(ctx, channelSlug)
	if err != nil {
		return fmt.Errorf("get latest date: %w", err)
	}

	fresh := reconcile.NewSince(existing, latest, items)
	stats.New = len(fresh)
	if len(fresh) == 0 {
		return nil
	}

	if err := s.store.InsertBatch(ctx, channelSlug, fresh); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (s *SyncService) emit(ctx context.Context, level, message string, fields map[string]any) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.Emit(ctx, level, message, fields)
}
