package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"mediasync/internal/domain"
)

// Source is the remote catalog collaborator.
type Source interface {
	Platform() string
	ResolveChannelID(ctx context.Context, name string) (string, error)
	// FetchItems returns every raw item for a channel. On a mid-pagination
	// failure it returns the records accumulated so far together with the
	// error.
	FetchItems(ctx context.Context, externalID string) ([]domain.RawItem, error)
}

// SnapshotStore is the contract both persistence backends satisfy.
type SnapshotStore interface {
	UpsertChannel(ctx context.Context, ch domain.Channel) error
	ExistingIDs(ctx context.Context, channelSlug string) (map[string]struct{}, error)
	LatestDate(ctx context.Context, channelSlug string) (string, error)
	InsertBatch(ctx context.Context, channelSlug string, items []domain.MediaItem) error
}

// SnapshotRewriter is the full read/rewrite capability only the file-backed
// store exposes. The orchestrator type-asserts for it to choose the merge
// path; the relational backend stays insert-only.
type SnapshotRewriter interface {
	ReadAll(ctx context.Context, channelSlug string) ([]domain.MediaItem, error)
	WriteAll(ctx context.Context, channelSlug string, items []domain.MediaItem) error
}

// Telemetry is a best-effort event sink; implementations swallow their own
// failures.
type Telemetry interface {
	Emit(ctx context.Context, level, message string, fields map[string]any)
	Close() error
}
