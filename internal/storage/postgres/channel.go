package postgres

import (
	"context"

	"mediasync/internal/domain"
)

// UpsertChannel writes the channel identity keyed by slug. Re-running with
// identical data is a no-op in effect.
func (s *Store) UpsertChannel(ctx context.Context, ch domain.Channel) error {
	query := `
		INSERT INTO channels (slug, name, external_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			external_id = EXCLUDED.external_id`

	_, err := s.db.ExecContext(ctx, query, ch.Slug, ch.Name, ch.ExternalID)
	return err
}
