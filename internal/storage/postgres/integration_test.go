//go:build integration

package postgres

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mediasync/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *pgcontainer.PostgresContainer
	db        *sqlx.DB
	store     *Store
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := pgcontainer.Run(s.ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("test_db"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(RunMigrations(connStr))

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.store = NewStore(db, logger)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM media_items")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM channels")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) item(id, date string) domain.MediaItem {
	return domain.MediaItem{
		ID:          id,
		Title:       "Episode " + id,
		Date:        date,
		ContentType: domain.DefaultContentType,
		Links: []domain.Link{
			{Type: "video", URL: "https://www.youtube.com/watch?v=" + id, Platform: "YouTube"},
		},
		Duration:    "3m",
		DurationISO: "PT3M0S",
		Description: "desc",
		Image:       "https://img.example/" + id + ".jpg",
		ChannelSlug: "acme",
	}
}

func (s *PostgresIntegrationSuite) TestUpsertChannel_Idempotent() {
	ch := domain.Channel{Slug: "acme", Name: "Acme Show", ExternalID: "UC123"}

	s.NoError(s.store.UpsertChannel(s.ctx, ch))
	s.NoError(s.store.UpsertChannel(s.ctx, ch))

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM channels WHERE slug = 'acme'"))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestInsertBatch_SkipsConflicts() {
	s.NoError(s.store.UpsertChannel(s.ctx, domain.Channel{Slug: "acme", Name: "Acme Show"}))

	s.NoError(s.store.InsertBatch(s.ctx, "acme", []domain.MediaItem{
		s.item("v1", "2024-01-01"),
		s.item("v2", "2024-01-02"),
	}))

	// Re-running with an overlap only inserts the missing id.
	s.NoError(s.store.InsertBatch(s.ctx, "acme", []domain.MediaItem{
		s.item("v2", "2024-01-02"),
		s.item("v3", "2024-01-03"),
	}))

	ids, err := s.store.ExistingIDs(s.ctx, "acme")
	s.NoError(err)
	s.Len(ids, 3)
}

func (s *PostgresIntegrationSuite) TestLatestDate() {
	s.NoError(s.store.UpsertChannel(s.ctx, domain.Channel{Slug: "acme", Name: "Acme Show"}))

	latest, err := s.store.LatestDate(s.ctx, "acme")
	s.NoError(err)
	s.Equal("", latest)

	s.NoError(s.store.InsertBatch(s.ctx, "acme", []domain.MediaItem{
		s.item("v1", "2024-01-01"),
		s.item("v2", "2024-03-05"),
	}))

	latest, err = s.store.LatestDate(s.ctx, "acme")
	s.NoError(err)
	s.Equal("2024-03-05", latest)
}

func (s *PostgresIntegrationSuite) TestInsertBatch_LargeBatchChunks() {
	s.NoError(s.store.UpsertChannel(s.ctx, domain.Channel{Slug: "acme", Name: "Acme Show"}))

	items := make([]domain.MediaItem, 0, insertChunkSize+5)
	for i := 0; i < insertChunkSize+5; i++ {
		items = append(items, s.item(itemID(i), "2024-01-01"))
	}

	s.NoError(s.store.InsertBatch(s.ctx, "acme", items))

	ids, err := s.store.ExistingIDs(s.ctx, "acme")
	s.NoError(err)
	s.Len(ids, insertChunkSize+5)
}

func itemID(i int) string {
	return "vid-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
}
