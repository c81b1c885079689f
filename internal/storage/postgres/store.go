// Package postgres implements the relational snapshot store. Unlike the
// file-backed store it exposes no cheap full-read path; the reconciliation
// engine works against the existing-id set and the latest persisted date.
package postgres

import (
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// insertChunkSize bounds the number of rows per multi-value INSERT.
const insertChunkSize = 100

type Store struct {
	db     *sqlx.DB
	tm     *TransactionManager
	logger *slog.Logger
}

func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		tm:     NewTransactionManager(db),
		logger: logger,
	}
}
