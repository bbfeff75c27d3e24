package publisher

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/lib/pq"
)

// TxRunner runs fn inside a transaction. *postgres.Client satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error
}

// PostgresStore keeps the documents table the loader reads at startup in
// step with published events. It expects:
//
//	CREATE TABLE documents (
//	    id      BIGINT PRIMARY KEY,
//	    body    TEXT NOT NULL,
//	    status  TEXT NOT NULL DEFAULT 'active',
//	    ratings BIGINT[] NOT NULL DEFAULT '{}'
//	);
type PostgresStore struct {
	db TxRunner
}

func NewPostgresStore(db TxRunner) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Apply(ctx context.Context, event *ingestion.IngestEvent, publish func() error) error {
	return s.db.InTx(ctx, nil, func(tx *sql.Tx) error {
		switch event.Op {
		case ingestion.OpAdd:
			res, err := tx.ExecContext(ctx,
				`INSERT INTO documents (id, body, status, ratings) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO NOTHING`,
				event.ID, event.Text, event.Status.String(), pq.Array(toInt64s(event.Ratings)),
			)
			if err != nil {
				return fmt.Errorf("inserting document: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return apperrors.DuplicateID(event.ID)
			}
		case ingestion.OpRemove:
			if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, event.ID); err != nil {
				return fmt.Errorf("deleting document: %w", err)
			}
		default:
			return apperrors.InvalidInput("unknown operation %q", event.Op)
		}
		return publish()
	})
}

func toInt64s(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
