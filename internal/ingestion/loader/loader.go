// Package loader bulk-loads documents from PostgreSQL into the index at
// startup.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/lib/pq"
)

const selectDocuments = `SELECT id, body, status, ratings FROM documents ORDER BY id`

// Applier is the part of the Engine the loader feeds.
type Applier interface {
	AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int, source string) error
}

// TxRunner runs fn inside a database transaction. *postgres.Client
// satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error
}

// Rows is the cursor surface the loader reads from. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Result summarizes a load.
type Result struct {
	Loaded   int           `json:"loaded"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

type Loader struct {
	db     TxRunner
	target Applier
	logger *slog.Logger
}

func New(db TxRunner, target Applier) *Loader {
	return &Loader{
		db:     db,
		target: target,
		logger: slog.Default().With("component", "loader"),
	}
}

// Load reads every row of the documents table in a read-only transaction
// and indexes it. Rows that fail to scan or index are logged and skipped;
// only query and cursor errors abort the load.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result
	err := l.db.InTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, selectDocuments)
		if err != nil {
			return fmt.Errorf("querying documents: %w", err)
		}
		defer rows.Close()
		res, err = l.apply(ctx, rows)
		return err
	})
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	l.logger.Info("documents loaded from postgres",
		"loaded", res.Loaded,
		"skipped", res.Skipped,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (l *Loader) apply(ctx context.Context, rows Rows) (Result, error) {
	var res Result
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var (
			id      int
			body    string
			status  sql.NullString
			ratings []int64
		)
		if err := rows.Scan(&id, &body, &status, pq.Array(&ratings)); err != nil {
			l.logger.Error("failed to scan document row", "error", err)
			res.Skipped++
			continue
		}

		st := index.StatusActive
		if status.Valid && status.String != "" {
			parsed, err := index.ParseStatus(status.String)
			if err != nil {
				l.logger.Warn("skipping document with unknown status", "doc_id", id, "status", status.String)
				res.Skipped++
				continue
			}
			st = parsed
		}

		if err := l.target.AddDocument(ctx, id, body, st, toInts(ratings), indexer.SourcePostgres); err != nil {
			l.logger.Warn("skipping document", "doc_id", id, "error", err)
			res.Skipped++
			continue
		}
		res.Loaded++
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterating document rows: %w", err)
	}
	return res, nil
}

func toInts(values []int64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
