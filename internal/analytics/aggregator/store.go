// Package aggregator persists periodic snapshots of the in-memory analytics
// aggregate to PostgreSQL so query statistics survive restarts.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
)

const defaultListLimit = 20

// Rows is the cursor surface snapshots are decoded from. *sql.Rows
// satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Store persists snapshots in PostgreSQL. It requires:
//
//	CREATE TABLE analytics_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    data        JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		data, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved",
		"total_searches", stats.TotalSearches,
		"documents_added", stats.DocumentsAdded,
	)
	return nil
}

// LatestSnapshot returns the newest snapshot, or nil when none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, captured_at, data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()
	return s.decode(rows)
}

func (s *Store) decode(rows Rows) ([]analytics.Snapshot, error) {
	snaps := []analytics.Snapshot{}
	for rows.Next() {
		var (
			snap analytics.Snapshot
			data []byte
		)
		if err := rows.Scan(&snap.ID, &snap.CapturedAt, &data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "id", snap.ID, "error", err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Saver persists one aggregate. *Store satisfies it.
type Saver interface {
	SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error
}

// StatsSource yields the current aggregate. *analytics.Aggregator
// satisfies it.
type StatsSource interface {
	Stats() analytics.AggregatedStats
}

// RunPeriodic saves a snapshot of source every interval until ctx is done,
// then saves a final one with a short deadline.
func RunPeriodic(ctx context.Context, saver Saver, source StatsSource, interval time.Duration) {
	log := slog.Default().With("component", "analytics-store")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("periodic snapshot started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			if err := saver.SaveSnapshot(ctx, source.Stats()); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := saver.SaveSnapshot(shutdownCtx, source.Stats()); err != nil {
				log.Error("final snapshot failed", "error", err)
			}
			return
		}
	}
}
