package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*int64) = row[0].(int64)
	*dest[1].(*time.Time) = row[1].(time.Time)
	*dest[2].(*[]byte) = row[2].([]byte)
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestDecodeSkipsCorruptSnapshots(t *testing.T) {
	good, err := json.Marshal(analytics.AggregatedStats{TotalSearches: 12})
	require.NoError(t, err)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s := NewStore(nil)
	snaps, err := s.decode(&fakeRows{rows: [][]any{
		{int64(2), at, good},
		{int64(1), at.Add(-time.Minute), []byte("{broken")},
	}})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(2), snaps[0].ID)
	assert.Equal(t, int64(12), snaps[0].Stats.TotalSearches)
	assert.Equal(t, at, snaps[0].CapturedAt)
}

func TestDecodeReportsCursorError(t *testing.T) {
	s := NewStore(nil)
	snaps, err := s.decode(&fakeRows{err: errors.New("connection reset")})
	assert.Error(t, err)
	assert.Empty(t, snaps)
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []analytics.AggregatedStats
}

func (r *recordingSaver) SaveSnapshot(_ context.Context, stats analytics.AggregatedStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, stats)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestRunPeriodicSavesOnTickAndShutdown(t *testing.T) {
	agg := analytics.NewAggregator()
	agg.RecordSearch(analytics.SearchEvent{Query: "cat", Returned: 1})
	saver := &recordingSaver{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunPeriodic(ctx, saver, agg, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return saver.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done

	before := saver.count()
	assert.GreaterOrEqual(t, before, 3)
	assert.Equal(t, int64(1), saver.saved[before-1].TotalSearches)
}
