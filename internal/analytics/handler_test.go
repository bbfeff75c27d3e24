package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	snaps     []Snapshot
	err       error
	lastLimit int
}

func (f *fakeLister) ListSnapshots(_ context.Context, limit int) ([]Snapshot, error) {
	f.lastLimit = limit
	return f.snaps, f.err
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Query: "cat", Returned: 0})

	rec := get(t, NewHandler(agg, nil), "/api/v1/analytics")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.ZeroResultCount)

	// Without a store the history route is not registered.
	assert.Equal(t, http.StatusNotFound, get(t, NewHandler(agg, nil), "/api/v1/analytics/snapshots").Code)
}

func TestHandlerSnapshots(t *testing.T) {
	lister := &fakeLister{snaps: []Snapshot{{ID: 3, Stats: AggregatedStats{TotalSearches: 9}}}}
	h := NewHandler(NewAggregator(), lister)

	rec := get(t, h, "/api/v1/analytics/snapshots?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, lister.lastLimit)
	var body struct {
		Snapshots []Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, int64(9), body.Snapshots[0].Stats.TotalSearches)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/analytics/snapshots?limit=x").Code)

	lister.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/v1/analytics/snapshots").Code)
}
