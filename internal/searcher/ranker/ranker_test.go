package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDF(t *testing.T) {
	assert.InDelta(t, math.Log(2), IDF(2, 1), 1e-12)
	assert.Equal(t, 0.0, IDF(3, 3))
}

func TestTopOrdersByRelevanceThenRating(t *testing.T) {
	relevances := map[int]float64{
		1: 0.5,
		2: 0.9,
		3: 0.5 + RelevanceEpsilon/10,
		4: 0.1,
	}
	ratings := map[int]int{1: 2, 2: 0, 3: 7, 4: 100}
	got := Top(relevances, func(id int) int { return ratings[id] }, 0)

	ids := make([]int, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	assert.Equal(t, []int{2, 3, 1, 4}, ids)
	assert.Equal(t, 7, got[1].Rating)
}

func TestTopBreaksFullTiesByID(t *testing.T) {
	relevances := map[int]float64{9: 1, 3: 1, 5: 1}
	got := Top(relevances, func(int) int { return 4 }, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 5, 9}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestTopTruncates(t *testing.T) {
	relevances := make(map[int]float64)
	for i := 0; i < 20; i++ {
		relevances[i] = float64(i)
	}
	got := Top(relevances, func(int) int { return 0 }, MaxResults)
	require.Len(t, got, MaxResults)
	assert.Equal(t, 19, got[0].ID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Relevance, got[i].Relevance)
	}
}

func TestTopEmpty(t *testing.T) {
	got := Top(nil, func(int) int { return 0 }, MaxResults)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
