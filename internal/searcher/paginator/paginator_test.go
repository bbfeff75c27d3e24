package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		pageSize int
		want     [][]int
	}{
		{"empty", nil, 2, [][]int{}},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"one page", []int{1, 2}, 5, [][]int{{1, 2}}},
		{"zero size", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
		{"negative size", []int{1, 2, 3}, -4, [][]int{{1, 2, 3}}},
		{"size one", []int{7, 8}, 1, [][]int{{7}, {8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.items, tt.pageSize))
		})
	}
}

func TestPaginatePagesDoNotOverlap(t *testing.T) {
	items := []string{"a", "b", "c"}
	pages := Paginate(items, 2)
	pages[0] = append(pages[0], "z")
	assert.Equal(t, []string{"a", "b", "c"}, items)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, ok := Page(items, 2, 2)
	assert.True(t, ok)
	assert.Equal(t, []int{5}, page)

	_, ok = Page(items, 2, 3)
	assert.False(t, ok)
	_, ok = Page(items, 2, -1)
	assert.False(t, ok)
	_, ok = Page([]int{}, 2, 0)
	assert.False(t, ok)
}
