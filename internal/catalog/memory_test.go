package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMemory(t *testing.T) *Memory {
	books, err := SeedBooks()
	require.NoError(t, err)
	return NewMemory(books)
}

func TestMemory_FindBookByID(t *testing.T) {
	c := seededMemory(t)
	ctx := context.Background()

	b, err := c.FindBookByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Atomic Habits", b.Title)
	assert.Equal(t, 399.0, b.Price)

	_, err = c.FindBookByID(ctx, 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestMemory_ListBooksByCategory_ExcludesCurrent(t *testing.T) {
	c := seededMemory(t)

	related, err := c.ListBooksByCategory(context.Background(), "Self-Help", 1)
	require.NoError(t, err)

	ids := make([]int64, 0, len(related))
	for _, b := range related {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int64{4, 7}, ids)
}

func TestMemory_ListBooks(t *testing.T) {
	c := seededMemory(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 12},
		{"category", Filter{Category: "Fiction"}, 3},
		{"title search is case-insensitive", Filter{Query: "ATOMIC"}, 1},
		{"author search", Filter{Query: "robert"}, 2},
		{"category and query", Filter{Category: "Finance", Query: "robert"}, 1},
		{"no match", Filter{Query: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := c.ListBooks(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, books, tt.want)
		})
	}
}

func TestMemory_Categories_FirstSeenOrder(t *testing.T) {
	c := seededMemory(t)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Self-Help", "Finance", "History", "Fiction", "Technology"}, cats)
}

func TestLoadJSON_Invalid(t *testing.T) {
	_, err := LoadJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}
