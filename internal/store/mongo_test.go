package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) *MongoStore {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	s := NewMongoStore(db)
	require.NoError(t, s.CreateIndexes(ctx, 24*time.Hour))
	return s
}

func TestMongoStore_RoundTrip(t *testing.T) {
	s := setupTestMongo(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "readify_cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "readify_cart", "[]"))
	require.NoError(t, s.Set(ctx, "readify_cart", `[{"id":2}]`))

	v, err := s.Get(ctx, "readify_cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, v)

	require.NoError(t, s.Delete(ctx, "readify_cart"))
	_, err = s.Get(ctx, "readify_cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
