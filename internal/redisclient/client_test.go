package redisclient

import (
	"context"
	"testing"
	"time"

	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLockKey(t *testing.T) {
	assert.Equal(t, "lock:product:42", ProductLockKey(42))
}

func TestLockIsExclusive(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 0, time.Minute)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	key := ProductLockKey(1)

	lock, err := client.AcquireLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	again, err := client.AcquireLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, client.ReleaseLock(ctx, lock))
	assert.ErrorIs(t, client.ReleaseLock(ctx, lock), ErrLockNotHeld)
}

func TestSearchResultCache(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 0, time.Minute)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	missing, err := client.GetSearchResult(ctx, "search:ru:missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	want := &models.SearchResult{Codes: []string{"A1", "A2"}, Suggest: &models.SearchSuggestion{Text: "ball", Score: 0.9}}
	require.NoError(t, client.SetSearchResult(ctx, "search:ru:ball", want))

	got, err := client.GetSearchResult(ctx, "search:ru:ball")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
