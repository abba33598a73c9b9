package post_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecast/internal/domain"
	"telecast/internal/repositories/post"
	"telecast/pkg/logger"
)

func newTestStore() *post.Memory {
	return post.NewMemory(logger.New(logger.Opts{Env: "production"}))
}

func samplePost(id string) domain.Post {
	return domain.Post{
		ID:        id,
		ChannelID: "@news",
		Date:      "2026-09-01",
		Time:      "10:00",
		Timezone:  "UTC",
		Text:      "hello",
		Buttons:   []domain.Button{{Text: "Open", URL: "https://example.com"}},
		Status:    domain.StatusScheduled,
	}
}

func TestMemoryPutGet(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	stored, err := store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, stored, *got)
}

func TestMemoryGetMissing(t *testing.T) {
	store := newTestStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, post.ErrNotFound)
}

func TestMemoryPutPreservesCreatedAt(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	first, err := store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	replacement := samplePost("p1")
	replacement.Text = "updated"
	second, err := store.Put(ctx, replacement)
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "updated", second.Text)
}

func TestMemoryPutReplacesWholeRecord(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	p := samplePost("p1")
	_, err := store.Put(ctx, p)
	require.NoError(t, err)

	sentAt := time.Now().UTC()
	require.NoError(t, store.UpdateStatus(ctx, "p1", post.StatusUpdate{
		Status: domain.StatusSent,
		SentAt: &sentAt,
	}))

	// A full replace resets status and drops any previous delivery record.
	_, err = store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
	assert.Nil(t, got.SentAt)
}

func TestMemoryUpdateStatus(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)

	sentAt := time.Now().UTC()
	require.NoError(t, store.UpdateStatus(ctx, "p1", post.StatusUpdate{
		Status: domain.StatusSent,
		SentAt: &sentAt,
	}))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(sentAt))
	assert.Empty(t, got.Error)
}

func TestMemoryUpdateStatusMissingIsNoop(t *testing.T) {
	store := newTestStore()

	err := store.UpdateStatus(context.Background(), "ghost", post.StatusUpdate{
		Status: domain.StatusFailed,
		Error:  "whatever",
	})
	assert.NoError(t, err)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "p1"))
	require.NoError(t, store.Delete(ctx, "p1"))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	_, err = store.Get(ctx, "p1")
	assert.ErrorIs(t, err, post.ErrNotFound)
}

func TestMemoryListReturnsCopies(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Put(ctx, samplePost("p1"))
	require.NoError(t, err)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Mutating the returned record must not leak into the store.
	listed[0].Buttons[0].URL = "https://tampered.example.com"
	listed[0].Text = "tampered"

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "https://example.com", got.Buttons[0].URL)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", n)
			_, err := store.Put(ctx, samplePost(id))
			assert.NoError(t, err)
			_, err = store.Get(ctx, id)
			assert.NoError(t, err)
			_, err = store.List(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 20)
}
