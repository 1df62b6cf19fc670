package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	snap := &Snapshot{
		SessionID: "s1",
		Route:     "/dashboard",
		HTML:      "<div>hi</div>",
		State:     map[string]any{"count": 3},
	}
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", got.Route)
	assert.Equal(t, "<div>hi</div>", got.HTML)
	assert.Equal(t, 3, got.State["count"])
	assert.False(t, got.SavedAt.IsZero(), "Save must stamp SavedAt")

	// Load hands out a copy.
	got.Route = "/elsewhere"
	again, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", again.Route)
}

func TestMemoryStoreMissing(t *testing.T) {
	s := NewMemoryStore(0)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Save(ctx, &Snapshot{SessionID: "s1", HTML: "old"}))
	require.NoError(t, s.Save(ctx, &Snapshot{SessionID: "s1", HTML: "new"}))

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.HTML)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Save(ctx, &Snapshot{SessionID: "s1"}))
	require.NoError(t, s.Delete(ctx, "s1"))
	_, err := s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing snapshot is fine.
	require.NoError(t, s.Delete(ctx, "s1"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	stale := &Snapshot{SessionID: "old", SavedAt: time.Now().Add(-2 * time.Minute)}
	fresh := &Snapshot{SessionID: "new", SavedAt: time.Now()}
	require.NoError(t, s.Save(ctx, stale))
	require.NoError(t, s.Save(ctx, fresh))

	_, err := s.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load(ctx, "new")
	assert.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Purge())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreZeroMaxAgeNeverExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Save(ctx, &Snapshot{
		SessionID: "ancient",
		SavedAt:   time.Now().Add(-24 * time.Hour),
	}))
	_, err := s.Load(ctx, "ancient")
	assert.NoError(t, err)
	assert.Zero(t, s.Purge())
}
