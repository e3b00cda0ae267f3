package pickupstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "pickup:d1:r1:2026-03-10:morning"

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, open, err := s.State(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, open)

	_, err = s.Toggle(ctx, testKey, "s1")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Reset(ctx, testKey, []string{"s1", "s2"}))

	picked, err := s.Toggle(ctx, testKey, "s1")
	require.NoError(t, err)
	assert.True(t, picked)

	_, err = s.Toggle(ctx, testKey, "s9")
	assert.ErrorIs(t, err, ErrUnknownStudent)

	state, open, err := s.State(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, open)
	assert.Equal(t, map[string]bool{"s1": true, "s2": false}, state)

	// The returned map is a copy
	state["s2"] = true
	again, _, _ := s.State(ctx, testKey)
	assert.False(t, again["s2"])

	require.NoError(t, s.Reset(ctx, testKey, []string{"s1"}))
	state, _, _ = s.State(ctx, testKey)
	assert.Equal(t, map[string]bool{"s1": false}, state)
}

func TestMemoryStore_EmptySessionIsOpen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx, testKey, nil))
	state, open, err := s.State(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, open)
	assert.Empty(t, state)
}

func TestMemoryStore_PruneIdle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 7, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Reset(ctx, "old", []string{"a"}))
	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Reset(ctx, "fresh", []string{"b"}))

	removed, err := s.PruneIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, open, _ := s.State(ctx, "old")
	assert.False(t, open)
	_, open, _ = s.State(ctx, "fresh")
	assert.True(t, open)
}
