package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalStoreExpiry(t *testing.T) {
	store := newProposalStore(time.Minute, 0)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(routineProposal{ID: "p1", CreatedAt: now})
	got, ok := store.Get("p1")
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), store.ExpiresAt(got))

	now = now.Add(2 * time.Minute)
	_, ok = store.Get("p1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestProposalStoreSweepsOnSave(t *testing.T) {
	store := newProposalStore(time.Minute, 0)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(routineProposal{ID: "old", CreatedAt: now})
	now = now.Add(5 * time.Minute)
	store.Save(routineProposal{ID: "new", CreatedAt: now})

	assert.Equal(t, 1, store.Len())
	_, ok := store.Get("new")
	assert.True(t, ok)
}

func TestProposalStoreEvictsOldestAtLimit(t *testing.T) {
	store := newProposalStore(time.Hour, 2)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(routineProposal{ID: "first", CreatedAt: now})
	store.Save(routineProposal{ID: "second", CreatedAt: now.Add(time.Second)})
	store.Save(routineProposal{ID: "second", CreatedAt: now.Add(2 * time.Second)})
	assert.Equal(t, 2, store.Len())

	store.Save(routineProposal{ID: "third", CreatedAt: now.Add(3 * time.Second)})
	assert.Equal(t, 2, store.Len())

	_, ok := store.Get("first")
	assert.False(t, ok)
	_, ok = store.Get("second")
	assert.True(t, ok)
	_, ok = store.Get("third")
	assert.True(t, ok)
}
