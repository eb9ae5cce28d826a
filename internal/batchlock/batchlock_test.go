package batchlock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/batchlock"
	"github.com/rentabot/rentabot/internal/catalog"
)

func seeded() *catalog.Store {
	store := catalog.New()
	store.Seed([]catalog.Resource{
		{ID: 1, Name: "a", Tags: map[string]struct{}{"gpu": {}}, MaxLockDuration: time.Hour},
		{ID: 2, Name: "b", Tags: map[string]struct{}{"gpu": {}}, MaxLockDuration: time.Hour},
		{ID: 3, Name: "c", Tags: map[string]struct{}{"cpu": {}}, MaxLockDuration: time.Hour},
	})
	return store
}

func TestLockByTagsAllOrNothing(t *testing.T) {
	store := seeded()
	locker := batchlock.New(store)

	locked, err := locker.LockByTags(map[string]struct{}{"gpu": {}}, 2, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, []int{1, 2}, []int{locked[0].ID, locked[1].ID})

	for _, r := range locked {
		stored, _ := store.GetResource(r.ID)
		assert.True(t, stored.Locked())
	}
}

func TestLockByTagsInsufficientLeavesNoneLocked(t *testing.T) {
	store := seeded()
	locker := batchlock.New(store)

	_, err := locker.LockByTags(map[string]struct{}{"gpu": {}}, 3, 30*time.Second)
	require.Error(t, err)
	kind, _ := apperrors.KindOf(err)
	assert.Equal(t, apperrors.InsufficientResources, kind)

	for id := 1; id <= 2; id++ {
		r, _ := store.GetResource(id)
		assert.False(t, r.Locked(), "no partial lock should survive a failed batch")
	}
}

func TestLockByTagsSkipsAlreadyLocked(t *testing.T) {
	store := seeded()
	locker := batchlock.New(store)

	_, err := locker.LockByTags(map[string]struct{}{"gpu": {}}, 1, 30*time.Second)
	require.NoError(t, err)

	locked, err := locker.LockByTags(map[string]struct{}{"gpu": {}}, 1, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, 2, locked[0].ID)
}
