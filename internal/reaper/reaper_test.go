package reaper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/lockmgr"
	"github.com/rentabot/rentabot/internal/reaper"
)

func TestTickExpiresElapsedLocks(t *testing.T) {
	store := catalog.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	locks := lockmgr.NewWithClock(store, func() time.Time { return clock })
	store.Seed([]catalog.Resource{{ID: 1, Name: "a", MaxLockDuration: time.Hour}})

	_, _, err := locks.Lock(1, 30*time.Second)
	require.NoError(t, err)

	r := reaper.NewWithClock(store, reaper.DefaultInterval, func() time.Time { return clock })
	r.Tick()
	locked, _ := store.GetResource(1)
	assert.True(t, locked.Locked(), "not yet expired")

	clock = now.Add(31 * time.Second)
	r.Tick()
	unlocked, _ := store.GetResource(1)
	assert.False(t, unlocked.Locked())
	assert.Contains(t, unlocked.LockDetails, "Auto-expired")
}

func TestTickIgnoresUnlockedResources(t *testing.T) {
	store := catalog.New()
	store.Seed([]catalog.Resource{{ID: 1, Name: "a"}})
	r := reaper.New(store, reaper.DefaultInterval)
	r.Tick()
	res, _ := store.GetResource(1)
	assert.False(t, res.Locked())
}

func TestStartStop(t *testing.T) {
	store := catalog.New()
	r := reaper.NewWithClock(store, 5*time.Millisecond, time.Now)
	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	r.Stop()
}
