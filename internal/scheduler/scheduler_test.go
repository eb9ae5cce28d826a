package scheduler_test

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentabot/rentabot/internal/batchlock"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/lockmgr"
	"github.com/rentabot/rentabot/internal/scheduler"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestFulfillPendingMatchesAndTransitions(t *testing.T) {
	store := catalog.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	nowFn := func() time.Time { return clock }

	store.Seed([]catalog.Resource{
		{ID: 1, Tags: map[string]struct{}{"gpu": {}}, MaxLockDuration: time.Hour},
	})
	store.PutReservation(catalog.Reservation{
		ID: "res_1", Status: catalog.StatusPending,
		Tags: map[string]struct{}{"gpu": {}}, Quantity: 1,
		TTL: 10 * time.Minute, CreatedAt: now,
	})

	locker := batchlock.NewWithClock(store, nowFn)
	locks := lockmgr.NewWithClock(store, nowFn)
	sched := scheduler.NewWithClock(store, locker, locks, scheduler.DefaultInterval, nowFn)

	sched.Tick(testLogger())

	res, ok := store.GetReservation("res_1")
	require.True(t, ok)
	assert.Equal(t, catalog.StatusFulfilled, res.Status)
	assert.Equal(t, []int{1}, res.ResourceIDs)

	r, _ := store.GetResource(1)
	assert.True(t, r.Locked())
}

func TestFulfillPendingSkipsInsufficientInFavorOfNext(t *testing.T) {
	store := catalog.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	store.Seed([]catalog.Resource{
		{ID: 1, Tags: map[string]struct{}{"gpu": {}}, MaxLockDuration: time.Hour},
	})
	// res_big asks for more than exist and must not block res_small behind it
	store.PutReservation(catalog.Reservation{
		ID: "res_big", Status: catalog.StatusPending,
		Tags: map[string]struct{}{"gpu": {}}, Quantity: 5,
		TTL: time.Minute, CreatedAt: now,
	})
	store.PutReservation(catalog.Reservation{
		ID: "res_small", Status: catalog.StatusPending,
		Tags: map[string]struct{}{"gpu": {}}, Quantity: 1,
		TTL: time.Minute, CreatedAt: now.Add(time.Second),
	})

	locker := batchlock.NewWithClock(store, nowFn)
	locks := lockmgr.NewWithClock(store, nowFn)
	sched := scheduler.NewWithClock(store, locker, locks, scheduler.DefaultInterval, nowFn)

	sched.Tick(testLogger())

	big, _ := store.GetReservation("res_big")
	assert.Equal(t, catalog.StatusPending, big.Status)

	small, _ := store.GetReservation("res_small")
	assert.Equal(t, catalog.StatusFulfilled, small.Status)
}

func TestExpirePendingPastMaxWait(t *testing.T) {
	store := catalog.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	store.PutReservation(catalog.Reservation{
		ID: "res_stale", Status: catalog.StatusPending,
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute),
	})

	locker := batchlock.NewWithClock(store, nowFn)
	locks := lockmgr.NewWithClock(store, nowFn)
	sched := scheduler.NewWithClock(store, locker, locks, scheduler.DefaultInterval, nowFn)
	sched.Tick(testLogger())

	_, ok := store.GetReservation("res_stale")
	assert.False(t, ok)
}

func TestExpireUnclaimedFulfilledReleasesLocks(t *testing.T) {
	store := catalog.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	store.Seed([]catalog.Resource{
		{ID: 1, Name: "a", LockToken: "tok-a", LockAcquiredAt: now.Add(-time.Hour), LockExpiresAt: now.Add(time.Hour)},
	})
	store.PutReservation(catalog.Reservation{
		ID: "res_unclaimed", Status: catalog.StatusFulfilled,
		FulfilledAt:    now.Add(-2 * catalog.ClaimWindow),
		ClaimExpiresAt: now.Add(-catalog.ClaimWindow),
		LockTokens:     []string{"tok-a"},
		ResourceIDs:    []int{1},
	})

	locker := batchlock.NewWithClock(store, nowFn)
	locks := lockmgr.NewWithClock(store, nowFn)
	sched := scheduler.NewWithClock(store, locker, locks, scheduler.DefaultInterval, nowFn)
	sched.Tick(testLogger())

	_, ok := store.GetReservation("res_unclaimed")
	assert.False(t, ok)

	r, _ := store.GetResource(1)
	assert.False(t, r.Locked())
}
