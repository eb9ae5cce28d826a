package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rentabot/rentabot/internal/catalog"
)

func TestResourceLocked(t *testing.T) {
	r := catalog.Resource{}
	assert.False(t, r.Locked())
	r.LockToken = "tok"
	assert.True(t, r.Locked())
}

func TestResourceHasTags(t *testing.T) {
	r := catalog.Resource{Tags: map[string]struct{}{"gpu": {}, "fast": {}}}
	assert.True(t, r.HasTags(map[string]struct{}{"gpu": {}}))
	assert.True(t, r.HasTags(map[string]struct{}{"gpu": {}, "fast": {}}))
	assert.False(t, r.HasTags(map[string]struct{}{"gpu": {}, "missing": {}}))
	assert.False(t, r.HasTags(map[string]struct{}{}), "an empty requirement never matches")
}

func TestReservationFulfilledAndClaimed(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := catalog.Reservation{ID: "res_1", Status: catalog.StatusPending}

	fulfilled := res.Fulfilled(now, []int{1, 2}, []string{"tok-a", "tok-b"})
	assert.Equal(t, catalog.StatusFulfilled, fulfilled.Status)
	assert.Equal(t, now, fulfilled.FulfilledAt)
	assert.Equal(t, now.Add(catalog.ClaimWindow), fulfilled.ClaimExpiresAt)
	assert.Equal(t, []int{1, 2}, fulfilled.ResourceIDs)

	claimed := fulfilled.Claimed(now.Add(time.Second))
	assert.Equal(t, catalog.StatusClaimed, claimed.Status)
	assert.Equal(t, now.Add(time.Second), claimed.ClaimedAt)

	// original value is untouched by either transition
	assert.Equal(t, catalog.StatusPending, res.Status)
}
