package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentabot/rentabot/internal/catalog"
)

func TestStoreSeedAndGet(t *testing.T) {
	store := catalog.New()
	store.Seed([]catalog.Resource{
		{ID: 1, Name: "gpu-a"},
		{ID: 2, Name: "gpu-b"},
	})

	r, ok := store.GetResource(1)
	require.True(t, ok)
	assert.Equal(t, "gpu-a", r.Name)

	_, ok = store.GetResource(99)
	assert.False(t, ok)

	byName, ok := store.GetResourceByName("gpu-b")
	require.True(t, ok)
	assert.Equal(t, 2, byName.ID)
}

func TestListResourcesSortedByID(t *testing.T) {
	store := catalog.New()
	store.Seed([]catalog.Resource{
		{ID: 3, Name: "c"},
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b"},
	})
	all := store.ListResources()
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
}

func TestPendingQueuePosition(t *testing.T) {
	store := catalog.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.PutReservation(catalog.Reservation{ID: "res_1", Status: catalog.StatusPending, CreatedAt: base})
	store.PutReservation(catalog.Reservation{ID: "res_2", Status: catalog.StatusPending, CreatedAt: base.Add(time.Second)})
	store.PutReservation(catalog.Reservation{ID: "res_3", Status: catalog.StatusFulfilled, CreatedAt: base.Add(2 * time.Second)})

	assert.Equal(t, 1, store.PendingQueuePosition("res_1"))
	assert.Equal(t, 2, store.PendingQueuePosition("res_2"))
	assert.Equal(t, 0, store.PendingQueuePosition("res_3"), "fulfilled reservations have no queue position")
	assert.Equal(t, 0, store.PendingQueuePosition("missing"))
}

func TestPendingSortedByCreatedAtExcludesNonPending(t *testing.T) {
	store := catalog.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.PutReservation(catalog.Reservation{ID: "res_old", Status: catalog.StatusPending, CreatedAt: base})
	store.PutReservation(catalog.Reservation{ID: "res_new", Status: catalog.StatusPending, CreatedAt: base.Add(time.Minute)})
	store.PutReservation(catalog.Reservation{ID: "res_claimed", Status: catalog.StatusClaimed, CreatedAt: base.Add(-time.Hour)})

	pending := store.PendingSortedByCreatedAt()
	require.Len(t, pending, 2)
	assert.Equal(t, "res_old", pending[0].ID)
	assert.Equal(t, "res_new", pending[1].ID)
}

func TestDeleteReservation(t *testing.T) {
	store := catalog.New()
	store.PutReservation(catalog.Reservation{ID: "res_1", Status: catalog.StatusPending})
	store.DeleteReservation("res_1")
	_, ok := store.GetReservation("res_1")
	assert.False(t, ok)
	store.DeleteReservation("missing")
}
