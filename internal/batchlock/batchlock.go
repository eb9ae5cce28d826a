// Package batchlock implements the all-or-nothing multi-resource lock used
// directly by the tag-criterion lock endpoint and by the fulfillment
// scheduler's Phase C (spec §4.4).
package batchlock

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/catalog"
)

// Locker atomically locks N unlocked resources matching a tag set.
type Locker struct {
	store *catalog.Store
	now   func() time.Time
}

// New returns a Locker bound to store, using time.Now as its clock.
func New(store *catalog.Store) *Locker {
	return &Locker{store: store, now: time.Now}
}

// NewWithClock is used by tests to inject a deterministic clock.
func NewWithClock(store *catalog.Store, now func() time.Time) *Locker {
	return &Locker{store: store, now: now}
}

// LockByTags finds `quantity` unlocked resources whose tags ⊇ tags, in id
// order, and locks all of them atomically with ttl, or none. A single
// critical section on the resource mutex enforces the all-or-nothing
// guarantee (spec §4.4).
func (l *Locker) LockByTags(tags map[string]struct{}, quantity int, ttl time.Duration) ([]catalog.Resource, error) {
	var (
		locked []catalog.Resource
		resErr error
	)
	l.store.WithResourceLock(func(resources map[int]catalog.Resource) {
		candidates := matchUnlockedSorted(resources, tags)
		if len(candidates) < quantity {
			resErr = apperrors.New(apperrors.InsufficientResources,
				"Not enough unlocked resources match the requested tags",
				apperrors.Details("requested", quantity, "available", len(candidates)))
			return
		}
		chosen := candidates[:quantity]

		for _, r := range chosen {
			if ttl > r.MaxLockDuration {
				resErr = apperrors.New(apperrors.InvalidTTL,
					"ttl exceeds max_lock_duration for one of the matched resources",
					apperrors.Details("resource_id", r.ID, "requested_ttl_seconds", int(ttl.Seconds()),
						"max_lock_duration_seconds", int(r.MaxLockDuration.Seconds())))
				return
			}
		}

		now := l.now()
		out := make([]catalog.Resource, 0, quantity)
		for _, r := range chosen {
			token := uuid.NewString()
			updated := r
			updated.LockToken = token
			updated.LockDetails = "Resource locked"
			updated.LockAcquiredAt = now
			updated.LockExpiresAt = now.Add(ttl)
			resources[r.ID] = updated
			out = append(out, updated)
		}
		locked = out
	})
	return locked, resErr
}

// matchUnlockedSorted mirrors tagmatch.Match but operates directly on the
// live map under the caller's lock, avoiding a second snapshot/copy pass.
func matchUnlockedSorted(resources map[int]catalog.Resource, tags map[string]struct{}) []catalog.Resource {
	out := make([]catalog.Resource, 0, len(resources))
	for _, r := range resources {
		if !r.Locked() && r.HasTags(tags) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
