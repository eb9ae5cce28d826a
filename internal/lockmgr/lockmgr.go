// Package lockmgr implements the single-resource lock operations (spec
// §4.2), grounded on engine/infra/cache/lock_manager.go's shape: an
// Acquire/Release/Refresh surface backed by a generated opaque token,
// adapted from Redis SETNX + Lua-script ownership checks to an in-memory
// catalog.Store guarded by its own mutex.
package lockmgr

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/catalog"
)

// Manager performs token-authenticated state transitions on individual
// resources in a Store.
type Manager struct {
	store *catalog.Store
	now   func() time.Time
}

// New returns a Manager bound to store, using time.Now as its clock.
func New(store *catalog.Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// NewWithClock is used by tests to inject a deterministic clock.
func NewWithClock(store *catalog.Store, now func() time.Time) *Manager {
	return &Manager{store: store, now: now}
}

func notFound(id int) error {
	return apperrors.New(apperrors.ResourceNotFound, "Resource not found",
		apperrors.Details("resource_id", id))
}

// Lock acquires resource id for ttl seconds, returning the fresh token and
// the updated resource (spec §4.2).
func (m *Manager) Lock(id int, ttl time.Duration) (string, catalog.Resource, error) {
	var (
		token  string
		result catalog.Resource
		resErr error
	)
	m.store.WithResourceLock(func(resources map[int]catalog.Resource) {
		r, ok := resources[id]
		if !ok {
			resErr = notFound(id)
			return
		}
		if r.Locked() {
			resErr = apperrors.New(apperrors.ResourceAlreadyLocked,
				"Cannot lock the requested resource, resource already locked",
				apperrors.Details("resource_id", id))
			return
		}
		if ttl > r.MaxLockDuration {
			resErr = invalidTTL(id, ttl, r.MaxLockDuration)
			return
		}

		token = uuid.NewString()
		now := m.now()
		updated := r.withLock(token, "Resource locked", now, now.Add(ttl))
		resources[id] = updated
		result = updated
	})
	return token, result, resErr
}

// Unlock releases resource id, authorized solely by token equality
// (spec §4.2; no other identity is consulted).
func (m *Manager) Unlock(id int, token string) error {
	var resErr error
	m.store.WithResourceLock(func(resources map[int]catalog.Resource) {
		r, ok := resources[id]
		if !ok {
			resErr = notFound(id)
			return
		}
		if !r.Locked() {
			resErr = apperrors.New(apperrors.ResourceAlreadyUnlocked, "Resource is already unlocked",
				apperrors.Details("resource_id", id))
			return
		}
		if token != r.LockToken {
			resErr = invalidToken(id, token)
			return
		}
		resources[id] = r.withoutLock("Resource available")
	})
	return resErr
}

// Extend refreshes resource id's expiry to now + additionalTTL. This is a
// set, not an additive extension from the prior expiry — it can shorten
// the lock. Preserved verbatim from the source behavior (spec §4.2, §9
// Open Question: resolved in favor of the documented behavior).
func (m *Manager) Extend(id int, token string, additionalTTL time.Duration) (catalog.Resource, error) {
	var (
		result catalog.Resource
		resErr error
	)
	m.store.WithResourceLock(func(resources map[int]catalog.Resource) {
		r, ok := resources[id]
		if !ok {
			resErr = notFound(id)
			return
		}
		if !r.Locked() {
			resErr = apperrors.New(apperrors.ResourceAlreadyUnlocked, "Resource is already unlocked",
				apperrors.Details("resource_id", id))
			return
		}
		if token != r.LockToken {
			resErr = invalidToken(id, token)
			return
		}
		now := m.now()
		newExpiry := now.Add(additionalTTL)
		if newExpiry.Sub(r.LockAcquiredAt) > r.MaxLockDuration {
			resErr = invalidTTL(id, newExpiry.Sub(r.LockAcquiredAt), r.MaxLockDuration)
			return
		}
		updated := r.withLock(r.LockToken, r.LockDetails, r.LockAcquiredAt, newExpiry)
		resources[id] = updated
		result = updated
	})
	return result, resErr
}

// UnlockByToken releases whichever resource currently carries token,
// regardless of id. Used internally by the fulfillment scheduler to
// release resources it once handed out (spec §4.2, §4.7 Phase B).
// NotFound is expected and harmless if the caller already unlocked.
func (m *Manager) UnlockByToken(token string) error {
	var resErr error = apperrors.New(apperrors.ResourceNotFound,
		"No resource currently holds this token", apperrors.Details("token", token))
	m.store.WithResourceLock(func(resources map[int]catalog.Resource) {
		for id, r := range resources {
			if r.LockToken == token {
				resources[id] = r.withoutLock("Resource available")
				resErr = nil
				return
			}
		}
	})
	return resErr
}

func invalidToken(id int, token string) error {
	return apperrors.New(apperrors.InvalidLockToken, "Cannot unlock resource, the lock token is not valid",
		apperrors.Details("resource_id", id, "invalid_lock_token", token))
}

func invalidTTL(id int, requested, max time.Duration) error {
	return apperrors.New(apperrors.InvalidTTL,
		fmt.Sprintf("ttl %s exceeds max_lock_duration %s", requested, max),
		apperrors.Details("resource_id", id, "requested_ttl_seconds", int(requested.Seconds()),
			"max_lock_duration_seconds", int(max.Seconds())))
}
