package catalog

import "time"

// DefaultMaxLockDuration is applied to a resource whose descriptor entry
// omits max_lock_duration (spec §3).
const DefaultMaxLockDuration = 86_400 * time.Second

// Resource is an immutable value; every mutation in the store replaces the
// entry wholesale rather than mutating a field in place, so a reader that
// took a copy outside the store's lock never observes a half-updated
// record (spec §4.1).
type Resource struct {
	ID          int
	Name        string
	Description string
	Endpoint    string
	TagsRaw     string
	Tags        map[string]struct{}

	MaxLockDuration time.Duration

	LockToken      string
	LockDetails    string
	LockAcquiredAt time.Time
	LockExpiresAt  time.Time
}

// Locked reports whether the resource currently carries a lock token.
func (r Resource) Locked() bool {
	return r.LockToken != ""
}

// HasTags reports whether required ⊆ r.Tags (spec §4.3).
func (r Resource) HasTags(required map[string]struct{}) bool {
	if len(required) == 0 {
		return false
	}
	for tag := range required {
		if _, ok := r.Tags[tag]; !ok {
			return false
		}
	}
	return true
}

// withLock returns a copy of r with the lock fields set, leaving identity
// fields untouched.
func (r Resource) withLock(token, details string, acquiredAt, expiresAt time.Time) Resource {
	r.LockToken = token
	r.LockDetails = details
	r.LockAcquiredAt = acquiredAt
	r.LockExpiresAt = expiresAt
	return r
}

// withoutLock returns a copy of r with all lock fields cleared.
func (r Resource) withoutLock(details string) Resource {
	r.LockToken = ""
	r.LockDetails = details
	r.LockAcquiredAt = time.Time{}
	r.LockExpiresAt = time.Time{}
	return r
}
