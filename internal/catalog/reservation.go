package catalog

import "time"

// ReservationStatus is one of the three observable states a reservation
// passes through before it is deleted (spec §3, R3).
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusFulfilled ReservationStatus = "fulfilled"
	StatusClaimed   ReservationStatus = "claimed"
)

// ClaimWindow is the fixed interval after fulfillment during which a
// client must claim a reservation before the scheduler reclaims it
// (spec §3, §4.7 Phase B).
const ClaimWindow = 60 * time.Second

// Reservation is an immutable value, mutated the same way Resource is:
// copy, change, replace under the store's reservation lock.
type Reservation struct {
	ID       string
	Tags     map[string]struct{}
	Quantity int
	TTL      time.Duration
	Status   ReservationStatus

	CreatedAt      time.Time
	ExpiresAt      time.Time
	FulfilledAt    time.Time
	ClaimExpiresAt time.Time
	ClaimedAt      time.Time

	ResourceIDs []int
	LockTokens  []string
}

// Fulfilled returns a copy of res transitioned to fulfilled with the given
// resource/token payload (spec §3, R1/R2).
func (res Reservation) Fulfilled(now time.Time, resourceIDs []int, lockTokens []string) Reservation {
	res.Status = StatusFulfilled
	res.FulfilledAt = now
	res.ClaimExpiresAt = now.Add(ClaimWindow)
	res.ResourceIDs = resourceIDs
	res.LockTokens = lockTokens
	return res
}

// Claimed returns a copy of res transitioned to claimed.
func (res Reservation) Claimed(now time.Time) Reservation {
	res.Status = StatusClaimed
	res.ClaimedAt = now
	return res
}
