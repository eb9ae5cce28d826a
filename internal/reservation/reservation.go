// Package reservation implements reservation create/get/cancel/claim/list
// (spec §4.5), grounded on engine/core/id.go's KSUID-backed ID generator,
// generalized to the "res_"-prefixed opaque string spec §3 requires.
package reservation

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/tagmatch"
)

// Manager creates and transitions reservations against a Store.
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

// newID mints a fresh "res_"-prefixed reservation id (spec §3).
func newID() (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "res_" + id.String(), nil
}

// Create validates tags/quantity against the catalog shape (not current
// availability) and enqueues a pending reservation (spec §4.5).
func (m *Manager) Create(tagsRaw string, quantity int, maxWaitTime, ttl time.Duration) (catalog.Reservation, error) {
	tags := tagmatch.Parse(tagsRaw)
	if len(tags) == 0 {
		return catalog.Reservation{}, apperrors.New(apperrors.InvalidReservationTags,
			"Reservation tags must not be empty", nil)
	}
	if quantity <= 0 {
		return catalog.Reservation{}, apperrors.New(apperrors.InvalidReservationTags,
			"Reservation quantity must be positive", apperrors.Details("quantity", quantity))
	}

	all := m.store.ListResources()
	tagMatched := tagmatch.Match(tags, all)
	if len(tagMatched) == 0 {
		return catalog.Reservation{}, apperrors.New(apperrors.ResourceNotFound,
			"No resource matches the requested tags", apperrors.Details("tags", tagsRaw))
	}

	compatible := 0
	for _, r := range tagMatched {
		if r.MaxLockDuration >= ttl {
			compatible++
		}
	}
	if compatible < quantity {
		return catalog.Reservation{}, apperrors.New(apperrors.InvalidTTL,
			"Fewer than quantity resources are both tag- and ttl-compatible",
			apperrors.Details("requested", quantity, "compatible", compatible,
				"requested_ttl_seconds", int(ttl.Seconds())))
	}

	id, err := newID()
	if err != nil {
		return catalog.Reservation{}, err
	}
	now := m.now()
	res := catalog.Reservation{
		ID:        id,
		Tags:      tags,
		Quantity:  quantity,
		TTL:       ttl,
		Status:    catalog.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(maxWaitTime),
	}
	m.store.PutReservation(res)
	return res, nil
}

// Get returns the reservation by id, with PositionInQueue computed fresh
// (only meaningful while pending; spec §3, R4).
func (m *Manager) Get(id string) (catalog.Reservation, int, error) {
	res, ok := m.store.GetReservation(id)
	if !ok {
		return catalog.Reservation{}, 0, notFound(id)
	}
	pos := 0
	if res.Status == catalog.StatusPending {
		pos = m.store.PendingQueuePosition(id)
	}
	return res, pos, nil
}

// Entry pairs a reservation with its computed FIFO queue position.
type Entry struct {
	Reservation catalog.Reservation
	Position    int
}

// List returns every reservation, each paired with its computed queue
// position (0 unless pending).
func (m *Manager) List() []Entry {
	all := m.store.ListReservations()
	out := make([]Entry, 0, len(all))
	for _, res := range all {
		pos := 0
		if res.Status == catalog.StatusPending {
			pos = m.store.PendingQueuePosition(res.ID)
		}
		out = append(out, Entry{Reservation: res, Position: pos})
	}
	return out
}

// Cancel deletes a pending reservation. Fulfilled/claimed reservations
// cannot be cancelled (spec §4.5): they have already consumed resources
// and cancellation is deliberately disallowed to prevent silent leaks.
func (m *Manager) Cancel(id string) error {
	var resErr error
	m.store.WithReservationLock(func(reservations map[string]catalog.Reservation) {
		res, ok := reservations[id]
		if !ok {
			resErr = notFound(id)
			return
		}
		if res.Status != catalog.StatusPending {
			resErr = apperrors.New(apperrors.ReservationCannotBeCancelled,
				"Only a pending reservation can be cancelled",
				apperrors.Details("reservation_id", id, "status", string(res.Status)))
			return
		}
		delete(reservations, id)
	})
	return resErr
}

// Claim transitions a fulfilled reservation to claimed, handing ownership
// of its lock tokens to the caller. The caller is expected to unlock them
// eventually via the normal lock manager (spec §4.5).
func (m *Manager) Claim(id string) (catalog.Reservation, error) {
	var (
		result catalog.Reservation
		resErr error
	)
	now := m.now()
	m.store.WithReservationLock(func(reservations map[string]catalog.Reservation) {
		res, ok := reservations[id]
		if !ok {
			resErr = apperrors.New(apperrors.ReservationNotFound, "Reservation not found",
				apperrors.Details("reservation_id", id))
			return
		}
		switch res.Status {
		case catalog.StatusPending:
			resErr = apperrors.New(apperrors.ReservationNotFulfilled,
				"Reservation is not yet fulfilled", apperrors.Details("reservation_id", id))
			return
		case catalog.StatusClaimed:
			resErr = apperrors.New(apperrors.ReservationNotFound,
				"Reservation already claimed", apperrors.Details("reservation_id", id))
			return
		}
		if !now.Before(res.ClaimExpiresAt) {
			resErr = apperrors.New(apperrors.ReservationClaimExpired,
				"The claim window for this reservation has elapsed",
				apperrors.Details("reservation_id", id, "claim_expires_at", res.ClaimExpiresAt))
			return
		}
		updated := res.Claimed(now)
		reservations[id] = updated
		result = updated
	})
	return result, resErr
}

func notFound(id string) error {
	return apperrors.New(apperrors.ReservationNotFound, "Reservation not found",
		apperrors.Details("reservation_id", id))
}
