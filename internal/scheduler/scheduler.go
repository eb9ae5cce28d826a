// Package scheduler implements the fulfillment scheduler background loop
// (spec §4.7): three phases per tick expiring pending and unclaimed
// reservations, then matching freed resources to waiting reservations in
// FIFO order. Grounded on the same ticker/stop-channel idiom as
// internal/reaper, itself adapted from
// engine/infra/cache/lock_manager.go's autoRenew goroutine.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/batchlock"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/lockmgr"
)

// DefaultInterval is the scheduler's tick cadence (spec §4.7).
const DefaultInterval = 10 * time.Second

// Scheduler runs the reservation lifecycle and fulfillment loop.
type Scheduler struct {
	store  *catalog.Store
	locker *batchlock.Locker
	locks  *lockmgr.Manager

	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// New returns a Scheduler wired to the given store and the lock
// primitives it needs (a batch locker for Phase C, a lock manager for
// Phase B's unlock-by-token releases).
func New(store *catalog.Store, locker *batchlock.Locker, locks *lockmgr.Manager, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:    store,
		locker:   locker,
		locks:    locks,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// NewWithClock is used by tests to inject a deterministic clock.
func NewWithClock(
	store *catalog.Store,
	locker *batchlock.Locker,
	locks *lockmgr.Manager,
	interval time.Duration,
	now func() time.Time,
) *Scheduler {
	s := New(store, locker, locks, interval)
	s.now = now
	return s
}

// Start runs the scheduler loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	logger := applog.FromContext(ctx)
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(logger)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it to do so.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Tick runs the three fulfillment phases synchronously. Exported so tests
// and the reserve/fulfill end-to-end scenarios can drive it deterministically.
func (s *Scheduler) Tick(logger *log.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("scheduler tick panicked, swallowing", "recover", rec)
		}
	}()
	s.expirePending(logger)
	s.expireUnclaimedFulfilled(logger)
	s.fulfillPending(logger)
}

// Phase A: expire pending reservations past their max-wait deadline
// (spec §4.7 Phase A).
func (s *Scheduler) expirePending(logger *log.Logger) {
	now := s.now()
	snapshot := s.store.ListReservations()
	expired := 0
	for _, res := range snapshot {
		if res.Status != catalog.StatusPending || res.ExpiresAt.After(now) {
			continue
		}
		s.store.WithReservationLock(func(reservations map[string]catalog.Reservation) {
			current, ok := reservations[res.ID]
			if !ok || current.Status != catalog.StatusPending || current.ExpiresAt.After(s.now()) {
				return
			}
			delete(reservations, res.ID)
			expired++
		})
	}
	if expired > 0 {
		logger.Debug("scheduler phase A expired pending reservations", "count", expired)
	}
}

// Phase B: release resources held by fulfilled-but-unclaimed reservations
// past their claim window, then delete the reservation record
// (spec §4.7 Phase B).
func (s *Scheduler) expireUnclaimedFulfilled(logger *log.Logger) {
	now := s.now()
	snapshot := s.store.ListReservations()
	expired := 0
	for _, res := range snapshot {
		if res.Status != catalog.StatusFulfilled || res.ClaimExpiresAt.After(now) {
			continue
		}
		for _, token := range res.LockTokens {
			if err := s.locks.UnlockByToken(token); err != nil {
				var appErr *apperrors.Error
				if !errors.As(err, &appErr) || appErr.Kind != apperrors.ResourceNotFound {
					logger.Warn("scheduler phase B failed to release lock", "reservation_id", res.ID, "error", err)
				}
			}
		}
		s.store.WithReservationLock(func(reservations map[string]catalog.Reservation) {
			current, ok := reservations[res.ID]
			if !ok || current.Status != catalog.StatusFulfilled || current.ClaimExpiresAt.After(s.now()) {
				return
			}
			delete(reservations, res.ID)
			expired++
		})
	}
	if expired > 0 {
		logger.Debug("scheduler phase B expired unclaimed reservations", "count", expired)
	}
}

// Phase C: attempt to fulfill pending reservations in FIFO order. A
// reservation that cannot currently be satisfied is skipped in favor of
// the next one — the system does not stall the queue behind a
// head-of-line reservation that cannot (yet) be satisfied (spec §4.7
// Phase C, §9 Open Question: intentional throughput-over-ordering policy).
func (s *Scheduler) fulfillPending(logger *log.Logger) {
	pending := s.store.PendingSortedByCreatedAt()
	fulfilled := 0
	for _, res := range pending {
		locked, err := s.locker.LockByTags(res.Tags, res.Quantity, res.TTL)
		if err != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) && appErr.Kind == apperrors.InsufficientResources {
				continue
			}
			logger.Warn("scheduler phase C batch lock failed", "reservation_id", res.ID, "error", err)
			continue
		}

		ids := make([]int, 0, len(locked))
		tokens := make([]string, 0, len(locked))
		for _, r := range locked {
			ids = append(ids, r.ID)
			tokens = append(tokens, r.LockToken)
		}

		applied := false
		s.store.WithReservationLock(func(reservations map[string]catalog.Reservation) {
			current, ok := reservations[res.ID]
			if !ok || current.Status != catalog.StatusPending {
				// Cancelled (or otherwise transitioned) during batch
				// locking: the just-acquired locks are leaked until
				// their TTL expires (spec §9 Open Question, tolerated).
				return
			}
			reservations[res.ID] = current.Fulfilled(s.now(), ids, tokens)
			applied = true
		})
		if applied {
			fulfilled++
		}
	}
	if fulfilled > 0 {
		logger.Debug("scheduler phase C fulfilled reservations", "count", fulfilled)
	}
}
