// Package reaper implements the expiration reaper background loop (spec
// §4.6), grounded on engine/infra/cache/lock_manager.go's autoRenew
// goroutine: a time.Ticker paired with a stop channel, select-driven.
package reaper

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/catalog"
)

// DefaultInterval is the reaper's tick cadence (spec §4.6).
const DefaultInterval = 10 * time.Second

// Reaper periodically unlocks resources whose lock TTL has elapsed.
type Reaper struct {
	store    *catalog.Store
	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// New returns a Reaper bound to store, ticking at interval.
func New(store *catalog.Store, interval time.Duration) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// NewWithClock is used by tests to inject a deterministic clock.
func NewWithClock(store *catalog.Store, interval time.Duration, now func() time.Time) *Reaper {
	r := New(store, interval)
	r.now = now
	return r
}

// Start runs the reaper loop until ctx is cancelled or Stop is called.
// Exceptions within a tick are logged and swallowed; the loop itself never
// exits on its own (spec §4.6).
func (r *Reaper) Start(ctx context.Context) {
	logger := applog.FromContext(ctx)
	ticker := time.NewTicker(r.interval)
	go func() {
		defer close(r.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.tick(logger)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it to do so.
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}

// Tick runs a single reap pass synchronously. Exported so tests can drive
// it deterministically instead of waiting on the wall clock.
func (r *Reaper) Tick() {
	r.tick(applog.FromContext(context.Background()))
}

func (r *Reaper) tick(logger *log.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("reaper tick panicked, swallowing", "recover", rec)
		}
	}()

	// Snapshot first, release the lock, then re-check each expired
	// candidate under the lock before mutating (spec §4.6 step 2): the
	// user may have unlocked or extended in the interim.
	candidates := r.store.ListResources()
	now := r.now()
	expiredCount := 0

	for _, snapshot := range candidates {
		if !snapshot.Locked() || snapshot.LockExpiresAt.After(now) {
			continue
		}
		r.store.WithResourceLock(func(resources map[int]catalog.Resource) {
			current, ok := resources[snapshot.ID]
			if !ok || !current.Locked() || current.LockExpiresAt.After(r.now()) {
				return
			}
			resources[snapshot.ID] = withAutoExpired(current, r.now())
			expiredCount++
		})
	}
	if expiredCount > 0 {
		logger.Debug("reaper tick expired locks", "count", expiredCount)
	}
}

func withAutoExpired(r catalog.Resource, at time.Time) catalog.Resource {
	r.LockToken = ""
	r.LockDetails = "Auto-expired at " + at.UTC().Format(time.RFC3339)
	r.LockAcquiredAt = time.Time{}
	r.LockExpiresAt = time.Time{}
	return r
}
