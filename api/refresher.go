/*
refresher.go - Bank calendar snapshot lifecycle

PURPOSE:
  The engine reads bank days from an immutable snapshot, never from the
  database. This file owns that snapshot: a CalendarHolder guards the
  current one, and a Refresher rebuilds it on a timer so externally loaded
  holiday updates become visible without a restart.

DESIGN:
  - Holder swaps the snapshot under a RWMutex; readers take the pointer
    and use it for their whole request, so a mid-request swap cannot make
    one expansion see two calendars.
  - Refresher runs a background goroutine with a configurable interval.
  - Holiday mutations through the API refresh the holder inline; the timer
    only covers out-of-band writes to the database.

USAGE:
  holder := NewCalendarHolder(store)
  holder.Refresh(ctx)
  refresher := NewRefresher(store, holder)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - bankday/bankday.go: the Table snapshot
  - handlers.go: inline refresh after holiday writes
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/openbudget/forecast-engine/bankday"
	"github.com/openbudget/forecast-engine/recurrence"
	"github.com/openbudget/forecast-engine/store/sqlite"
)

// CalendarHolder guards the current bank calendar snapshot.
type CalendarHolder struct {
	store *sqlite.Store

	mu      sync.RWMutex
	current recurrence.BankCalendar
}

// NewCalendarHolder creates a holder. Until the first Refresh, the
// weekend-only calendar is served.
func NewCalendarHolder(store *sqlite.Store) *CalendarHolder {
	return &CalendarHolder{store: store, current: bankday.Weekend{}}
}

// Current returns the active snapshot. Callers keep the returned value for
// the duration of one request.
func (c *CalendarHolder) Current() recurrence.BankCalendar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Refresh rebuilds the snapshot from the holiday table and swaps it in.
func (c *CalendarHolder) Refresh(ctx context.Context) error {
	snapshot, err := c.store.CalendarSnapshot(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = snapshot
	c.mu.Unlock()
	return nil
}

// Refresher periodically rebuilds the calendar snapshot.
type Refresher struct {
	Store    *sqlite.Store
	Holder   *CalendarHolder
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefresher creates a refresher with the default hourly interval.
func NewRefresher(store *sqlite.Store, holder *CalendarHolder) *Refresher {
	return &Refresher{
		Store:    store,
		Holder:   holder,
		Interval: 1 * time.Hour,
		Enabled:  true,
	}
}

// Start begins the background refresh loop.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Enabled || r.ticker != nil {
		return
	}

	r.ticker = time.NewTicker(r.Interval)
	r.stop = make(chan bool)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		log.Printf("Calendar refresher started (interval: %v)", r.Interval)
		for {
			select {
			case <-r.ticker.C:
				if err := r.Holder.Refresh(context.Background()); err != nil {
					log.Printf("Calendar refresh failed: %v", err)
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop halts the refresh loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.wg.Wait()
	r.ticker = nil
	log.Printf("Calendar refresher stopped")
}
