package paste

import (
	"context"
	"log"
	"time"

	"github.com/LonleySailor/zkpaste/internal/storage"
)

// Reaper periodically deletes expired pastes via a ticker + stop
// channel lifecycle tied to process start/shutdown.
type Reaper struct {
	store    storage.Store
	interval time.Duration
	stopChan chan struct{}
	nowFn    func() int64
}

// NewReaper returns a Reaper that sweeps store every interval.
func NewReaper(store storage.Store, interval time.Duration) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// Start launches the background sweep goroutine. Safe to call at
// most once per Reaper.
func (r *Reaper) Start() {
	log.Println("paste: starting reaper")
	ticker := time.NewTicker(r.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.stopChan:
				ticker.Stop()
				log.Println("paste: reaper stopped")
				return
			}
		}
	}()
}

// Stop signals the background goroutine to exit. Idempotent: calling
// Stop on a Reaper that was never Start-ed, or calling it again after
// an earlier Stop has returned, does not panic.
func (r *Reaper) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

func (r *Reaper) sweep() {
	ctx := context.Background()
	n, err := r.store.ReapExpired(ctx, r.nowFn())
	if err != nil {
		log.Printf("paste: reaper sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("paste: reaper removed %d expired pastes", n)
	}
}
