package tools

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces out calls to a remote service so at most one call starts
// per Interval.
type Pacer struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Wait blocks until the next call may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wait := time.Until(p.last.Add(p.Interval)); wait > 0 && !p.last.IsZero() {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.last = time.Now()
	return nil
}
