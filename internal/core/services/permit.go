package services

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Permit is a process-wide counting limiter for completion calls.
// It records how many holders are active and the highest count seen.
type Permit struct {
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewPermit creates a permit with the given capacity.
// Non-positive capacities use the default of 8.
func NewPermit(capacity int) *Permit {
	if capacity <= 0 {
		capacity = 8
	}
	return &Permit{sem: semaphore.NewWeighted(int64(capacity))}
}

// Acquire blocks until a slot is free or ctx is done.
// The returned release func must be called exactly once.
func (p *Permit) Acquire(ctx context.Context) (release func(), err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	n := p.inFlight.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			p.inFlight.Add(-1)
			p.sem.Release(1)
		}
	}, nil
}

// Do runs fn while holding a slot. The slot is released on every exit path.
func (p *Permit) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// InFlight returns the number of current holders.
func (p *Permit) InFlight() int {
	return int(p.inFlight.Load())
}

// Peak returns the highest number of concurrent holders observed.
func (p *Permit) Peak() int {
	return int(p.peak.Load())
}
