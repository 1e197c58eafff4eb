package helpers

import (
	"sync/atomic"
	"time"

	"github.com/temoto/xively/helpers/atomic_clock"
)

// Backoff is retry delay growing K times per failure from Min up to Max.
// No delay until first Failure, Reset returns to that state.
//
//	for {
//		time.Sleep(b.Delay())
//		if err := op(); err != nil { b.Failure() } else { b.Reset() }
//	}
type Backoff struct {
	Min time.Duration
	Max time.Duration
	K   float64

	current atomic.Int64
	failed  atomic_clock.Clock
}

func (b *Backoff) Failure() {
	next := time.Duration(b.current.Load())
	if next == 0 {
		next = b.Min
	} else {
		next = time.Duration(float64(next) * b.K)
	}
	if next < b.Min {
		next = b.Min
	}
	if b.Max > 0 && next > b.Max {
		next = b.Max
	}
	b.failed.SetNow()
	b.current.Store(int64(next))
}

func (b *Backoff) Reset() { b.current.Store(0) }

// Current is full delay after last failure, ignoring time passed since.
func (b *Backoff) Current() time.Duration { return time.Duration(b.current.Load()) }

// Delay is what remains of Current, rounded to milliseconds.
func (b *Backoff) Delay() time.Duration {
	cur := b.Current()
	if cur == 0 {
		return 0
	}
	left := cur - b.failed.Since()
	if left <= 0 {
		return 0
	}
	return left.Round(time.Millisecond)
}
