// Package atomic_clock keeps wall time moments readable without locks.
// Resolution is nanoseconds, zero value means never set.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

type Clock struct{ ns atomic.Int64 }

func (c *Clock) IsZero() bool { return c.ns.Load() == 0 }

func (c *Clock) Set(t time.Time) {
	if t.IsZero() {
		c.ns.Store(0)
		return
	}
	c.ns.Store(t.UnixNano())
}

func (c *Clock) SetNow() { c.ns.Store(time.Now().UnixNano()) }

// Time of zero clock is zero time.Time, not 1970.
func (c *Clock) Time() time.Time {
	ns := c.ns.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Since zero clock is zero duration.
func (c *Clock) Since() time.Duration {
	ns := c.ns.Load()
	if ns == 0 {
		return 0
	}
	return time.Duration(time.Now().UnixNano() - ns)
}
