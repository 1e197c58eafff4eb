// Package comm is the connection layer: one blocking stream socket per
// request, opened with address and port, timeouts applied from layer
// options, closed by the operation that opened it.
package comm

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultNetworkTimeout = 1500 * time.Millisecond

type Layer interface {
	Open(ctx context.Context, address string, port int) (Conn, error)
}

// Conn is exclusively owned by one operation.
// Read returns 0, io.EOF when peer closed the stream.
type Conn interface {
	Send(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
	Stat() *Stat
}

// Timeout is shared by layer implementations.
// Changing it affects next Open only.
type Timeout struct{ ns int64 }

func (t *Timeout) Set(d time.Duration) {
	if d <= 0 {
		d = DefaultNetworkTimeout
	}
	atomic.StoreInt64(&t.ns, int64(d))
}

func (t *Timeout) Get() time.Duration {
	if d := atomic.LoadInt64(&t.ns); d > 0 {
		return time.Duration(d)
	}
	return DefaultNetworkTimeout
}
