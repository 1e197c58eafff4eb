// Package mailbox runs client operations in background, at most one in
// flight. Producers put requests into a single slot, newest request
// replaces pending one. Poller wakes on interval and runs what it finds.
package mailbox

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/xively"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/transport"
)

// ErrReplaced is passed to Done of request replaced by newer one.
var ErrReplaced = errors.New("mailbox request replaced")

type RunFunc func(ctx context.Context, c *xively.Client) (*transport.Response, error)
type DoneFunc func(r *transport.Response, err error)

type Request struct {
	Name string
	Run  RunFunc
	// Done is optional, called from poller goroutine
	// or from Put with ErrReplaced.
	Done DoneFunc
	// Merge is optional, Put calls it with pending request before replacing it.
	Merge func(older *Request)
	// Feed is argument of feed requests.
	Feed *model.Feed
}

func (r *Request) String() string { return fmt.Sprintf("(request %s)", r.Name) }

// Slot is single-request mailbox. Zero value is empty slot.
type Slot struct {
	p atomic.Pointer[Request]
}

// Put stores r, reports whether pending request was replaced.
func (s *Slot) Put(r *Request) (replaced *Request) {
	if r == nil || r.Run == nil {
		panic("code error mailbox.Put request without Run")
	}
	return s.p.Swap(r)
}

// PutEmpty stores r only into empty slot.
func (s *Slot) PutEmpty(r *Request) bool {
	if r == nil || r.Run == nil {
		panic("code error mailbox.PutEmpty request without Run")
	}
	return s.p.CompareAndSwap(nil, r)
}

func (s *Slot) Take() *Request { return s.p.Swap(nil) }

func (s *Slot) Pending() bool { return s.p.Load() != nil }

// Request constructors capture arguments, caller must not modify them
// until Done is called.

func FeedUpdate(feed *model.Feed, done DoneFunc) *Request {
	return &Request{
		Name: fmt.Sprintf("feed update id=%d", feed.ID),
		Run: func(ctx context.Context, c *xively.Client) (*transport.Response, error) {
			return c.FeedUpdate(ctx, feed)
		},
		Done: done,
		Feed: feed,
	}
}

func FeedGet(feed *model.Feed, done DoneFunc) *Request {
	return &Request{
		Name: fmt.Sprintf("feed get id=%d", feed.ID),
		Run: func(ctx context.Context, c *xively.Client) (*transport.Response, error) {
			return c.FeedGet(ctx, feed)
		},
		Done: done,
		Feed: feed,
	}
}
