package mailbox

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/xively"
	"github.com/temoto/xively/helpers/atomic_clock"
	"github.com/temoto/xively/log2"
)

const DefaultInterval = time.Second

type Poller struct {
	Slot

	client   *xively.Client
	interval time.Duration
	log      *log2.Log
	alive    *alive.Alive

	lastOK       atomic_clock.Clock
	lastResponse atomic_clock.Clock
	lastErr      atomic.Value // errBox
	dropped      int64
	runs         int64
}

type errBox struct{ error }

func NewPoller(client *xively.Client, interval time.Duration, log *log2.Log) *Poller {
	if client == nil {
		panic("code error mailbox.NewPoller client=nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return &Poller{
		client:   client,
		interval: interval,
		log:      log,
		alive:    alive.NewAlive(),
	}
}

// Put replaces pending request. Replaced request is merged into r
// when r.Merge is set, counted as dropped and finished with ErrReplaced.
// Request taken from slot is never run, so merge sees it exclusively.
func (p *Poller) Put(r *Request) (replaced *Request) {
	for !p.PutEmpty(r) {
		old := p.Take()
		if old == nil {
			continue
		}
		if r.Merge != nil {
			r.Merge(old)
		}
		atomic.AddInt64(&p.dropped, 1)
		p.log.Debugf("mailbox %s replaced %s", r, old)
		if old.Done != nil {
			old.Done(nil, ErrReplaced)
		}
		replaced = old
	}
	return replaced
}

// Start runs poll loop in new goroutine. Stop then Wait to finish.
func (p *Poller) Start() bool {
	if !p.alive.Add(1) {
		return false
	}
	go p.run()
	return true
}

func (p *Poller) Stop()                      { p.alive.Stop() }
func (p *Poller) Wait()                      { p.alive.Wait() }
func (p *Poller) StopChan() <-chan struct{}  { return p.alive.StopChan() }
func (p *Poller) Dropped() int64             { return atomic.LoadInt64(&p.dropped) }
func (p *Poller) Runs() int64                { return atomic.LoadInt64(&p.runs) }
func (p *Poller) LastOK() time.Time          { return p.lastOK.Time() }
func (p *Poller) LastResponse() time.Time    { return p.lastResponse.Time() }
func (p *Poller) Client() *xively.Client     { return p.client }

// SinceLastOK is zero until first success.
func (p *Poller) SinceLastOK() time.Duration { return p.lastOK.Since() }

func (p *Poller) LastError() error {
	if b, ok := p.lastErr.Load().(errBox); ok {
		return b.error
	}
	return nil
}

func (p *Poller) run() {
	defer p.alive.Done()
	tmr := time.NewTicker(p.interval)
	defer tmr.Stop()
	stopch := p.alive.StopChan()
	for {
		select {
		case <-tmr.C:
			p.Tick(context.Background())
		case <-stopch:
			return
		}
	}
}

// Tick runs at most one pending request, reports whether it did.
// Request in flight is never interrupted, only socket timeout ends it.
func (p *Poller) Tick(ctx context.Context) bool {
	r := p.Take()
	if r == nil {
		return false
	}
	atomic.AddInt64(&p.runs, 1)
	response, err := r.Run(ctx, p.client)
	if response != nil {
		p.lastResponse.SetNow()
	}
	p.lastErr.Store(errBox{err})
	if err == nil {
		p.lastOK.SetNow()
	} else {
		p.log.Errorf("mailbox %s err=%v", r, err)
	}
	if r.Done != nil {
		r.Done(response, err)
	}
	return true
}
