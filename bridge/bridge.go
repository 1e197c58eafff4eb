// Package bridge forwards values published to MQTT topics
// `{prefix}/{datastream}` into Xively feed updates.
//
// Latest value per datastream is kept until next flush. Flush runs
// every MinInterval and puts one feed update into poller mailbox.
// Failed updates go to spool and are retried with backoff.
//
// With ReadInterval set, feed is read back periodically and last value
// of every datastream is published to `{prefix}/out/{datastream}`.
package bridge

import (
	"bytes"
	"context"
	"expvar"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/xively/csvdata"
	"github.com/temoto/xively/helpers"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/mailbox"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/spool"
	"github.com/temoto/xively/transport"
	"github.com/temoto/xively/xerr"
)

const MinInterval = 5 * time.Second

const publishTimeout = 5 * time.Second

type Options struct {
	Log         *log2.Log
	FeedID      int32
	TopicPrefix string
	QoS         byte
	// MinInterval below 5s is raised to 5s, except in tests via Bridge.Flush.
	MinInterval time.Duration
	RetryDelay  time.Duration
	// ReadInterval 0 disables feed read back, below MinInterval is raised.
	ReadInterval time.Duration
	// Now is time source for datapoint timestamps, default time.Now.
	Now func() time.Time
}

type Stat struct {
	Received expvar.Int
	Dropped  expvar.Int
	Flushed  expvar.Int
	Failed   expvar.Int
	Spooled  expvar.Int
	Retried  expvar.Int
	Merged   expvar.Int
	Read     expvar.Int
	Publish  expvar.Int
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"received":%d,"dropped":%d,"flushed":%d,"failed":%d,"spooled":%d,"retried":%d,"merged":%d,"read":%d,"publish":%d}`,
		s.Received.Value(), s.Dropped.Value(), s.Flushed.Value(), s.Failed.Value(), s.Spooled.Value(), s.Retried.Value(),
		s.Merged.Value(), s.Read.Value(), s.Publish.Value())
}

type Bridge struct {
	opt     Options
	log     *log2.Log
	poller  *mailbox.Poller
	spool   *spool.Spool
	alive   *alive.Alive
	backoff helpers.Backoff
	stat    Stat

	// nil unless ReadInterval is set
	reader *mailbox.Poller

	mu   sync.Mutex
	feed *model.Feed
	last *model.Feed
	mqtt mqtt.Client
}

// New with nil spool drops failed updates.
func New(poller *mailbox.Poller, sp *spool.Spool, opt Options) *Bridge {
	if poller == nil {
		panic("code error bridge.New poller=nil")
	}
	if opt.MinInterval < MinInterval {
		opt.MinInterval = MinInterval
	}
	if opt.RetryDelay <= 0 {
		opt.RetryDelay = 13 * time.Second
	}
	if opt.TopicPrefix == "" {
		opt.TopicPrefix = "xively"
	}
	opt.TopicPrefix = strings.TrimSuffix(opt.TopicPrefix, "/")
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.ReadInterval < 0 {
		opt.ReadInterval = 0
	}
	if opt.ReadInterval > 0 && opt.ReadInterval < opt.MinInterval {
		opt.ReadInterval = opt.MinInterval
	}
	b := &Bridge{
		opt:     opt,
		log:     opt.Log,
		poller:  poller,
		spool:   sp,
		alive:   alive.NewAlive(),
		backoff: helpers.Backoff{Min: opt.RetryDelay, Max: 10 * opt.RetryDelay, K: 2},
		feed:    model.NewFeedCap(opt.FeedID, model.MaxDatastreams, 1),
		last:    model.NewFeedCap(opt.FeedID, model.MaxDatastreams, 1),
	}
	if opt.ReadInterval > 0 {
		// operations of one client are serialized, reader waits for writer
		b.reader = mailbox.NewPoller(poller.Client(), 0, opt.Log)
	}
	return b
}

func (b *Bridge) Stat() *Stat { return &b.stat }

func (b *Bridge) Topic() string { return b.opt.TopicPrefix + "/+" }

func (b *Bridge) OutTopic(id string) string { return b.opt.TopicPrefix + "/out/" + id }

// Reader is nil when read back is disabled.
func (b *Bridge) Reader() *mailbox.Poller { return b.reader }

// Subscribe is meant for mqtt OnConnectHandler, subscriptions are lost on reconnect.
func (b *Bridge) Subscribe(c mqtt.Client) error {
	topic := b.Topic()
	b.mu.Lock()
	b.mqtt = c
	b.mu.Unlock()
	token := c.Subscribe(topic, b.opt.QoS, b.HandleMessage)
	if token.Wait() && token.Error() != nil {
		return errors.Annotatef(token.Error(), "mqtt subscribe topic=%s", topic)
	}
	b.log.Infof("mqtt subscribed topic=%s", topic)
	return nil
}

func (b *Bridge) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	b.stat.Received.Add(1)
	if err := b.Ingest(msg.Topic(), msg.Payload()); err != nil {
		b.stat.Dropped.Add(1)
		b.log.Errorf("bridge drop topic=%s payload=%q err=%v", msg.Topic(), msg.Payload(), err)
	}
}

// Ingest stores payload as latest value of datastream named by topic suffix.
func (b *Bridge) Ingest(topic string, payload []byte) error {
	id := strings.TrimPrefix(topic, b.opt.TopicPrefix+"/")
	if id == topic || !transport.ValidID(id) {
		return xerr.Errorf(xerr.KindPrecondition, "bridge ingest", "topic=%s invalid datastream id", topic)
	}
	var dp model.Datapoint
	if err := csvdata.ParseValue(&dp, string(bytes.TrimSpace(payload))); err != nil {
		return err
	}
	dp.Timestamp = model.TimestampOf(b.opt.Now())

	b.mu.Lock()
	defer b.mu.Unlock()
	ds, err := b.feed.Ensure(id)
	if err != nil {
		return err
	}
	ds.Points.Reset()
	return ds.Add(dp)
}

// Flush puts accumulated values into mailbox, reports whether there were any.
func (b *Bridge) Flush() bool {
	snapshot := b.snapshot()
	if snapshot == nil {
		return false
	}
	b.stat.Flushed.Add(1)
	req := mailbox.FeedUpdate(snapshot, func(r *transport.Response, err error) {
		switch {
		case err == nil:
		case errors.Cause(err) == mailbox.ErrReplaced:
			// merged into newer update
		default:
			b.onUpdateError(snapshot, r, err)
		}
	})
	req.Merge = func(older *mailbox.Request) { b.merge(snapshot, older.Feed) }
	if replaced := b.poller.Put(req); replaced != nil {
		b.stat.Merged.Add(1)
		b.log.Infof("bridge merged pending %s", replaced)
	}
	return true
}

// merge adds datastreams missing in dst from older snapshot src.
func (b *Bridge) merge(dst, src *model.Feed) {
	if src == nil {
		return
	}
	for _, ds := range src.Datastreams.Items() {
		if ds.Len() == 0 || dst.Datastream(ds.ID) != nil {
			continue
		}
		to, err := dst.AddDatastream(ds.ID)
		if err != nil {
			b.stat.Dropped.Add(1)
			b.log.Errorf("bridge merge drop datastream=%s err=%v", ds.ID, err)
			continue
		}
		_ = to.Add(*ds.Last())
	}
}

func (b *Bridge) snapshot() *model.Feed {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.feed.Datastreams.Len() == 0 {
		return nil
	}
	// full capacity leaves room to merge replaced snapshot
	f := model.NewFeedCap(b.feed.ID, model.MaxDatastreams, 1)
	for _, ds := range b.feed.Datastreams.Items() {
		if ds.Len() == 0 {
			continue
		}
		copyDs, _ := f.AddDatastream(ds.ID)
		_ = copyDs.Add(*ds.Last())
	}
	b.feed.Reset()
	return f
}

func (b *Bridge) onUpdateError(f *model.Feed, r *transport.Response, err error) {
	b.stat.Failed.Add(1)
	if permanent(r, err) {
		b.log.Errorf("bridge feed=%d update rejected, not retrying err=%v", f.ID, err)
		return
	}
	if b.spool == nil {
		return
	}
	if err := b.spool.Push(f); err != nil {
		b.log.Errorf("bridge spool push err=%v", err)
		return
	}
	b.stat.Spooled.Add(1)
}

// Client errors except rate limiting will not succeed on retry.
func permanent(r *transport.Response, err error) bool {
	switch xerr.KindOf(err) {
	case xerr.KindEncodeOverflow, xerr.KindPrecondition:
		return true
	case xerr.KindStatus:
		return r != nil && r.StatusCode >= 400 && r.StatusCode < 500 && r.StatusCode != 429
	}
	return false
}

// Read puts feed get into reader mailbox, reports false when read back is disabled.
func (b *Bridge) Read() bool {
	if b.reader == nil {
		return false
	}
	feed := model.NewFeed(b.opt.FeedID)
	b.reader.Put(mailbox.FeedGet(feed, func(r *transport.Response, err error) {
		if err != nil {
			if errors.Cause(err) != mailbox.ErrReplaced {
				b.log.Errorf("bridge feed=%d read err=%v", feed.ID, err)
			}
			return
		}
		b.stat.Read.Add(1)
		b.onRead(feed)
	}))
	return true
}

// Value returns last value of datastream read back from Xively.
func (b *Bridge) Value(id string) (model.Datapoint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ds := b.last.Datastream(id); ds != nil && ds.Len() != 0 {
		return *ds.Last(), true
	}
	return model.Datapoint{}, false
}

func (b *Bridge) onRead(feed *model.Feed) {
	b.mu.Lock()
	b.last.Reset()
	b.merge(b.last, feed)
	c := b.mqtt
	b.mu.Unlock()

	if c == nil || !c.IsConnected() {
		b.log.Debugf("bridge feed=%d read, mqtt not connected", feed.ID)
		return
	}
	for _, ds := range feed.Datastreams.Items() {
		if ds.Len() == 0 {
			continue
		}
		if err := b.publish(c, ds.ID, ds.Last()); err != nil {
			b.log.Errorf("bridge %v", err)
			continue
		}
		b.stat.Publish.Add(1)
	}
}

func (b *Bridge) publish(c mqtt.Client, id string, dp *model.Datapoint) error {
	topic := b.OutTopic(id)
	token := c.Publish(topic, b.opt.QoS, false, dp.AppendValue(nil))
	if !token.WaitTimeout(publishTimeout) {
		return errors.Timeoutf("mqtt publish topic=%s", topic)
	}
	return errors.Annotatef(token.Error(), "mqtt publish topic=%s", topic)
}

// Start runs flush ticker, spool worker and feed reader.
// Stop then Wait to finish.
func (b *Bridge) Start() bool {
	n := 2
	if b.reader != nil {
		n++
	}
	if !b.alive.Add(n) {
		return false
	}
	go b.flushLoop()
	go b.spoolLoop()
	if b.reader != nil {
		b.reader.Start()
		go b.readLoop()
	}
	return true
}

func (b *Bridge) Stop() {
	b.alive.Stop()
	if b.reader != nil {
		b.reader.Stop()
	}
	if b.spool != nil {
		// unblocks Peek
		_ = b.spool.Close()
	}
}

func (b *Bridge) Wait() {
	b.alive.Wait()
	if b.reader != nil {
		b.reader.Wait()
	}
}

func (b *Bridge) readLoop() {
	defer b.alive.Done()
	tmr := time.NewTicker(b.opt.ReadInterval)
	defer tmr.Stop()
	stopch := b.alive.StopChan()
	for {
		select {
		case <-tmr.C:
			b.Read()
		case <-stopch:
			return
		}
	}
}

func (b *Bridge) flushLoop() {
	defer b.alive.Done()
	tmr := time.NewTicker(b.opt.MinInterval)
	defer tmr.Stop()
	stopch := b.alive.StopChan()
	for {
		select {
		case <-tmr.C:
			b.Flush()
		case <-stopch:
			return
		}
	}
}

func (b *Bridge) spoolLoop() {
	defer b.alive.Done()
	if b.spool == nil {
		return
	}
	for b.alive.IsRunning() {
		more, err := b.RetryOne(context.Background())
		if !more {
			return
		}
		if err == nil {
			continue
		}
		select {
		case <-time.After(b.backoff.Delay()):
		case <-b.alive.StopChan():
			return
		}
	}
}

// RetryOne blocks until spooled update is available and sends it.
// Returns false when spool is closed, error when update is left for later.
func (b *Bridge) RetryOne(ctx context.Context) (bool, error) {
	feed, created, box, err := b.spool.Peek()
	switch {
	case err == spool.ErrClosed:
		return false, nil
	case err != nil && box.Bytes() != nil:
		b.log.Errorf("bridge spool corrupted entry deleted err=%v", err)
		return true, b.spool.Delete(box)
	case err != nil:
		b.backoff.Failure()
		return true, errors.Annotate(err, "bridge spool peek")
	}

	b.stat.Retried.Add(1)
	r, err := b.poller.Client().FeedUpdate(ctx, feed)
	switch {
	case err == nil:
		b.log.Debugf("bridge spooled update feed=%d created=%s delivered", feed.ID, created.Format(time.RFC3339))
		b.backoff.Reset()
		return true, b.spool.Delete(box)
	case permanent(r, err):
		b.log.Errorf("bridge spooled update feed=%d rejected, deleted err=%v", feed.ID, err)
		return true, b.spool.Delete(box)
	}
	b.log.Debugf("bridge spooled update feed=%d retry later err=%v", feed.ID, err)
	b.backoff.Failure()
	if qerr := b.spool.Requeue(box); qerr != nil {
		b.log.Errorf("bridge spool requeue err=%v", qerr)
	}
	return true, err
}
