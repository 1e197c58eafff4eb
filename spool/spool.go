// Package spool keeps feed updates that could not be delivered,
// persistent across restarts. Order is FIFO, requeued entries go last.
package spool

//go:generate protoc --go_out=paths=source_relative:./ entry.proto

import (
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/spq"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/model"
)

// ErrClosed is returned by Peek after Close.
var ErrClosed = spq.ErrClosed

type Spool struct {
	log *log2.Log
	q   *spq.Queue
}

// Open with path spq.OnlyForTesting keeps entries in memory.
func Open(path string, log *log2.Log) (*Spool, error) {
	if path == "" {
		return nil, errors.NotValidf("spool path empty")
	}
	q, err := spq.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "spool open path=%s", path)
	}
	return &Spool{log: log, q: q}, nil
}

func (s *Spool) Close() error { return s.q.Close() }

func (s *Spool) Push(feed *model.Feed) error {
	if feed == nil {
		panic("code error spool.Push feed=nil")
	}
	b, err := proto.Marshal(EntryFromFeed(feed, time.Now()))
	if err != nil {
		return errors.Annotate(err, "spool marshal")
	}
	if err = s.q.Push(b); err != nil {
		return errors.Annotate(err, "spool push")
	}
	s.log.Debugf("spool push feed=%d size=%d", feed.ID, len(b))
	return nil
}

// Peek blocks until entry is available or spool is closed.
// Corrupted entry is returned with error and valid box, caller should Delete it.
func (s *Spool) Peek() (*model.Feed, time.Time, spq.Box, error) {
	box, err := s.q.Peek()
	if err != nil {
		return nil, time.Time{}, box, err
	}
	var e Entry
	if err = proto.Unmarshal(box.Bytes(), &e); err != nil {
		return nil, time.Time{}, box, errors.Annotatef(err, "spool unmarshal b=%x", box.Bytes())
	}
	feed, err := e.Feed()
	if err != nil {
		return nil, time.Time{}, box, err
	}
	return feed, time.Unix(e.CreatedUnix, 0), box, nil
}

func (s *Spool) Delete(box spq.Box) error { return s.q.Delete(box) }

// Requeue moves entry to the end of spool.
func (s *Spool) Requeue(box spq.Box) error { return s.q.DeletePush(box) }

func EntryFromFeed(feed *model.Feed, created time.Time) *Entry {
	e := &Entry{
		FeedId:      feed.ID,
		CreatedUnix: created.Unix(),
		Streams:     make([]*Stream, 0, feed.Datastreams.Len()),
	}
	for _, ds := range feed.Datastreams.Items() {
		st := &Stream{Id: ds.ID, Points: make([]*Point, 0, ds.Points.Len())}
		for _, dp := range ds.Points.Items() {
			p := &Point{Kind: uint32(dp.Type()), Sec: dp.Timestamp.Sec, Micro: dp.Timestamp.Micro}
			switch dp.Type() {
			case model.TypeI32:
				p.I32 = dp.I32()
			case model.TypeF32:
				p.F32 = dp.F32()
			case model.TypeStr:
				p.Str = dp.Str()
			}
			st.Points = append(st.Points, p)
		}
		e.Streams = append(e.Streams, st)
	}
	return e
}

// Feed converts entry back, fails when entry exceeds current limits.
func (e *Entry) Feed() (*model.Feed, error) {
	feed := model.NewFeed(e.FeedId)
	for _, st := range e.Streams {
		ds, err := feed.AddDatastream(st.Id)
		if err != nil {
			return nil, errors.Annotate(err, "spool entry")
		}
		for _, p := range st.Points {
			var dp model.Datapoint
			switch model.ValueType(p.Kind) {
			case model.TypeI32:
				dp.SetI32(p.I32)
			case model.TypeF32:
				dp.SetF32(p.F32)
			case model.TypeStr:
				if err = dp.SetStr(p.Str); err != nil {
					return nil, errors.Annotate(err, "spool entry")
				}
			default:
				return nil, errors.NotValidf("spool entry stream=%s point kind=%d", st.Id, p.Kind)
			}
			dp.Timestamp = model.Timestamp{Sec: p.Sec, Micro: p.Micro}
			if err = ds.Add(dp); err != nil {
				return nil, errors.Annotate(err, "spool entry")
			}
		}
	}
	return feed, nil
}
