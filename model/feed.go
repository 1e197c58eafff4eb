package model

import (
	"fmt"

	"github.com/temoto/xively/bounded"
	"github.com/temoto/xively/xerr"
)

// Datastream is a named ordered series. Copying a Datastream shares
// datapoint storage.
type Datastream struct {
	ID     string
	Points bounded.List[Datapoint]
}

func NewDatastream(id string) *Datastream { return NewDatastreamCap(id, MaxDatapoints) }

func NewDatastreamCap(id string, capacity int) *Datastream {
	if capacity > MaxDatapoints {
		panic(fmt.Sprintf("code error datastream capacity=%d max=%d", capacity, MaxDatapoints))
	}
	return &Datastream{ID: id, Points: bounded.New[Datapoint](capacity)}
}

// Add fails when datastream is at capacity, existing points are kept.
func (ds *Datastream) Add(dp Datapoint) error {
	if err := ds.Points.Add(dp); err != nil {
		return xerr.New(xerr.KindPrecondition, fmt.Sprintf("datastream=%s add capacity=%d", ds.ID, ds.Points.Cap()), err)
	}
	return nil
}

func (ds *Datastream) Len() int { return ds.Points.Len() }

// Last returns most recent datapoint or nil.
func (ds *Datastream) Last() *Datapoint {
	if n := ds.Points.Len(); n > 0 {
		return ds.Points.At(n - 1)
	}
	return nil
}

func (ds *Datastream) String() string {
	return fmt.Sprintf("(datastream id=%s points=%s)", ds.ID, ds.Points.String())
}

type Feed struct {
	ID          int32
	Datastreams bounded.List[Datastream]

	pointCap int
}

func NewFeed(id int32) *Feed { return NewFeedCap(id, MaxDatastreams, MaxDatapoints) }

func NewFeedCap(id int32, streams, points int) *Feed {
	if streams > MaxDatastreams || points > MaxDatapoints {
		panic(fmt.Sprintf("code error feed capacity streams=%d points=%d", streams, points))
	}
	return &Feed{
		ID:          id,
		Datastreams: bounded.New[Datastream](streams),
		pointCap:    points,
	}
}

// AddDatastream fails when feed is at capacity.
// Returned pointer stays valid until Reset.
func (f *Feed) AddDatastream(id string) (*Datastream, error) {
	ds := f.Datastreams.Grow()
	if ds == nil {
		return nil, xerr.New(xerr.KindPrecondition,
			fmt.Sprintf("feed=%d add datastream=%s capacity=%d", f.ID, id, f.Datastreams.Cap()), bounded.ErrFull)
	}
	ds.ID = id
	ds.Points = bounded.New[Datapoint](f.pointCap)
	return ds, nil
}

func (f *Feed) Datastream(id string) *Datastream {
	for i := 0; i < f.Datastreams.Len(); i++ {
		if ds := f.Datastreams.At(i); ds.ID == id {
			return ds
		}
	}
	return nil
}

// Ensure finds datastream by id or adds new one.
func (f *Feed) Ensure(id string) (*Datastream, error) {
	if ds := f.Datastream(id); ds != nil {
		return ds, nil
	}
	return f.AddDatastream(id)
}

func (f *Feed) Reset() { f.Datastreams.Reset() }

func (f *Feed) PointCap() int { return f.pointCap }

func (f *Feed) String() string {
	return fmt.Sprintf("(feed id=%d datastreams=%s)", f.ID, f.Datastreams.String())
}
