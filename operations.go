package xively

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/xively/csvdata"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/transport"
	"github.com/temoto/xively/xerr"
)

// FeedGet reads current values of all datastreams into feed.
// Feed datastreams are replaced on success and left empty on decode error.
func (c *Client) FeedGet(ctx context.Context, feed *model.Feed) (*transport.Response, error) {
	const op = "feed get"
	if feed == nil {
		panic("code error xively.FeedGet feed=nil")
	}
	r, err := c.roundTrip(ctx, op, func(e *transport.Encoder) ([]byte, error) { return e.FeedGet(feed.ID) })
	if err != nil {
		return r, err
	}
	if err = checkBody(op, r); err != nil {
		return nil, err
	}
	feed.Reset()
	if err = csvdata.DecodeFeed(feed, r.Body); err != nil {
		feed.Reset()
		return nil, errors.Annotate(err, op)
	}
	return r, nil
}

func (c *Client) FeedUpdate(ctx context.Context, feed *model.Feed) (*transport.Response, error) {
	if feed == nil {
		panic("code error xively.FeedUpdate feed=nil")
	}
	return c.roundTrip(ctx, "feed update", func(e *transport.Encoder) ([]byte, error) { return e.FeedUpdate(feed.ID, feed) })
}

// DatastreamGet reads current value of datastream into dp.
func (c *Client) DatastreamGet(ctx context.Context, feedID int32, id string, dp *model.Datapoint) (*transport.Response, error) {
	const op = "datastream get"
	if dp == nil {
		panic("code error xively.DatastreamGet datapoint=nil")
	}
	r, err := c.roundTrip(ctx, op, func(e *transport.Encoder) ([]byte, error) { return e.DatastreamGet(feedID, id) })
	if err != nil {
		return r, err
	}
	if err = checkBody(op, r); err != nil {
		return nil, err
	}
	if err = csvdata.DecodeDatapoint(dp, r.Body); err != nil {
		return nil, errors.Annotate(err, op)
	}
	return r, nil
}

func (c *Client) DatastreamCreate(ctx context.Context, feedID int32, id string, dp *model.Datapoint) (*transport.Response, error) {
	if dp == nil {
		panic("code error xively.DatastreamCreate datapoint=nil")
	}
	return c.roundTrip(ctx, "datastream create", func(e *transport.Encoder) ([]byte, error) { return e.DatastreamCreate(feedID, id, dp) })
}

func (c *Client) DatastreamUpdate(ctx context.Context, feedID int32, ds *model.Datastream) (*transport.Response, error) {
	if ds == nil {
		panic("code error xively.DatastreamUpdate datastream=nil")
	}
	if ds.Len() == 0 {
		return nil, xerr.Errorf(xerr.KindPrecondition, "datastream update", "datastream=%s no datapoints", ds.ID)
	}
	return c.roundTrip(ctx, "datastream update", func(e *transport.Encoder) ([]byte, error) { return e.DatastreamUpdate(feedID, ds) })
}

func (c *Client) DatastreamDelete(ctx context.Context, feedID int32, id string) (*transport.Response, error) {
	return c.roundTrip(ctx, "datastream delete", func(e *transport.Encoder) ([]byte, error) { return e.DatastreamDelete(feedID, id) })
}

// DatapointDelete removes datapoint identified by dp.Timestamp.
func (c *Client) DatapointDelete(ctx context.Context, feedID int32, id string, dp *model.Datapoint) (*transport.Response, error) {
	if dp == nil {
		panic("code error xively.DatapointDelete datapoint=nil")
	}
	return c.roundTrip(ctx, "datapoint delete", func(e *transport.Encoder) ([]byte, error) {
		return e.DatapointDelete(feedID, id, dp.Timestamp)
	})
}

func (c *Client) DatapointDeleteRange(ctx context.Context, feedID int32, id string, start, end model.Timestamp) (*transport.Response, error) {
	return c.roundTrip(ctx, "datapoint delete range", func(e *transport.Encoder) ([]byte, error) {
		return e.DatapointDeleteRange(feedID, id, start, end)
	})
}

// checkBody rejects body cut short of declared Content-Length.
func checkBody(op string, r *transport.Response) error {
	if n, ok := r.ContentLength(); ok && len(r.Body) < n {
		return xerr.Errorf(xerr.KindDecode, op, "body %d bytes of content-length %d", len(r.Body), n)
	}
	return nil
}
