// Package transport turns client operations into HTTP/1.1 request bytes
// and raw response bytes into Response. One request per connection.
package transport

import (
	"fmt"
	"strconv"

	"github.com/temoto/xively/csvdata"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/xerr"
)

const DefaultHost = "api.xively.com"

const (
	MethodGet    = "GET"
	MethodPut    = "PUT"
	MethodPost   = "POST"
	MethodDelete = "DELETE"
)

const opEncode = "http encode"

// Encoder reuses its buffers. Returned bytes are valid until next call.
// Not safe for concurrent use.
type Encoder struct {
	Host   string
	APIKey string

	path []byte
	body []byte
	out  []byte
}

func NewEncoder(host, apiKey string) *Encoder {
	if host == "" {
		host = DefaultHost
	}
	return &Encoder{
		Host:   host,
		APIKey: apiKey,
		path:   make([]byte, 0, 128),
		body:   make([]byte, 0, model.MaxContentSize),
		out:    make([]byte, 0, model.MaxContentSize),
	}
}

func (e *Encoder) FeedGet(feedID int32) ([]byte, error) {
	e.feedPath(feedID)
	e.path = append(e.path, ".csv"...)
	return e.finish(MethodGet, nil)
}

func (e *Encoder) FeedUpdate(feedID int32, f *model.Feed) ([]byte, error) {
	if f == nil {
		panic("code error transport FeedUpdate feed=nil")
	}
	body, err := csvdata.AppendFeed(e.body[:0], f)
	if err != nil {
		return nil, err
	}
	e.feedPath(feedID)
	e.path = append(e.path, ".csv"...)
	return e.finish(MethodPut, body)
}

func (e *Encoder) DatastreamGet(feedID int32, id string) ([]byte, error) {
	if err := e.streamPath(feedID, id); err != nil {
		return nil, err
	}
	e.path = append(e.path, ".csv"...)
	return e.finish(MethodGet, nil)
}

// DatastreamCreate body is `{id},{value}`.
func (e *Encoder) DatastreamCreate(feedID int32, id string, dp *model.Datapoint) ([]byte, error) {
	if dp == nil {
		panic("code error transport DatastreamCreate datapoint=nil")
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	body := append(e.body[:0], id...)
	body = append(body, ',')
	body, err := csvdata.AppendDatapoint(body, dp)
	if err != nil {
		return nil, err
	}
	e.feedPath(feedID)
	e.path = append(e.path, "/datastreams.csv"...)
	return e.finish(MethodPost, body)
}

func (e *Encoder) DatastreamUpdate(feedID int32, ds *model.Datastream) ([]byte, error) {
	if ds == nil {
		panic("code error transport DatastreamUpdate datastream=nil")
	}
	if err := e.streamPath(feedID, ds.ID); err != nil {
		return nil, err
	}
	body, err := csvdata.AppendDatastream(e.body[:0], ds)
	if err != nil {
		return nil, err
	}
	e.path = append(e.path, ".csv"...)
	return e.finish(MethodPut, body)
}

func (e *Encoder) DatastreamDelete(feedID int32, id string) ([]byte, error) {
	if err := e.streamPath(feedID, id); err != nil {
		return nil, err
	}
	return e.finish(MethodDelete, nil)
}

func (e *Encoder) DatapointDelete(feedID int32, id string, ts model.Timestamp) ([]byte, error) {
	if ts.IsZero() {
		return nil, xerr.Errorf(xerr.KindPrecondition, opEncode, "datapoint delete requires timestamp")
	}
	if err := e.streamPath(feedID, id); err != nil {
		return nil, err
	}
	e.path = append(e.path, "/datapoints/"...)
	e.path = ts.AppendFormat(e.path)
	return e.finish(MethodDelete, nil)
}

func (e *Encoder) DatapointDeleteRange(feedID int32, id string, start, end model.Timestamp) ([]byte, error) {
	if start.IsZero() || end.IsZero() {
		return nil, xerr.Errorf(xerr.KindPrecondition, opEncode, "datapoint range requires both timestamps")
	}
	if end.Time().Before(start.Time()) {
		return nil, xerr.Errorf(xerr.KindPrecondition, opEncode, "datapoint range start=%s after end=%s", start, end)
	}
	if err := e.streamPath(feedID, id); err != nil {
		return nil, err
	}
	e.path = append(e.path, "/datapoints?start="...)
	e.path = start.AppendFormat(e.path)
	e.path = append(e.path, "&end="...)
	e.path = end.AppendFormat(e.path)
	return e.finish(MethodDelete, nil)
}

func (e *Encoder) feedPath(feedID int32) {
	e.path = append(e.path[:0], "/v2/feeds/"...)
	e.path = strconv.AppendInt(e.path, int64(feedID), 10)
}

func (e *Encoder) streamPath(feedID int32, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	e.feedPath(feedID)
	e.path = append(e.path, "/datastreams/"...)
	e.path = append(e.path, id...)
	return nil
}

func (e *Encoder) finish(method string, body []byte) ([]byte, error) {
	b := e.out[:0]
	b = append(b, method...)
	b = append(b, ' ')
	b = append(b, e.path...)
	b = append(b, " HTTP/1.1\r\nHost: "...)
	b = append(b, e.Host...)
	b = append(b, "\r\nX-ApiKey: "...)
	b = append(b, e.APIKey...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, int64(len(body)), 10)
	b = append(b, "\r\nConnection: close\r\n\r\n"...)
	b = append(b, body...)
	if len(b) > model.MaxContentSize {
		return nil, xerr.Errorf(xerr.KindEncodeOverflow, opEncode, "request %s %s length=%d max=%d", method, e.path, len(b), model.MaxContentSize)
	}
	e.out = b
	return b, nil
}

// Datastream id travels in URL path unescaped.
func checkID(id string) error {
	if id == "" {
		return xerr.Errorf(xerr.KindPrecondition, opEncode, "datastream id empty")
	}
	if len(id) > model.MaxDatastreamName {
		return xerr.Errorf(xerr.KindPrecondition, opEncode, "datastream id=%s length=%d max=%d", id, len(id), model.MaxDatastreamName)
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; !isIDChar(c) {
			return xerr.New(xerr.KindPrecondition, opEncode, fmt.Errorf("datastream id=%q invalid char=%q", id, c))
		}
	}
	return nil
}

func isIDChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

// ValidID reports whether id may be used as datastream id.
func ValidID(id string) bool { return checkID(id) == nil }
