package xively

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/xerr"
)

func httpResponse(status string, body string) []byte {
	return []byte(fmt.Sprintf("HTTP/1.1 %s\r\nContent-Type: text/csv\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s", status, len(body), body))
}

func newTestClient(t testing.TB, scripts ...comm.MockScript) (*Client, *comm.MockLayer) {
	layer := comm.NewMockLayer(scripts...)
	xctx := NewContext(ProtocolHTTP, "abc123", 42)
	c := NewClient(xctx, Options{Layer: layer, Log: log2.NewTest(t, log2.LDebug)})
	return c, layer
}

func TestDatastreamGetFloat(t *testing.T) {
	t.Parallel()

	c, layer := newTestClient(t, comm.MockScript{Response: httpResponse("200 OK", "21.5"), ReadChunk: 7})
	var dp model.Datapoint
	r, err := c.DatastreamGet(context.Background(), c.Context().FeedID(), "temp", &dp)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, model.TypeF32, dp.Type())
	assert.Equal(t, float32(21.5), dp.F32())
	assert.True(t, dp.Timestamp.IsZero())

	reqs := layer.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET /v2/feeds/42/datastreams/temp.csv HTTP/1.1\r\nHost: api.xively.com\r\nX-ApiKey: abc123\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", reqs[0])
	assert.Equal(t, 0, layer.Active())
	assert.Equal(t, int64(1), c.Stat().Conn.Value())
	assert.Equal(t, int64(len(reqs[0])), c.Stat().Send.Size.Value())
}

func TestOperationsCloseConnection(t *testing.T) {
	t.Parallel()

	ok := comm.MockScript{Response: httpResponse("200 OK", "")}
	ctx := context.Background()
	dp := model.I32(1)
	dp.Timestamp = model.Timestamp{Sec: 1356998400}
	ds := model.NewDatastream("temp")
	require.NoError(t, ds.Add(model.I32(3)))
	cases := []struct {
		name string
		fun  func(c *Client) error
	}{
		{"feed-get", func(c *Client) error { _, err := c.FeedGet(ctx, model.NewFeed(42)); return err }},
		{"feed-update", func(c *Client) error {
			f := model.NewFeed(42)
			s, _ := f.AddDatastream("temp")
			_ = s.Add(model.I32(1))
			_, err := c.FeedUpdate(ctx, f)
			return err
		}},
		{"datastream-create", func(c *Client) error { _, err := c.DatastreamCreate(ctx, 42, "temp", &dp); return err }},
		{"datastream-update", func(c *Client) error { _, err := c.DatastreamUpdate(ctx, 42, ds); return err }},
		{"datastream-delete", func(c *Client) error { _, err := c.DatastreamDelete(ctx, 42, "temp"); return err }},
		{"datapoint-delete", func(c *Client) error { _, err := c.DatapointDelete(ctx, 42, "temp", &dp); return err }},
		{"datapoint-range", func(c *Client) error {
			_, err := c.DatapointDeleteRange(ctx, 42, "temp", dp.Timestamp, model.Timestamp{Sec: dp.Timestamp.Sec + 60})
			return err
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			client, layer := newTestClient(t, ok)
			require.NoError(t, c.fun(client))
			assert.Equal(t, 1, layer.Opened())
			assert.Equal(t, 0, layer.Active())
		})
	}
}

func TestFailuresReturnNilAndClose(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		script comm.MockScript
		expect xerr.Kind
		opened int
	}{
		{"connect", comm.MockScript{OpenErr: xerr.Errorf(xerr.KindConnect, "test", "refused")}, xerr.KindConnect, 0},
		{"send", comm.MockScript{SendErr: xerr.Errorf(xerr.KindSend, "test", "reset")}, xerr.KindSend, 1},
		{"short-send", comm.MockScript{SendLimit: 10}, xerr.KindSend, 1},
		{"read", comm.MockScript{ReadErr: xerr.Errorf(xerr.KindRead, "test", "timeout")}, xerr.KindRead, 1},
		{"empty", comm.MockScript{}, xerr.KindRead, 1},
		{"decode", comm.MockScript{Response: []byte("garbage\r\n\r\n")}, xerr.KindDecode, 1},
		{"body", comm.MockScript{Response: httpResponse("200 OK", "1\n2")}, xerr.KindDecode, 1},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			client, layer := newTestClient(t, c.script)
			var dp model.Datapoint
			r, err := client.DatastreamGet(context.Background(), 42, "temp", &dp)
			assert.Nil(t, r)
			assert.Equal(t, c.expect, xerr.KindOf(err), "err=%v", err)
			assert.Equal(t, c.opened, layer.Opened())
			assert.Equal(t, 0, layer.Active())
		})
	}
}

func TestPreconditionOpensNothing(t *testing.T) {
	t.Parallel()

	client, layer := newTestClient(t)
	var dp model.Datapoint
	r, err := client.DatapointDelete(context.Background(), 42, "temp", &dp)
	assert.Nil(t, r)
	assert.Equal(t, xerr.KindPrecondition, xerr.KindOf(err))

	client.Context().SetProtocol(ProtocolWS)
	_, err = client.FeedGet(context.Background(), model.NewFeed(42))
	assert.Equal(t, xerr.KindPrecondition, xerr.KindOf(err))

	huge := model.NewFeed(42)
	for i := 0; i < model.MaxDatastreams; i++ {
		ds, err := huge.AddDatastream(fmt.Sprintf("stream%02d_%s", i, strings.Repeat("x", model.MaxDatastreamName-9)))
		require.NoError(t, err)
		for ds.Points.Len() < ds.Points.Cap() {
			s, _ := model.Str(strings.Repeat("v", model.MaxValueString))
			require.NoError(t, ds.Add(s))
		}
	}
	client.Context().SetProtocol(ProtocolHTTP)
	_, err = client.FeedUpdate(context.Background(), huge)
	assert.Equal(t, xerr.KindEncodeOverflow, xerr.KindOf(err))
	assert.Equal(t, 0, layer.Opened())

	assert.Panics(t, func() { _, _ = client.FeedGet(context.Background(), nil) })
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, comm.MockScript{Response: httpResponse("401 Unauthorized", "You do not have permission")})
	r, err := client.DatastreamDelete(context.Background(), 42, "temp")
	require.Error(t, err)
	assert.Equal(t, xerr.KindStatus, xerr.KindOf(err))
	require.NotNil(t, r)
	assert.Equal(t, 401, r.StatusCode)
	assert.Equal(t, "Unauthorized", r.Reason)
}

func TestCloseFailureCounted(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, comm.MockScript{
		Response: httpResponse("200 OK", "temp,2013-01-01T00:00:00.000000Z,20\nhum,55"),
		CloseErr: xerr.Errorf(xerr.KindShutdown, "test", "not connected"),
	})
	feed := model.NewFeed(42)
	r, err := client.FeedGet(context.Background(), feed)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(1), client.Stat().CloseFail.Value())
	assert.Equal(t, 2, feed.Datastreams.Len())
	assert.Equal(t, int32(55), feed.Datastream("hum").Last().I32())
}

func TestResponseOverBufferRejected(t *testing.T) {
	t.Parallel()

	head := "HTTP/1.1 200 OK\r\nContent-Type: text/csv\r\n\r\n"
	body := "temp,21.5\n" + strings.Repeat("\n", model.MaxContentSize-len(head)-len("temp,21.5\n")) + "hum,40\n"
	client, layer := newTestClient(t, comm.MockScript{Response: []byte(head + body), ReadChunk: 1000})
	feed := model.NewFeed(42)
	r, err := client.FeedGet(context.Background(), feed)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Equal(t, xerr.KindDecode, xerr.KindOf(err))
	assert.Equal(t, 0, feed.Datastreams.Len())
	assert.Equal(t, 0, layer.Active())
}

func TestResponseFillsBufferExactly(t *testing.T) {
	t.Parallel()

	head := "HTTP/1.1 200 OK\r\n\r\n"
	body := "temp,21.5" + strings.Repeat("\n", model.MaxContentSize-len(head)-len("temp,21.5"))
	client, _ := newTestClient(t, comm.MockScript{Response: []byte(head + body)})
	feed := model.NewFeed(42)
	_, err := client.FeedGet(context.Background(), feed)
	require.NoError(t, err)
	require.Equal(t, 1, feed.Datastreams.Len())
	assert.Equal(t, float32(21.5), feed.Datastream("temp").Last().F32())
}

func TestShortBodyRejected(t *testing.T) {
	t.Parallel()

	short := comm.MockScript{Response: []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n21")}
	client, _ := newTestClient(t, short, short)

	var dp model.Datapoint
	r, err := client.DatastreamGet(context.Background(), 42, "temp", &dp)
	assert.Nil(t, r)
	assert.Equal(t, xerr.KindDecode, xerr.KindOf(err))
	assert.Equal(t, int32(0), dp.I32())

	feed := model.NewFeed(42)
	r, err = client.FeedGet(context.Background(), feed)
	assert.Nil(t, r)
	assert.Equal(t, xerr.KindDecode, xerr.KindOf(err))
}

func TestFeedGetDecodeErrorLeavesFeedEmpty(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("n", model.MaxDatastreamName+1)
	client, _ := newTestClient(t, comm.MockScript{Response: httpResponse("200 OK", "temp,1\n"+long+",2")})
	feed := model.NewFeed(42)
	_, err := feed.AddDatastream("old")
	require.NoError(t, err)
	r, err := client.FeedGet(context.Background(), feed)
	assert.Nil(t, r)
	assert.Equal(t, xerr.KindDecode, xerr.KindOf(err))
	assert.Equal(t, 0, feed.Datastreams.Len())
}

func TestContextClose(t *testing.T) {
	t.Parallel()

	xctx := NewContext(ProtocolHTTP, "secret", 7)
	assert.Equal(t, "secret", xctx.APIKey())
	xctx.Close()
	assert.Equal(t, "", xctx.APIKey())
	xctx.SetAPIKey("again")
	assert.Equal(t, "again", xctx.APIKey())

	p, err := ParseProtocol("HTTPS")
	require.NoError(t, err)
	assert.Equal(t, ProtocolHTTPS, p)
	assert.Equal(t, 443, p.DefaultPort())
	_, err = ParseProtocol("gopher")
	assert.Error(t, err)
}

func TestNetLayerEndToEnd(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	requestCh := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		requestCh <- string(buf[:n])
		_, _ = conn.Write(httpResponse("200 OK", "2013-01-01T00:00:00.000001Z,on"))
	}()

	xctx := NewContext(ProtocolHTTP, "abc123", 42)
	client := NewClient(xctx, Options{
		Host:  "127.0.0.1",
		Port:  ln.Addr().(*net.TCPAddr).Port,
		Layer: comm.NewNetLayer(time.Second, nil),
	})
	var dp model.Datapoint
	_, err = client.DatastreamGet(context.Background(), 42, "door", &dp)
	require.NoError(t, err)
	assert.Equal(t, "on", dp.Str())
	assert.Equal(t, model.Timestamp{Sec: 1356998400, Micro: 1}, dp.Timestamp)
	assert.Contains(t, <-requestCh, "GET /v2/feeds/42/datastreams/door.csv HTTP/1.1\r\n")
}
