package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/xively"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/log2"
)

func httpOK(body string) comm.MockScript {
	return comm.MockScript{Response: []byte(fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(body), body))}
}

func newTestSession(scripts ...comm.MockScript) (*session, *comm.MockLayer, *bytes.Buffer) {
	buf := bytes.NewBuffer(nil)
	log := log2.NewWriter(buf, log2.LInfo)
	log.SetFlags(0)
	layer := comm.NewMockLayer(scripts...)
	client := xively.NewClient(xively.NewContext(xively.ProtocolHTTP, "abc123", 42), xively.Options{Layer: layer, Log: log})
	return newSession(client, log, new(comm.Timeout)), layer, buf
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	type Case struct {
		line   string
		expect string // error substring, "" for success
	}
	cases := []Case{
		{"", ""},
		{"  ", ""},
		{"help", ""},
		{"log=yes", ""},
		{"feed", ""},
		{"feed x", "feed expects 0 arguments"},
		{"get temp", ""},
		{"get", "get expects 1 arguments"},
		{"put temp 1 2.5 on", ""},
		{"put temp", "put expects ID VALUE"},
		{"create temp 20", ""},
		{"delete-point temp 2013-01-01T00:00:00Z", ""},
		{"delete-point temp yesterday", "ts=yesterday"},
		{"delete-range temp 2013-01-01T00:00:00Z 2013-01-02T00:00:00Z", ""},
		{"timeout -5", "timeout=-5"},
		{"timeout 300", ""},
		{"reboot", "command=reboot"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.line, func(t *testing.T) {
			_, err := parseLine(c.line)
			if c.expect == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expect)
			}
		})
	}
}

func TestExecutorGet(t *testing.T) {
	t.Parallel()

	s, layer, buf := newTestSession(httpOK("2013-01-01T00:00:00.000000Z,21.5"))
	s.executor()("get temp")
	reqs := layer.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "GET /v2/feeds/42/datastreams/temp.csv HTTP/1.1\r\n")
	assert.Contains(t, buf.String(), "temp = 21.5 at 2013-01-01T00:00:00.000000Z")
}

func TestExecutorPut(t *testing.T) {
	t.Parallel()

	s, layer, buf := newTestSession(httpOK(""))
	s.executor()("put temp 1 2")
	reqs := layer.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "PUT /v2/feeds/42/datastreams/temp.csv HTTP/1.1\r\n")
	assert.Contains(t, reqs[0], "\r\n\r\n1,2")
	assert.NotContains(t, buf.String(), "error")
}

func TestExecutorErrorLogged(t *testing.T) {
	t.Parallel()

	s, layer, buf := newTestSession(comm.MockScript{Response: []byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n")})
	s.executor()("delete temp")
	assert.Equal(t, 1, layer.Opened())
	assert.Contains(t, buf.String(), "error: ")
	assert.Contains(t, buf.String(), "404")
}

func TestTimeoutCommand(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession()
	cmd, err := parseLine("timeout 300")
	require.NoError(t, err)
	require.NoError(t, cmd(context.Background(), s))
	assert.Equal(t, 300*time.Millisecond, s.timeout.Get())
}

func TestLogLevelCommand(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession()
	s.executor()("log=yes")
	assert.True(t, s.log.Enabled(log2.LDebug))
	s.executor()("log=no")
	assert.False(t, s.log.Enabled(log2.LDebug))
}
