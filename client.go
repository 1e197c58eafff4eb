// Package xively is a client of Xively v2 data-store: feeds, datastreams
// and datapoints over hand-rolled HTTP/1.1 with CSV bodies.
//
// Every operation opens one connection, sends one request, reads the
// response until connection close and closes the connection on return.
// Operations of one Client are serialized.
package xively

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/transport"
	"github.com/temoto/xively/xerr"
)

type Options struct {
	// Host defaults to transport.DefaultHost
	Host string
	// Port defaults to protocol port
	Port int
	// Layer defaults to comm.NetLayer, with TLS for HTTPS
	Layer comm.Layer
	Log   *log2.Log
}

type Client struct {
	mu   sync.Mutex
	xctx *Context
	opt  Options
	enc  *transport.Encoder
	buf  []byte
	stat comm.Stat
}

func NewClient(xctx *Context, opt Options) *Client {
	if xctx == nil {
		panic("code error xively.NewClient context=nil")
	}
	if opt.Host == "" {
		opt.Host = transport.DefaultHost
	}
	if opt.Layer == nil {
		var tlsConfig *tls.Config
		if xctx.Protocol() == ProtocolHTTPS {
			tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.Layer = comm.NewNetLayer(comm.DefaultNetworkTimeout, tlsConfig)
	}
	return &Client{
		xctx: xctx,
		opt:  opt,
		enc:  transport.NewEncoder(opt.Host, ""),
		buf:  make([]byte, model.MaxContentSize),
	}
}

func (c *Client) Context() *Context { return c.xctx }
func (c *Client) Layer() comm.Layer { return c.opt.Layer }
func (c *Client) Log() *log2.Log    { return c.opt.Log }

// Stat is cumulative over all connections, safe to read concurrently.
func (c *Client) Stat() *comm.Stat { return &c.stat }

func (c *Client) port() int {
	if c.opt.Port != 0 {
		return c.opt.Port
	}
	return c.xctx.Protocol().DefaultPort()
}

func (c *Client) checkProtocol(op string) error {
	switch p := c.xctx.Protocol(); p {
	case ProtocolHTTP:
		return nil
	case ProtocolHTTPS:
		if nl, ok := c.opt.Layer.(*comm.NetLayer); ok && nl.TLS != nil {
			return nil
		}
		if _, ok := c.opt.Layer.(*comm.MockLayer); ok {
			return nil
		}
		return xerr.Errorf(xerr.KindPrecondition, op, "protocol=%s requires TLS layer", p)
	default:
		return xerr.Errorf(xerr.KindPrecondition, op, "protocol=%s not supported", p)
	}
}

type encodeFunc func(e *transport.Encoder) ([]byte, error)

// roundTrip runs one request over new connection.
// Non-2xx response is returned together with KindStatus error.
func (c *Client) roundTrip(ctx context.Context, op string, encode encodeFunc) (*transport.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkProtocol(op); err != nil {
		return nil, err
	}
	c.enc.APIKey = c.xctx.APIKey()
	request, err := encode(c.enc)
	if err != nil {
		return nil, errors.Annotate(err, op)
	}
	c.opt.Log.Debugf("%s request=%q", op, request)

	conn, err := c.opt.Layer.Open(ctx, c.opt.Host, c.port())
	if err != nil {
		return nil, errors.Annotate(err, op)
	}
	defer c.closeConn(op, conn)

	n, err := conn.Send(request)
	if err != nil {
		return nil, errors.Annotate(err, op)
	}
	if n != len(request) {
		return nil, xerr.Errorf(xerr.KindSend, op, "short send %d of %d", n, len(request))
	}

	raw, err := c.receive(conn)
	if err != nil {
		return nil, errors.Annotate(err, op)
	}
	response, err := transport.Decode(raw)
	if err != nil {
		return nil, errors.Annotate(err, op)
	}
	c.opt.Log.Debugf("%s response=%s", op, response)
	if !response.OK() {
		return response, xerr.Errorf(xerr.KindStatus, op, "status=%d %s body=%q", response.StatusCode, response.Reason, response.Body)
	}
	return response, nil
}

// receive reads until EOF or complete response. Response that does not fit
// into buffer is a decode error, partial data is never passed on.
func (c *Client) receive(conn comm.Conn) ([]byte, error) {
	const op = "receive"
	length := 0
	for length < len(c.buf) {
		n, err := conn.Read(c.buf[length:])
		length += n
		if err == io.EOF {
			return c.received(length)
		}
		if err != nil {
			return nil, err
		}
		if n == 0 || transport.Complete(c.buf[:length]) {
			return c.received(length)
		}
	}
	// buffer is full, peer must have nothing more to say
	var extra [1]byte
	n, err := conn.Read(extra[:])
	if n != 0 {
		return nil, xerr.Errorf(xerr.KindDecode, op, "response exceeds %d bytes", len(c.buf))
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return c.received(length)
}

func (c *Client) received(length int) ([]byte, error) {
	if length == 0 {
		return nil, xerr.Errorf(xerr.KindRead, "receive", "empty response")
	}
	return c.buf[:length], nil
}

func (c *Client) closeConn(op string, conn comm.Conn) {
	if err := conn.Close(); err != nil {
		c.stat.CloseFail.Add(1)
		c.opt.Log.Errorf("%s close err=%v", op, err)
	}
	c.stat.Add(conn.Stat())
}

func (c *Client) String() string {
	return fmt.Sprintf("(client host=%s port=%d %s)", c.opt.Host, c.port(), c.xctx)
}
