package comm

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/xively/xerr"
)

// NetLayer is portable Layer on top of package net.
// With TLS config set, connections are TLS client sessions.
type NetLayer struct {
	Timeout  Timeout
	TLS      *tls.Config
	Resolver *net.Resolver
}

var _ Layer = &NetLayer{}

func NewNetLayer(timeout time.Duration, tlsConfig *tls.Config) *NetLayer {
	l := &NetLayer{TLS: tlsConfig}
	l.Timeout.Set(timeout)
	return l
}

func (l *NetLayer) Open(ctx context.Context, address string, port int) (Conn, error) {
	const op = "comm open"
	if address == "" || port <= 0 || port > 65535 {
		return nil, xerr.Errorf(xerr.KindSocketInit, op, "invalid address=%q port=%d", address, port)
	}
	timeout := l.Timeout.Get()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver := l.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupHost(ctx, address)
	if err != nil {
		return nil, xerr.New(xerr.KindResolve, op, errors.Annotatef(err, "address=%s", address))
	}
	if len(addrs) == 0 {
		return nil, xerr.Errorf(xerr.KindResolve, op, "address=%s no records", address)
	}

	dialer := net.Dialer{Timeout: timeout}
	hostport := net.JoinHostPort(addrs[0], strconv.Itoa(port))
	netConn, err := dialer.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return nil, xerr.New(xerr.KindConnect, op, errors.Annotatef(err, "address=%s", hostport))
	}
	if tcp, ok := netConn.(*net.TCPConn); ok {
		_ = tcp.SetKeepAlive(false)
	}

	if l.TLS != nil {
		config := l.TLS
		if config.ServerName == "" {
			config = config.Clone()
			config.ServerName = address
		}
		tlsConn := tls.Client(netConn, config)
		_ = tlsConn.SetDeadline(time.Now().Add(timeout))
		if err = tlsConn.HandshakeContext(ctx); err != nil {
			_ = netConn.Close()
			return nil, xerr.New(xerr.KindConnect, op, errors.Annotatef(err, "tls handshake address=%s", hostport))
		}
		netConn = tlsConn
	}

	c := &netStream{net: netConn, timeout: timeout}
	c.stat.Conn.Add(1)
	return c, nil
}

type netStream struct {
	net     net.Conn
	stat    Stat
	timeout time.Duration
}

func (c *netStream) Send(b []byte) (int, error) {
	const op = "comm send"
	if err := c.net.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, xerr.New(xerr.KindSend, op, err)
	}
	n, err := c.net.Write(b)
	c.stat.Send.Register(n)
	if err != nil {
		return n, xerr.New(xerr.KindSend, op, err)
	}
	return n, nil
}

func (c *netStream) Read(b []byte) (int, error) {
	const op = "comm read"
	if err := c.net.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, xerr.New(xerr.KindRead, op, err)
	}
	n, err := c.net.Read(b)
	c.stat.Recv.Register(n)
	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, xerr.New(xerr.KindRead, op, err)
	}
	return n, nil
}

type closeWriter interface{ CloseWrite() error }

// Close releases socket even when shutdown fails.
func (c *netStream) Close() error {
	var shutErr error
	if cw, ok := c.net.(closeWriter); ok {
		_ = c.net.SetWriteDeadline(time.Now().Add(c.timeout))
		shutErr = cw.CloseWrite()
	}
	closeErr := c.net.Close()
	switch {
	case shutErr != nil:
		return xerr.New(xerr.KindShutdown, "comm close", shutErr)
	case closeErr != nil:
		return xerr.New(xerr.KindClose, "comm close", closeErr)
	}
	return nil
}

func (c *netStream) Stat() *Stat { return &c.stat }

func (c *netStream) String() string {
	return fmt.Sprintf("(conn remote=%s)", c.net.RemoteAddr())
}
