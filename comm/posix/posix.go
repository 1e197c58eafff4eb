//go:build linux || darwin

// Package posix is comm.Layer on raw blocking sockets.
// Timeouts are socket options, so every Send and Read is a single
// system call bounded by the layer timeout.
package posix

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/xerr"
	"golang.org/x/sys/unix"
)

type Layer struct {
	Timeout  comm.Timeout
	Resolver *net.Resolver
}

var _ comm.Layer = &Layer{}

func NewLayer(timeout time.Duration) *Layer {
	l := &Layer{}
	l.Timeout.Set(timeout)
	return l
}

func (l *Layer) Open(ctx context.Context, address string, port int) (comm.Conn, error) {
	const op = "posix open"
	if address == "" || port <= 0 || port > 65535 {
		return nil, xerr.Errorf(xerr.KindSocketInit, op, "invalid address=%q port=%d", address, port)
	}
	timeout := l.Timeout.Get()

	ip, err := l.resolve(ctx, address, timeout)
	if err != nil {
		return nil, xerr.New(xerr.KindResolve, op, errors.Annotatef(err, "address=%s", address))
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, xerr.New(xerr.KindSocketInit, op, errors.Annotate(err, "socket"))
	}
	unix.CloseOnExec(fd)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err == nil {
		err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, xerr.New(xerr.KindSocketInit, op, errors.Annotate(err, "setsockopt timeout"))
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err = connect(fd, sa, timeout); err != nil {
		_ = unix.Close(fd)
		return nil, xerr.New(xerr.KindConnect, op, errors.Annotatef(err, "address=%s:%d", ip, port))
	}

	c := &conn{fd: fd}
	c.stat.Conn.Add(1)
	return c, nil
}

func (l *Layer) resolve(ctx context.Context, address string, timeout time.Duration) (net.IP, error) {
	if ip := net.ParseIP(address).To4(); ip != nil {
		return ip, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resolver := l.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, address)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if ip := a.IP.To4(); ip != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 records")
}

// connect runs non-blocking so timeout holds on every platform,
// socket returns to blocking mode after success.
func connect(fd int, sa unix.Sockaddr, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	err := unix.Connect(fd, sa)
	if err == unix.EINTR || err == unix.EINPROGRESS {
		err = waitConnect(fd, deadline)
	}
	if err != nil {
		return err
	}
	return unix.SetNonblock(fd, false)
}

func waitConnect(fd int, deadline time.Time) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return unix.ETIMEDOUT
		}
		n, err := unix.Poll(fds, int(left/time.Millisecond)+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return unix.ETIMEDOUT
		}
		soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return err
		}
		if soerr != 0 {
			return unix.Errno(soerr)
		}
		return nil
	}
}

type conn struct {
	fd   int
	stat comm.Stat
}

func (c *conn) Send(b []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, b)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		c.stat.Send.Register(n)
		if err != nil {
			return n, xerr.New(xerr.KindSend, "posix send", err)
		}
		return n, nil
	}
}

func (c *conn) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, b)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		c.stat.Recv.Register(n)
		if err != nil {
			if err == unix.EAGAIN {
				err = errors.Timeoutf("read")
			}
			return n, xerr.New(xerr.KindRead, "posix read", err)
		}
		if n == 0 && len(b) != 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Close releases descriptor even when shutdown fails.
func (c *conn) Close() error {
	if c.fd < 0 {
		return xerr.Errorf(xerr.KindClose, "posix close", "already closed")
	}
	shutErr := unix.Shutdown(c.fd, unix.SHUT_RDWR)
	closeErr := unix.Close(c.fd)
	c.fd = -1
	switch {
	case shutErr != nil && shutErr != unix.ENOTCONN:
		return xerr.New(xerr.KindShutdown, "posix close", shutErr)
	case closeErr != nil:
		return xerr.New(xerr.KindClose, "posix close", closeErr)
	}
	return nil
}

func (c *conn) Stat() *comm.Stat { return &c.stat }
