package comm

// Public API to easy script connections in tests of your code.

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/temoto/xively/xerr"
)

// MockScript describes one connection. Zero value accepts any request
// and responds with empty stream.
type MockScript struct {
	OpenErr  error
	SendErr  error
	ReadErr  error // returned after Response is consumed, instead of io.EOF
	CloseErr error
	// SendLimit > 0 accepts only that many bytes per Send
	SendLimit int
	// ReadChunk > 0 splits Response into reads of that size
	ReadChunk int
	Response  []byte
}

// MockLayer hands out scripted connections in order.
// Open past the end of script fails with KindConnect.
type MockLayer struct {
	mu       sync.Mutex
	scripts  []MockScript
	requests [][]byte
	open     int32
	opened   int32
}

var _ Layer = &MockLayer{}

func NewMockLayer(scripts ...MockScript) *MockLayer {
	return &MockLayer{scripts: scripts}
}

func (m *MockLayer) Push(scripts ...MockScript) {
	m.mu.Lock()
	m.scripts = append(m.scripts, scripts...)
	m.mu.Unlock()
}

func (m *MockLayer) Open(ctx context.Context, address string, port int) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scripts) == 0 {
		return nil, xerr.Errorf(xerr.KindConnect, "mock open", "no script for address=%s port=%d", address, port)
	}
	s := m.scripts[0]
	m.scripts = m.scripts[1:]
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	atomic.AddInt32(&m.open, 1)
	atomic.AddInt32(&m.opened, 1)
	c := &MockConn{layer: m, script: s, index: len(m.requests)}
	c.r = bytes.NewReader(s.Response)
	m.requests = append(m.requests, nil)
	c.stat.Conn.Add(1)
	return c, nil
}

// Active returns number of connections not closed yet.
func (m *MockLayer) Active() int { return int(atomic.LoadInt32(&m.open)) }

func (m *MockLayer) Opened() int { return int(atomic.LoadInt32(&m.opened)) }

// Requests returns bytes sent over each connection, in open order.
func (m *MockLayer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss := make([]string, len(m.requests))
	for i, b := range m.requests {
		ss[i] = string(b)
	}
	return ss
}

type MockConn struct {
	layer  *MockLayer
	script MockScript
	index  int
	r      *bytes.Reader
	stat   Stat
	closed bool
}

func (c *MockConn) Send(b []byte) (int, error) {
	if c.script.SendErr != nil {
		return 0, c.script.SendErr
	}
	n := len(b)
	if c.script.SendLimit > 0 && n > c.script.SendLimit {
		n = c.script.SendLimit
	}
	c.layer.mu.Lock()
	c.layer.requests[c.index] = append(c.layer.requests[c.index], b[:n]...)
	c.layer.mu.Unlock()
	c.stat.Send.Register(n)
	return n, nil
}

func (c *MockConn) Read(b []byte) (int, error) {
	if c.script.ReadChunk > 0 && len(b) > c.script.ReadChunk {
		b = b[:c.script.ReadChunk]
	}
	n, err := c.r.Read(b)
	if err == io.EOF && c.script.ReadErr != nil {
		err = c.script.ReadErr
	}
	c.stat.Recv.Register(n)
	return n, err
}

func (c *MockConn) Close() error {
	if c.closed {
		panic("code error MockConn double close")
	}
	c.closed = true
	atomic.AddInt32(&c.layer.open, -1)
	return c.script.CloseErr
}

func (c *MockConn) Stat() *Stat { return &c.stat }
