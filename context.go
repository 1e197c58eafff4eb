package xively

import (
	"fmt"
	"strings"
	"sync"
)

type Protocol uint8

const (
	ProtocolHTTP Protocol = iota
	ProtocolHTTPS
	ProtocolTCP
	ProtocolTCPS
	ProtocolWS
	ProtocolWSS
)

var protocolNames = []string{"http", "https", "tcp", "tcps", "ws", "wss"}

func (p Protocol) String() string {
	if int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return fmt.Sprintf("protocol(%d)", uint8(p))
}

func (p Protocol) DefaultPort() int {
	switch p {
	case ProtocolHTTPS, ProtocolWSS:
		return 443
	case ProtocolTCP:
		return 8081
	case ProtocolTCPS:
		return 8091
	}
	return 80
}

func ParseProtocol(s string) (Protocol, error) {
	for i, name := range protocolNames {
		if strings.EqualFold(s, name) {
			return Protocol(i), nil
		}
	}
	return 0, fmt.Errorf("unknown protocol=%s", s)
}

// Context is session identity: protocol, API key and default feed.
// It owns a copy of the key, Close wipes it.
type Context struct {
	mu       sync.Mutex
	protocol Protocol
	apiKey   []byte
	feedID   int32
}

func NewContext(protocol Protocol, apiKey string, feedID int32) *Context {
	c := &Context{protocol: protocol, feedID: feedID}
	c.SetAPIKey(apiKey)
	return c
}

func (c *Context) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wipe(c.apiKey)
	c.apiKey = append(make([]byte, 0, len(key)), key...)
}

func (c *Context) SetFeedID(id int32) {
	c.mu.Lock()
	c.feedID = id
	c.mu.Unlock()
}

func (c *Context) SetProtocol(p Protocol) {
	c.mu.Lock()
	c.protocol = p
	c.mu.Unlock()
}

func (c *Context) APIKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.apiKey)
}

func (c *Context) FeedID() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedID
}

func (c *Context) Protocol() Protocol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.protocol
}

// Close wipes owned key copy. Context stays usable after SetAPIKey.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	wipe(c.apiKey)
	c.apiKey = nil
}

func (c *Context) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("(context protocol=%s feed=%d key=%t)", c.protocol, c.feedID, len(c.apiKey) != 0)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
