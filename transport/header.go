package transport

import (
	"fmt"
	"strings"
)

// Header is closed set of response headers the client understands.
type Header uint8

const (
	HeaderDate Header = iota
	HeaderContentType
	HeaderContentLength
	HeaderConnection
	HeaderXRequestID
	HeaderCacheControl
	HeaderVary
	HeaderCount
	HeaderAge
	HeaderUnknown
)

var headerNames = [...]string{
	HeaderDate:          "Date",
	HeaderContentType:   "Content-Type",
	HeaderContentLength: "Content-Length",
	HeaderConnection:    "Connection",
	HeaderXRequestID:    "X-Request-Id",
	HeaderCacheControl:  "Cache-Control",
	HeaderVary:          "Vary",
	HeaderCount:         "Count",
	HeaderAge:           "Age",
	HeaderUnknown:       "",
}

func (h Header) String() string {
	if h < HeaderUnknown {
		return headerNames[h]
	}
	if h == HeaderUnknown {
		return "unknown"
	}
	return fmt.Sprintf("header(%d)", uint8(h))
}

// ParseHeader matches name case-insensitively, HeaderUnknown otherwise.
func ParseHeader(name string) Header {
	for h := HeaderDate; h < HeaderUnknown; h++ {
		if strings.EqualFold(name, headerNames[h]) {
			return h
		}
	}
	return HeaderUnknown
}

type HeaderField struct {
	Key   Header
	Name  string
	Value string
}
