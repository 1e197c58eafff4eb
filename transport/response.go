package transport

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/temoto/xively/bounded"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/xerr"
)

const opDecode = "http decode"

type Response struct {
	VersionMajor int
	VersionMinor int
	StatusCode   int
	Reason       string
	Headers      bounded.List[HeaderField]
	Body         []byte

	// Truncated is set when header fields were cut to size, headers past
	// MaxHeaders were skipped or body is shorter than Content-Length.
	Truncated bool

	index map[Header]int
}

// OK reports 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Header returns value of first header with given key.
func (r *Response) Header(h Header) (string, bool) {
	if i, ok := r.index[h]; ok {
		return r.Headers.At(i).Value, true
	}
	return "", false
}

func (r *Response) ContentLength() (int, bool) {
	s, ok := r.Header(HeaderContentLength)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (r *Response) String() string {
	return fmt.Sprintf("(response HTTP/%d.%d %d %s headers=%s body=%d truncated=%t)",
		r.VersionMajor, r.VersionMinor, r.StatusCode, r.Reason, r.Headers.String(), len(r.Body), r.Truncated)
}

// Decode parses complete response. Body is copied, buf may be reused.
func Decode(buf []byte) (*Response, error) {
	head, body, ok := splitHead(buf)
	if !ok {
		return nil, xerr.Errorf(xerr.KindDecode, opDecode, "headers incomplete length=%d", len(buf))
	}
	statusLine, rest := nextLine(head)
	r := &Response{
		Headers: bounded.New[HeaderField](model.MaxHeaders),
		index:   make(map[Header]int, model.MaxHeaders),
	}
	if err := r.parseStatus(statusLine); err != nil {
		return nil, err
	}
	for len(rest) != 0 {
		var line []byte
		line, rest = nextLine(rest)
		if len(line) == 0 {
			continue
		}
		if err := r.parseHeader(line); err != nil {
			return nil, err
		}
	}

	if n, ok := r.ContentLength(); ok {
		if len(body) > n {
			body = body[:n]
		} else if len(body) < n {
			r.Truncated = true
		}
	}
	r.Body = append([]byte(nil), body...)
	return r, nil
}

// Complete reports whether buf holds headers and Content-Length bytes of body.
// Without Content-Length only connection close marks the end.
func Complete(buf []byte) bool {
	head, body, ok := splitHead(buf)
	if !ok {
		return false
	}
	_, rest := nextLine(head)
	for len(rest) != 0 {
		var line []byte
		line, rest = nextLine(rest)
		colon := bytes.IndexByte(line, ':')
		if colon == -1 || ParseHeader(string(bytes.TrimSpace(line[:colon]))) != HeaderContentLength {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(line[colon+1:])))
		return err == nil && len(body) >= n
	}
	return false
}

func (r *Response) parseStatus(line []byte) error {
	// HTTP/1.1 200 OK
	if !bytes.HasPrefix(line, []byte("HTTP/")) {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status line=%q", line)
	}
	line = line[5:]
	sp := bytes.IndexByte(line, ' ')
	if sp == -1 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status line version")
	}
	version := line[:sp]
	dot := bytes.IndexByte(version, '.')
	if dot == -1 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status version=%q", version)
	}
	var err1, err2 error
	r.VersionMajor, err1 = strconv.Atoi(string(version[:dot]))
	r.VersionMinor, err2 = strconv.Atoi(string(version[dot+1:]))
	if err1 != nil || err2 != nil {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status version=%q", version)
	}

	line = line[sp+1:]
	var code, reason []byte
	if sp = bytes.IndexByte(line, ' '); sp == -1 {
		code = line
	} else {
		code, reason = line[:sp], line[sp+1:]
	}
	if len(code) != 3 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status code=%q", code)
	}
	n, err := strconv.Atoi(string(code))
	if err != nil || n < 100 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status code=%q", code)
	}
	if len(reason) > model.MaxStatusReason {
		return xerr.Errorf(xerr.KindDecode, opDecode, "status reason length=%d max=%d", len(reason), model.MaxStatusReason)
	}
	r.StatusCode = n
	r.Reason = string(reason)
	return nil
}

func (r *Response) parseHeader(line []byte) error {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "header line=%q", line)
	}
	if r.Headers.Full() {
		r.Truncated = true
		return nil
	}
	name := bytes.TrimSpace(line[:colon])
	value := bytes.TrimSpace(line[colon+1:])
	key := ParseHeader(string(name))
	if len(name) > model.MaxHeaderName {
		name = name[:model.MaxHeaderName]
		r.Truncated = true
	}
	if len(value) > model.MaxHeaderValue {
		value = value[:model.MaxHeaderValue]
		r.Truncated = true
	}
	f := r.Headers.Grow()
	*f = HeaderField{Key: key, Name: string(name), Value: string(value)}
	if _, seen := r.index[key]; !seen && key != HeaderUnknown {
		r.index[key] = r.Headers.Len() - 1
	}
	return nil
}

// splitHead finds blank line, accepts bare LF line endings.
func splitHead(buf []byte) (head, body []byte, ok bool) {
	if i := bytes.Index(buf, []byte("\r\n\r\n")); i != -1 {
		return buf[:i], buf[i+4:], true
	}
	if i := bytes.Index(buf, []byte("\n\n")); i != -1 {
		return buf[:i], buf[i+2:], true
	}
	return nil, nil, false
}

func nextLine(b []byte) (line, rest []byte) {
	i := bytes.IndexByte(b, '\n')
	if i == -1 {
		return bytes.TrimRight(b, "\r"), nil
	}
	return bytes.TrimRight(b[:i], "\r"), b[i+1:]
}
