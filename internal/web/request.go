package web

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrMalformedRequest is returned when buf does not start with
// "METHOD PATH PROTO\r\n".
var ErrMalformedRequest = errors.New("malformed request line")

// Request is the parsed request line. Headers and body are ignored.
type Request struct {
	Method string
	Path   string
	Proto  string
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.Path, r.Proto)
}

// ParseRequestLine parses the line up to the first CRLF in buf. A line
// ended by a bare LF, or not ended at all, is malformed.
func ParseRequestLine(buf []byte) (Request, error) {
	i := bytes.Index(buf, []byte("\r\n"))
	if i < 0 {
		return Request{}, fmt.Errorf("%w: no CRLF in %q", ErrMalformedRequest, buf)
	}
	line := buf[:i]

	parts := bytes.Split(line, []byte(" "))
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}
	for _, p := range parts {
		if len(p) == 0 {
			return Request{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
		}
	}
	return Request{
		Method: string(parts[0]),
		Path:   string(parts[1]),
		Proto:  string(parts[2]),
	}, nil
}
