package web

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Status lines written by the responder.
const (
	StatusOK            = "200 OK"
	StatusNotFound      = "404 NOT FOUND"
	StatusInternalError = "500 INTERNAL SERVER ERROR"
	StatusUnavailable   = "503 SERVICE UNAVAILABLE"
)

const (
	indexFile    = "index.html"
	notFoundFile = "404.html"
)

// Response is a status line plus body, framed with a single
// Content-Length header.
type Response struct {
	Status string
	Body   []byte
}

// WriteTo writes "HTTP/1.1 {status}\r\nContent-Length: {n}\r\n\r\n{body}".
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "HTTP/1.1 %s\r\nContent-Length: %d\r\n\r\n%s", r.Status, len(r.Body), r.Body)
	return int64(n), err
}

// Code returns the numeric status code, or 0 if the status line has none.
func (r Response) Code() int {
	code, _, _ := strings.Cut(r.Status, " ")
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

// Route is the outcome of matching a request.
type Route struct {
	Status string
	File   string
	Slow   bool
}

// Responder maps requests onto files under a static root.
type Responder struct {
	root      string
	slowDelay time.Duration
	sleep     func(time.Duration)
}

// NewResponder serves files from root. Requests for /sleep are held for
// slowDelay before being answered.
func NewResponder(root string, slowDelay time.Duration) *Responder {
	return &Responder{
		root:      root,
		slowDelay: slowDelay,
		sleep:     time.Sleep,
	}
}

// Route matches "GET / HTTP/1.1" and "GET /sleep HTTP/1.1"; anything else
// is a 404.
func (r *Responder) Route(req Request) Route {
	if req.Method != "GET" || req.Proto != "HTTP/1.1" {
		return Route{Status: StatusNotFound, File: notFoundFile}
	}
	switch req.Path {
	case "/":
		return Route{Status: StatusOK, File: indexFile}
	case "/sleep":
		return Route{Status: StatusOK, File: indexFile, Slow: true}
	default:
		return Route{Status: StatusNotFound, File: notFoundFile}
	}
}

// Respond builds the response for req. When the routed file cannot be read
// it returns a 500 response together with the read error.
func (r *Responder) Respond(req Request) (Response, error) {
	return r.respondRoute(r.Route(req))
}

// NotFound answers a request that could not be parsed.
func (r *Responder) NotFound() (Response, error) {
	return r.respondRoute(Route{Status: StatusNotFound, File: notFoundFile})
}

func (r *Responder) respondRoute(route Route) (Response, error) {
	if route.Slow {
		r.sleep(r.slowDelay)
	}

	body, err := os.ReadFile(filepath.Join(r.root, route.File))
	if err != nil {
		return Response{Status: StatusInternalError}, fmt.Errorf("failed to read %s: %w", route.File, err)
	}
	return Response{Status: route.Status, Body: body}, nil
}
