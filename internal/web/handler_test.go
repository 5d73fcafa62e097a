package web

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, h *ConnHandler, request string) string {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(server)
	}()

	_, err := client.Write([]byte(request))
	require.NoError(t, err)
	out, err := io.ReadAll(client)
	require.NoError(t, err)
	<-done
	return string(out)
}

func TestConnHandlerServesIndex(t *testing.T) {
	h := NewConnHandler(NewResponder(staticRoot(t), 0), time.Second, slog.New(slog.DiscardHandler))

	out := roundTrip(t, h, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 14\r\n\r\n<h1>index</h1>", out)
}

func TestConnHandlerNotFound(t *testing.T) {
	h := NewConnHandler(NewResponder(staticRoot(t), 0), time.Second, slog.New(slog.DiscardHandler))

	assert.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 16\r\n\r\n<h1>missing</h1>",
		roundTrip(t, h, "GET /nope HTTP/1.1\r\n\r\n"))
	assert.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 16\r\n\r\n<h1>missing</h1>",
		roundTrip(t, h, "garbage\r\n"))
	assert.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 16\r\n\r\n<h1>missing</h1>",
		roundTrip(t, h, "GET / HTTP/1.1\n\n"))
}

func TestConnHandlerReadTimeout(t *testing.T) {
	h := NewConnHandler(NewResponder(staticRoot(t), 0), 20*time.Millisecond, slog.New(slog.DiscardHandler))

	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(server)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not give up on a silent client")
	}
	out, _ := io.ReadAll(client)
	assert.Empty(t, out)
}
