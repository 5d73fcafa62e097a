package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"webpool/internal/pool"
)

const rejectReadTimeout = time.Second

// Executor is the one pool operation the server needs.
type Executor interface {
	Execute(job pool.Job) error
}

// Server accepts TCP connections and hands each one to an Executor.
type Server struct {
	listener net.Listener
	exec     Executor
	handler  *ConnHandler
	maxConns int
	logger   *slog.Logger
}

// NewServer builds a server on lis. maxConns > 0 stops accepting after
// that many connections.
func NewServer(lis net.Listener, exec Executor, handler *ConnHandler, maxConns int, logger *slog.Logger) *Server {
	return &Server{
		listener: lis,
		exec:     exec,
		handler:  handler,
		maxConns: maxConns,
		logger:   logger.With("component", "web-server"),
	}
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, the connection limit
// is reached or the listener fails. The listener is closed on return.
// Jobs already handed to the executor keep running.
func (s *Server) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-stop:
		}
	}()
	defer s.listener.Close()

	s.logger.Info("accepting connections", "addr", s.listener.Addr().String(), "max_connections", s.maxConns)

	accepted := 0
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		accepted++

		if err := s.exec.Execute(s.handler.Job(conn)); err != nil {
			s.reject(conn, err)
		}

		if s.maxConns > 0 && accepted >= s.maxConns {
			s.logger.Info("connection limit reached, shutting down", "accepted", accepted)
			return nil
		}
	}
}

// reject answers conn inline when the pool refuses the job. The request is
// consumed first so closing the socket does not reset the peer.
func (s *Server) reject(conn net.Conn, err error) {
	defer conn.Close()
	s.logger.Warn("connection rejected", "remote_addr", conn.RemoteAddr().String(), "error", err)
	if !errors.Is(err, pool.ErrQueueFull) {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(rejectReadTimeout))
	_, _ = conn.Read(make([]byte, requestBufferSize))
	_, _ = Response{Status: StatusUnavailable}.WriteTo(conn)
}
