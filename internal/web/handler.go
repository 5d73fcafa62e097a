package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"webpool/internal/metrics"
	"webpool/internal/pool"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// requestBufferSize is how much of the request the handler reads; only the
// request line matters.
const requestBufferSize = 512

// ConnHandler answers one request per connection and closes it.
type ConnHandler struct {
	responder   *Responder
	readTimeout time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewConnHandler(responder *Responder, readTimeout time.Duration, logger *slog.Logger) *ConnHandler {
	return &ConnHandler{
		responder:   responder,
		readTimeout: readTimeout,
		logger:      logger.With("component", "conn-handler"),
		tracer:      otel.Tracer("webpool-web"),
	}
}

// Job wraps the handling of conn so it can be submitted to a pool.
func (h *ConnHandler) Job(conn net.Conn) pool.Job {
	return pool.JobFunc(func() { h.Handle(conn) })
}

// Handle reads the request line from conn, writes the response and closes conn.
func (h *ConnHandler) Handle(conn net.Conn) {
	defer conn.Close()

	_, span := h.tracer.Start(context.Background(), "web.HandleConnection",
		trace.WithAttributes(attribute.String("net.peer.addr", conn.RemoteAddr().String())))
	defer span.End()

	logger := h.logger.With("remote_addr", conn.RemoteAddr().String())

	if h.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
	buf := make([]byte, requestBufferSize)
	n, err := conn.Read(buf)
	if err != nil && (n == 0 || !errors.Is(err, io.EOF)) {
		logger.Warn("failed to read request", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return
	}

	var resp Response
	req, err := ParseRequestLine(buf[:n])
	if err != nil {
		logger.Debug("unparseable request", "error", err)
		resp, err = h.responder.NotFound()
	} else {
		span.SetAttributes(attribute.String("http.method", req.Method), attribute.String("http.target", req.Path))
		resp, err = h.responder.Respond(req)
	}
	if err != nil {
		logger.Error("failed to build response", "request", req.String(), "error", err)
		span.RecordError(err)
	}

	if _, err := resp.WriteTo(conn); err != nil {
		logger.Warn("failed to write response", "error", err)
		span.RecordError(err)
	}

	code := resp.Code()
	metrics.ConnectionsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", code))
	if code >= 500 {
		span.SetStatus(codes.Error, "server error")
	}
	logger.Info("request handled", "request", req.String(), "status", resp.Status)
}
