package pool

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"webpool/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReporterCountsOutcomes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, err := New(2, WithName("reporter-test"), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, p.ExecuteFunc(func() {}))
	require.NoError(t, p.ExecuteFunc(func() { panic(errors.New("kaboom")) }))
	require.NoError(t, p.Shutdown())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JobsTotal.WithLabelValues("reporter-test", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JobsTotal.WithLabelValues("reporter-test", metrics.StatusPanic)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkersRunning.WithLabelValues("reporter-test")))

	out := buf.String()
	assert.Contains(t, out, `"msg":"job panicked"`)
	assert.Contains(t, out, "kaboom")
	assert.Contains(t, out, `"msg":"worker terminated"`)
}

func TestRejectedJobsAreCounted(t *testing.T) {
	p, err := New(1, WithName("rejected-test"), WithReporter(newRecordingReporter()))
	require.NoError(t, err)
	require.NoError(t, p.Shutdown())

	assert.ErrorIs(t, p.ExecuteFunc(func() {}), ErrPoolClosed)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JobsRejected.WithLabelValues("rejected-test", metrics.ReasonClosed)))
}

func TestMultiReporterFansOut(t *testing.T) {
	a, b := newRecordingReporter(), newRecordingReporter()
	m := MultiReporter{a, b}

	m.JobDone(1, time.Millisecond, nil)
	m.WorkerExited(1, nil)

	for _, r := range []*recordingReporter{a, b} {
		assert.Len(t, r.jobEvents(), 1)
		assert.Contains(t, r.exited(), 1)
	}
}
