package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type numberedJob int

func (numberedJob) Run() {}

func TestChannelKeepsSenderOrder(t *testing.T) {
	ch := newControlChannel()
	for i := range 5 {
		require.NoError(t, ch.send(runMessage{job: numberedJob(i)}, 0))
	}
	require.NoError(t, ch.send(stopMessage{}, 0))

	for i := range 5 {
		msg, ok := ch.receive()
		require.True(t, ok)
		run, isRun := msg.(runMessage)
		require.True(t, isRun)
		assert.Equal(t, numberedJob(i), run.job)
	}
	msg, ok := ch.receive()
	require.True(t, ok)
	assert.IsType(t, stopMessage{}, msg)
}

func TestChannelCloseDrainsThenReportsClosed(t *testing.T) {
	ch := newControlChannel()
	require.NoError(t, ch.send(stopMessage{}, 0))
	require.NoError(t, ch.closeWith())

	assert.ErrorIs(t, ch.send(stopMessage{}, 0), ErrChannelClosed)
	assert.ErrorIs(t, ch.closeWith(stopMessage{}), ErrChannelClosed)

	_, ok := ch.receive()
	assert.True(t, ok)
	_, ok = ch.receive()
	assert.False(t, ok)
}

func TestChannelCloseWakesBlockedReceivers(t *testing.T) {
	ch := newControlChannel()

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := ch.receive()
			results <- ok
		}()
	}

	require.NoError(t, ch.closeWith(stopMessage{}, stopMessage{}))
	wg.Wait()
	close(results)

	var delivered, closed int
	for ok := range results {
		if ok {
			delivered++
		} else {
			closed++
		}
	}
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, closed)
}

func TestChannelLimit(t *testing.T) {
	ch := newControlChannel()
	require.NoError(t, ch.send(stopMessage{}, 2))
	require.NoError(t, ch.send(stopMessage{}, 2))
	assert.ErrorIs(t, ch.send(stopMessage{}, 2), ErrQueueFull)
	assert.Equal(t, 2, ch.len())
}

func TestChannelDeliversEachMessageOnce(t *testing.T) {
	const senders, perSender, receivers = 4, 250, 6

	ch := newControlChannel()

	var (
		mu   sync.Mutex
		seen = make(map[numberedJob]int)
		rwg  sync.WaitGroup
	)
	for range receivers {
		rwg.Add(1)
		go func() {
			defer rwg.Done()
			for {
				msg, ok := ch.receive()
				if !ok {
					return
				}
				if _, stop := msg.(stopMessage); stop {
					return
				}
				mu.Lock()
				seen[msg.(runMessage).job.(numberedJob)]++
				mu.Unlock()
			}
		}()
	}

	var swg sync.WaitGroup
	for s := range senders {
		swg.Add(1)
		go func() {
			defer swg.Done()
			for i := range perSender {
				assert.NoError(t, ch.send(runMessage{job: numberedJob(s*perSender + i)}, 0))
			}
		}()
	}
	swg.Wait()

	stops := make([]message, receivers)
	for i := range stops {
		stops[i] = stopMessage{}
	}
	require.NoError(t, ch.closeWith(stops...))
	rwg.Wait()

	assert.Len(t, seen, senders*perSender)
	for id, n := range seen {
		assert.Equal(t, 1, n, "message %d", id)
	}
}
