package pool

import "sync"

// controlChannel is an unbounded FIFO shared by every sender and every
// worker. Each message is handed to exactly one receiver.
//
// Go channels need a fixed capacity, so the queue is a slice guarded by a
// mutex and a condition variable; senders never wait for a receiver.
type controlChannel struct {
	mu     sync.Mutex
	ready  *sync.Cond
	queue  []message
	closed bool
}

func newControlChannel() *controlChannel {
	c := &controlChannel{}
	c.ready = sync.NewCond(&c.mu)
	return c
}

// send enqueues msg. limit > 0 rejects the message with ErrQueueFull when
// that many messages are already waiting.
func (c *controlChannel) send(msg message, limit int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	if limit > 0 && len(c.queue) >= limit {
		return ErrQueueFull
	}
	c.queue = append(c.queue, msg)
	c.ready.Signal()
	return nil
}

// receive blocks until a message is available. It reports false only when
// the send side is closed and nothing is left to deliver.
func (c *controlChannel) receive() (message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.queue) == 0 && !c.closed {
		c.ready.Wait()
	}
	if len(c.queue) == 0 {
		return nil, false
	}
	msg := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return msg, true
}

// closeWith appends final to the queue and closes the send side in one
// step, so no concurrent send can land behind the final messages. Already
// queued messages stay deliverable.
func (c *controlChannel) closeWith(final ...message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	c.queue = append(c.queue, final...)
	c.closed = true
	c.ready.Broadcast()
	return nil
}

func (c *controlChannel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
