// Package buffer provides the single-consumer command queue that
// serializes every state mutation in the module. Producers enqueue
// zero-argument closures from any goroutine; one dedicated worker
// executes them in FIFO order.
package buffer

import "sync"

// Command is a deferred unit of work executed on the consumer goroutine.
type Command func()

// CommandBuffer is an unbounded FIFO with exactly one consumer.
// Push never blocks the producer beyond the enqueue critical section.
type CommandBuffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	queue    []Command
	stopping bool
	done     chan struct{}
}

// New creates a CommandBuffer and starts its worker goroutine.
func New() *CommandBuffer {
	b := &CommandBuffer{done: make(chan struct{})}
	b.notEmpty = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Push enqueues a command. Safe to call from any goroutine, including the
// consumer itself. Commands pushed after Stop are dropped; returns false
// in that case.
func (b *CommandBuffer) Push(cmd Command) bool {
	if cmd == nil {
		return false
	}
	b.mu.Lock()
	if b.stopping {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, cmd)
	b.mu.Unlock()
	b.notEmpty.Signal()
	return true
}

// Len returns the number of queued commands not yet started.
func (b *CommandBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Stop drains the queue to quiescence and joins the worker. After Stop
// returns, no further commands run. Idempotent.
func (b *CommandBuffer) Stop() {
	b.mu.Lock()
	if b.stopping {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.stopping = true
	b.mu.Unlock()
	b.notEmpty.Signal()
	<-b.done
}

func (b *CommandBuffer) run() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.stopping {
			b.notEmpty.Wait()
		}
		if len(b.queue) == 0 && b.stopping {
			b.mu.Unlock()
			return
		}
		cmd := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		cmd()
	}
}
