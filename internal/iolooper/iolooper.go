// Package iolooper implements the FIFO task queue and single worker
// goroutine that serialises all access to an iowriter.Writer. The queue
// has no size limit: Post always appends and never waits for room.
package iolooper

import (
	"sync"

	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/iowriter"
)

// Task is a unit of work posted to the Looper; it runs on the worker
// goroutine with exclusive access to the Writer.
type Task func(w *iowriter.Writer)

// Looper owns one worker goroutine and a FIFO of pending Tasks. The
// worker is woken through a channel rather than polling: Post signals a
// buffered doorbell channel, and shutdown is signalled by closing a
// separate kill channel. Tasks enqueued by any caller execute in enqueue
// order; there is never more than one Task running at a time.
type Looper struct {
	writer *iowriter.Writer

	mu     sync.Mutex
	queue  []Task
	closed bool

	wake chan struct{} // buffered doorbell: a task was appended
	kill chan struct{} // closed once no further tasks will be appended
	done chan struct{} // closed once the worker goroutine has returned
}

// New starts the worker goroutine over writer.
func New(writer *iowriter.Writer) *Looper {
	l := &Looper{
		writer: writer,
		wake:   make(chan struct{}, 1),
		kill:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Looper) killRequested() bool {
	select {
	case <-l.kill:
		return true
	default:
		return false
	}
}

func (l *Looper) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 {
			l.mu.Unlock()
			select {
			case <-l.wake:
			case <-l.kill:
			}
			l.mu.Lock()
			if len(l.queue) == 0 && l.killRequested() {
				l.mu.Unlock()
				return
			}
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task(l.writer)
	}
}

func (l *Looper) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Post appends task to the FIFO. It never blocks on I/O; it returns
// InstanceClosed if the Looper has already been killed or told to quit.
func (l *Looper) Post(task Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errs.New(errs.InstanceClosed)
	}
	l.queue = append(l.queue, task)
	l.signal()
	return nil
}

// PostAndKill clears any pending tasks, enqueues task as the final one,
// closes the kill channel, and blocks until the worker goroutine has run
// it and exited. Only PostAndKill cancels queued work; Quit waits for it
// to drain.
func (l *Looper) PostAndKill(task Task) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.queue = []Task{task}
	l.closed = true
	close(l.kill)
	l.mu.Unlock()
	<-l.done
}

// Quit stops accepting new tasks, closes the kill channel, and blocks
// until the worker has drained every already-pending task and exited.
func (l *Looper) Quit() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.kill)
	l.mu.Unlock()
	<-l.done
}

// Sync posts a barrier task and waits for it to run, guaranteeing every
// task posted before Sync has completed. Used by tests.
func (l *Looper) Sync() {
	barrier := make(chan struct{})
	if err := l.Post(func(*iowriter.Writer) { close(barrier) }); err != nil {
		return
	}
	<-barrier
}
