package task

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueShutdown indicates work was submitted to, or pending on, a
// Queue that has been closed.
var ErrQueueShutdown = errors.New("queue shut down")

// queueBacklog bounds how many submissions may wait before Do blocks.
const queueBacklog = 64

type job struct {
	ctx  context.Context
	fn   func()
	done chan error
}

// Queue executes submitted functions one at a time, in submission order,
// on a single goroutine.
type Queue struct {
	mu       sync.RWMutex
	shutdown bool
	jobs     chan job
	stop     chan struct{}
	exited   chan struct{}
	once     sync.Once
}

// NewQueue starts a Queue. Close must be called to release its goroutine.
func NewQueue() *Queue {
	q := &Queue{
		jobs:   make(chan job, queueBacklog),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go q.loop()

	return q
}

// Do runs fn on the queue and waits for it to return. If ctx ends before
// fn is started, fn is skipped and ctx's error is returned.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	if err := q.submit(j); err != nil {
		return err
	}

	return <-j.done
}

// Go submits fn without waiting for it to run. The returned error only
// reports whether the submission was accepted.
func (q *Queue) Go(ctx context.Context, fn func()) error {
	return q.submit(job{ctx: ctx, fn: fn, done: make(chan error, 1)})
}

func (q *Queue) submit(j job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.shutdown {
		return ErrQueueShutdown
	}

	select {
	case q.jobs <- j:
		return nil
	case <-j.ctx.Done():
		return j.ctx.Err()
	}
}

// Close stops accepting work, fails anything still pending with
// ErrQueueShutdown and waits for the running function, if any.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.shutdown = true
		close(q.stop)
		q.mu.Unlock()
	})

	<-q.exited
}

func (q *Queue) loop() {
	defer close(q.exited)

	for {
		select {
		case j := <-q.jobs:
			q.run(j)
		case <-q.stop:
			for {
				select {
				case j := <-q.jobs:
					j.done <- ErrQueueShutdown
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(j job) {
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}

	j.fn()
	j.done <- nil
}
