package task

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCanceled reports that a task, or the chain it belongs to, was
	// canceled before it could complete. The context's cause is wrapped.
	ErrCanceled = errors.New("request canceled")
	// ErrNilTask is returned when a continuation produces no task.
	ErrNilTask = errors.New("continuation returned a nil task")
)

// Task is a handle to a value of type T that becomes available
// asynchronously, either as a success or as an error.
//
// Tasks derived from one another with Then, AndThen and Recover form a
// chain that shares a single cancelable context and a single Progress:
// canceling any handle in the chain cancels whichever step is outstanding.
type Task[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	val    T
	err    error
}

// Run starts fn and returns a Task tracking its result. When q is non-nil
// fn is executed on that queue, otherwise on a goroutine of its own.
//
// The Task starts a new chain whose context is derived from ctx. If ctx
// already carries a Progress (because it belongs to another chain) that
// Progress is reused, which lets nested work report into its parent.
func Run[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	if ProgressFrom(ctx) == nil {
		ctx = WithProgress(ctx, &Progress{})
	}

	t := &Task[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		t.val, t.err = execute(t.ctx, q, fn)
		t.settle()
	}()

	return t
}

// Succeeded returns a completed Task holding v.
func Succeeded[T any](v T) *Task[T] {
	t := completed[T]()
	t.val = v
	ProgressFrom(t.ctx).Set(1)
	return t
}

// Failed returns a completed Task holding err.
func Failed[T any](err error) *Task[T] {
	t := completed[T]()
	t.err = err
	return t
}

func completed[T any]() *Task[T] {
	ctx, cancel := context.WithCancel(WithProgress(context.Background(), &Progress{}))
	done := make(chan struct{})
	close(done)

	return &Task[T]{ctx: ctx, cancel: cancel, done: done}
}

// Then returns a Task that runs fn with the value of t once t succeeds.
// A failure of t short-circuits: fn is not called and the error is
// propagated unchanged. When q is non-nil fn runs on that queue.
func Then[T, U any](t *Task[T], q *Queue, fn func(ctx context.Context, v T) (U, error)) *Task[U] {
	next := follow[T, U](t)

	go func() {
		defer close(next.done)
		<-t.done
		if t.err != nil {
			next.err = t.err
			return
		}

		next.val, next.err = execute(next.ctx, q, func(ctx context.Context) (U, error) {
			return fn(ctx, t.val)
		})
		next.settle()
	}()

	return next
}

// AndThen returns a Task that, once t succeeds, starts the Task produced
// by fn and completes with its result. Failures short-circuit as in Then.
func AndThen[T, U any](t *Task[T], fn func(ctx context.Context, v T) *Task[U]) *Task[U] {
	next := follow[T, U](t)

	go func() {
		defer close(next.done)
		<-t.done
		if t.err != nil {
			next.err = t.err
			return
		}

		if err := next.ctx.Err(); err != nil {
			next.err = canceled(next.ctx)
			return
		}

		next.val, next.err = join(next.ctx, fn(next.ctx, t.val))
		next.settle()
	}()

	return next
}

// Recover returns a Task that completes with the result of t, unless t
// fails. On failure fn is given the error and may return a replacement
// Task; returning nil propagates the original error. Cancellation is never
// recovered from.
func Recover[T any](t *Task[T], fn func(ctx context.Context, err error) *Task[T]) *Task[T] {
	next := follow[T, T](t)

	go func() {
		defer close(next.done)
		<-t.done
		if t.err == nil {
			next.val = t.val
			return
		}

		if errors.Is(t.err, ErrCanceled) || next.ctx.Err() != nil {
			next.err = t.err
			if !errors.Is(next.err, ErrCanceled) {
				next.err = canceled(next.ctx)
			}
			return
		}

		replacement := fn(next.ctx, t.err)
		if replacement == nil {
			next.err = t.err
			return
		}

		next.val, next.err = join(next.ctx, replacement)
		next.settle()
	}()

	return next
}

// Finally returns a Task that completes with the outcome of t after fn has
// run. fn runs exactly once whether t succeeds, fails or is canceled.
func Finally[T any](t *Task[T], fn func()) *Task[T] {
	next := follow[T, T](t)

	go func() {
		defer close(next.done)
		<-t.done
		fn()
		next.val, next.err = t.val, t.err
	}()

	return next
}

// MapError returns a Task that completes with the outcome of t, passing a
// failure through fn first. Unlike Recover, fn also sees cancellation. A
// nil result from fn keeps the original error.
func MapError[T any](t *Task[T], fn func(err error) error) *Task[T] {
	next := follow[T, T](t)

	go func() {
		defer close(next.done)
		<-t.done
		next.val, next.err = t.val, t.err
		if t.err == nil {
			return
		}
		if mapped := fn(t.err); mapped != nil {
			next.err = mapped
		}
	}()

	return next
}

// Done returns a channel that is closed when the Task completes.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Result blocks until the Task completes and returns its outcome.
func (t *Task[T]) Result() (T, error) {
	<-t.done
	return t.val, t.err
}

// Err blocks until the Task completes and returns its error.
func (t *Task[T]) Err() error {
	<-t.done
	return t.err
}

// Await blocks until the Task completes or ctx ends, whichever happens
// first. Ending ctx does not cancel the Task.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel requests cancellation of the chain the Task belongs to. It is
// best-effort: work that already completed is unaffected.
func (t *Task[T]) Cancel() { t.cancel() }

// Progress reports the completed fraction of the chain, between 0 and 1.
func (t *Task[T]) Progress() float64 {
	return ProgressFrom(t.ctx).Value()
}

// settle marks the chain as complete when the Task succeeded.
func (t *Task[T]) settle() {
	if t.err == nil {
		ProgressFrom(t.ctx).Set(1)
	}
}

// follow creates a Task sharing the chain of parent.
func follow[T, U any](parent *Task[T]) *Task[U] {
	return &Task[U]{
		ctx:    parent.ctx,
		cancel: parent.cancel,
		done:   make(chan struct{}),
	}
}

// join waits for inner, canceling it if ctx ends first.
func join[T any](ctx context.Context, inner *Task[T]) (T, error) {
	if inner == nil {
		var zero T
		return zero, ErrNilTask
	}

	select {
	case <-inner.done:
	case <-ctx.Done():
		inner.Cancel()
		<-inner.done
	}

	if inner.err != nil && ctx.Err() != nil && !errors.Is(inner.err, ErrCanceled) {
		return inner.val, canceled(ctx)
	}

	return inner.val, inner.err
}

// execute runs fn unless ctx is already done, translating errors caused
// by cancellation into ErrCanceled.
func execute[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, canceled(ctx)
	}

	if q == nil {
		v, err := fn(ctx)
		return v, normalize(ctx, err)
	}

	var (
		v   T
		err error
	)
	if qerr := q.Do(ctx, func() { v, err = fn(ctx) }); qerr != nil {
		if ctx.Err() != nil {
			return zero, canceled(ctx)
		}
		return zero, qerr
	}

	return v, normalize(ctx, err)
}

func normalize(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, ErrCanceled) {
		return err
	}

	if ctx.Err() != nil {
		return canceled(ctx)
	}

	return err
}

func canceled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}

	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
