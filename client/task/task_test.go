package task_test

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/apiclient/client/task"
	"github.com/google/go-cmp/cmp"
)

var errBoom = errors.New("boom")

func TestRun_Result(t *testing.T) {
	testCases := []struct {
		name   string
		fn     func(context.Context) (int, error)
		exp    int
		expErr error
	}{
		{
			name: "success",
			fn:   func(context.Context) (int, error) { return 42, nil },
			exp:  42,
		},
		{
			name:   "failure",
			fn:     func(context.Context) (int, error) { return 0, errBoom },
			expErr: errBoom,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := task.Run(t.Context(), nil, tc.fn).Result()
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}
			if got != tc.exp {
				t.Errorf("exp %d; got %d", tc.exp, got)
			}
		})
	}
}

func TestThen_ChainsValues(t *testing.T) {
	first := task.Run(t.Context(), nil, func(context.Context) (int, error) { return 7, nil })
	second := task.Then(first, nil, func(_ context.Context, v int) (string, error) {
		return strconv.Itoa(v * 6), nil
	})

	got, err := second.Result()
	if err != nil {
		t.Fatalf("exp nil err; got: %v", err)
	}
	if got != "42" {
		t.Errorf("exp 42; got %q", got)
	}
	if p := second.Progress(); p != 1 {
		t.Errorf("exp progress 1 after success; got %v", p)
	}
}

func TestThen_ShortCircuitsOnFailure(t *testing.T) {
	var called bool

	failed := task.Failed[int](errBoom)
	next := task.Then(failed, nil, func(context.Context, int) (int, error) {
		called = true
		return 1, nil
	})

	if err := next.Err(); !errors.Is(err, errBoom) {
		t.Fatalf("exp %v; got: %v", errBoom, err)
	}
	if called {
		t.Error("continuation must not run after a failure")
	}
}

func TestAndThen(t *testing.T) {
	first := task.Succeeded("abc")
	next := task.AndThen(first, func(ctx context.Context, v string) *task.Task[int] {
		return task.Run(ctx, nil, func(context.Context) (int, error) { return len(v), nil })
	})

	got, err := next.Result()
	if err != nil {
		t.Fatalf("exp nil err; got: %v", err)
	}
	if got != 3 {
		t.Errorf("exp 3; got %d", got)
	}
}

func TestAndThen_NilTask(t *testing.T) {
	next := task.AndThen(task.Succeeded(1), func(context.Context, int) *task.Task[int] { return nil })

	if err := next.Err(); !errors.Is(err, task.ErrNilTask) {
		t.Errorf("exp %v; got: %v", task.ErrNilTask, err)
	}
}

func TestRecover(t *testing.T) {
	testCases := []struct {
		name    string
		in      *task.Task[int]
		recover func(context.Context, error) *task.Task[int]
		exp     int
		expErr  error
	}{
		{
			name:    "success passes through",
			in:      task.Succeeded(5),
			recover: func(context.Context, error) *task.Task[int] { return task.Succeeded(0) },
			exp:     5,
		},
		{
			name:    "failure replaced",
			in:      task.Failed[int](errBoom),
			recover: func(context.Context, error) *task.Task[int] { return task.Succeeded(9) },
			exp:     9,
		},
		{
			name:    "nil replacement keeps error",
			in:      task.Failed[int](errBoom),
			recover: func(context.Context, error) *task.Task[int] { return nil },
			expErr:  errBoom,
		},
		{
			name:    "cancellation is not recovered",
			in:      task.Failed[int](task.ErrCanceled),
			recover: func(context.Context, error) *task.Task[int] { return task.Succeeded(9) },
			expErr:  task.ErrCanceled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := task.Recover(tc.in, tc.recover).Result()
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}
			if got != tc.exp {
				t.Errorf("exp %d; got %d", tc.exp, got)
			}
		})
	}
}

func TestCancel_BeforeStepStarts(t *testing.T) {
	release := make(chan struct{})
	var secondRan atomic.Bool

	first := task.Run(t.Context(), nil, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	second := task.Then(first, nil, func(context.Context, int) (int, error) {
		secondRan.Store(true)
		return 2, nil
	})

	second.Cancel()
	close(release)

	if err := second.Err(); !errors.Is(err, task.ErrCanceled) {
		t.Fatalf("exp %v; got: %v", task.ErrCanceled, err)
	}
	if !errors.Is(second.Err(), context.Canceled) {
		t.Errorf("exp cause context.Canceled to be wrapped; got: %v", second.Err())
	}
	if secondRan.Load() {
		t.Error("step scheduled after cancellation must not run")
	}
}

func TestCancel_OutstandingStep(t *testing.T) {
	started := make(chan struct{})

	tk := task.Run(t.Context(), nil, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	tk.Cancel()

	if err := tk.Err(); !errors.Is(err, task.ErrCanceled) {
		t.Errorf("exp %v; got: %v", task.ErrCanceled, err)
	}
}

func TestCancel_PropagatesIntoAndThen(t *testing.T) {
	started := make(chan struct{})
	var innerCanceled atomic.Bool

	outer := task.AndThen(task.Succeeded(1), func(ctx context.Context, _ int) *task.Task[int] {
		return task.Run(ctx, nil, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			innerCanceled.Store(true)
			return 0, ctx.Err()
		})
	})

	<-started
	outer.Cancel()

	if err := outer.Err(); !errors.Is(err, task.ErrCanceled) {
		t.Fatalf("exp %v; got: %v", task.ErrCanceled, err)
	}
	if !innerCanceled.Load() {
		t.Error("inner task must observe cancellation")
	}
}

func TestDeadline_WrapsCause(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	tk := task.Run(ctx, nil, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	err := tk.Err()
	if !errors.Is(err, task.ErrCanceled) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("exp canceled wrapping deadline exceeded; got: %v", err)
	}
}

func TestAwait_ContextEnds(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	tk := task.Run(t.Context(), nil, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := tk.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("exp context.Canceled; got: %v", err)
	}
}

func TestProgress_SharedAcrossChain(t *testing.T) {
	reported := make(chan struct{})
	release := make(chan struct{})

	first := task.Run(t.Context(), nil, func(ctx context.Context) (int, error) {
		task.ProgressFrom(ctx).Set(0.5)
		close(reported)
		<-release
		return 1, nil
	})
	second := task.Then(first, nil, func(_ context.Context, v int) (int, error) { return v, nil })

	<-reported
	if p := second.Progress(); p != 0.5 {
		t.Errorf("exp progress 0.5 mid-chain; got %v", p)
	}
	close(release)

	if _, err := second.Result(); err != nil {
		t.Fatal(err)
	}
	if p := first.Progress(); p != 1 {
		t.Errorf("exp progress 1; got %v", p)
	}
}

func TestProgress_Monotonic(t *testing.T) {
	var p task.Progress

	var got []float64
	for _, f := range []float64{0.2, 0.1, 0.6, -1, 0.4, 2} {
		p.Set(f)
		got = append(got, p.Value())
	}

	exp := []float64{0.2, 0.2, 0.6, 0.6, 0.6, 1}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	var nilProgress *task.Progress
	nilProgress.Set(0.5)
	if v := nilProgress.Value(); v != 0 {
		t.Errorf("exp nil progress to read 0; got %v", v)
	}
}

func TestFinally(t *testing.T) {
	testCases := []struct {
		name   string
		build  func(context.Context) *task.Task[int]
		cancel bool
		expErr error
	}{
		{
			name:  "success",
			build: func(context.Context) *task.Task[int] { return task.Succeeded(1) },
		},
		{
			name:   "failure",
			build:  func(context.Context) *task.Task[int] { return task.Failed[int](errBoom) },
			expErr: errBoom,
		},
		{
			name: "canceled before start",
			build: func(ctx context.Context) *task.Task[int] {
				ctx, cancel := context.WithCancel(ctx)
				cancel()
				return task.Run(ctx, nil, func(context.Context) (int, error) { return 1, nil })
			},
			expErr: task.ErrCanceled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32

			tk := task.Finally(tc.build(t.Context()), func() { calls.Add(1) })
			if err := tk.Err(); !errors.Is(err, tc.expErr) {
				t.Errorf("exp err %v; got: %v", tc.expErr, err)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("exp fn to run once before completion; ran %d times", n)
			}
		})
	}
}

func TestMapError(t *testing.T) {
	errMapped := errors.New("mapped")
	mapper := func(err error) error { return errors.Join(errMapped, err) }

	t.Run("success untouched", func(t *testing.T) {
		v, err := task.MapError(task.Succeeded(3), mapper).Result()
		if err != nil || v != 3 {
			t.Errorf("exp 3, nil; got: %d, %v", v, err)
		}
	})

	t.Run("failure mapped", func(t *testing.T) {
		err := task.MapError(task.Failed[int](errBoom), mapper).Err()
		if !errors.Is(err, errMapped) || !errors.Is(err, errBoom) {
			t.Errorf("exp mapped error wrapping original; got: %v", err)
		}
	})

	t.Run("cancellation mapped", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		tk := task.Run(ctx, nil, func(context.Context) (int, error) { return 1, nil })
		err := task.MapError(tk, mapper).Err()
		if !errors.Is(err, errMapped) || !errors.Is(err, task.ErrCanceled) {
			t.Errorf("exp mapped cancellation; got: %v", err)
		}
	})

	t.Run("nil keeps original", func(t *testing.T) {
		err := task.MapError(task.Failed[int](errBoom), func(error) error { return nil }).Err()
		if err != errBoom {
			t.Errorf("exp original error; got: %v", err)
		}
	})
}
