// Package task provides a small asynchronous toolkit: [Task], a cancelable
// handle to an eventually-available result, and [Queue], a serial executor.
//
// # Chaining
//
// Tasks compose sequentially. [Then] maps a successful value, [AndThen]
// continues with another Task, and [Recover] gives a failed Task a chance to
// be replaced. Any failure short-circuits the rest of the chain:
//
//	t := task.Run(ctx, nil, fetchUser)
//	name := task.Then(t, nil, func(ctx context.Context, u User) (string, error) {
//		return u.Name, nil
//	})
//	v, err := name.Result()
//
// # Cancellation and progress
//
// All tasks of a chain share one context. [Task.Cancel] on any of them
// cancels the step currently outstanding, and steps that have not started
// never run; they fail with [ErrCanceled]. [Progress] travels in the same
// context so work started with [Run] from inside a chain reports into it.
package task
