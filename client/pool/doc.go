// Package pool provides a bounded worker pool for asynchronous request
// execution.
//
// A [Pool] satisfies client.Executor, so it can be attached to a request
// with client.WithExecutor:
//
//	p := pool.New(4)
//	req.Apply(client.WithExecutor(p))
//	req.ExecuteAsync(ctx, onSuccess, onFailure)
//	p.Wait()
//
// Tasks beyond the concurrency limit wait for a free slot. After
// [Pool.Shutdown], new tasks are rejected with [ErrShutdown].
package pool
