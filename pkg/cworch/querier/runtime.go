package querier

import (
	"context"
	"errors"
)

// ErrQuerierNeedsRuntime is returned by a querier's blocking method when it
// was constructed without a Runtime handle (spec.md §4.2 "Blocking methods
// fail with QuerierNeedRuntime if no handle is held").
var ErrQuerierNeedsRuntime = errors.New("querier: blocking call requires a runtime handle")

// Runtime is the sync-over-async construction mode's execution handle. A
// Querier built with a Runtime exposes blocking methods that run a
// context-taking call against the Runtime's base context; one built
// without exposes only the context-taking ("async") methods (spec.md §4.2).
type Runtime struct {
	ctx context.Context
}

// NewRuntime wraps a base context blocking calls will inherit.
func NewRuntime(ctx context.Context) *Runtime {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runtime{ctx: ctx}
}

// callBlocking adapts a context-taking query method into the blocking form,
// failing with ErrQuerierNeedsRuntime if rt is nil.
func callBlocking[T any](rt *Runtime, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if rt == nil {
		return zero, ErrQuerierNeedsRuntime
	}
	return fn(rt.ctx)
}
