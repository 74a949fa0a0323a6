package querycache

import (
	"context"
	"log/slog"
)

// Result is the outcome of a mutation.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Mutation describes a write and the keys it invalidates on success.
type Mutation[T any] struct {
	Name        string
	Do          func(ctx context.Context) (T, error)
	Invalidates []Key
	// Reconcile reports whether a failed mutation should still invalidate its
	// keys, for errors which show the cached data is out of date.
	Reconcile func(err error) bool
}

// Mutate runs m and invalidates its keys once it has succeeded.
func Mutate[T any](ctx context.Context, c *Cache, m Mutation[T]) Result[T] {
	value, err := m.Do(ctx)
	if err != nil {
		slog.WarnContext(ctx, "mutation failed", slog.String("mutation", m.Name), slog.Any("err", err))
		if m.Reconcile != nil && m.Reconcile(err) {
			c.Invalidate(m.Invalidates...)
		}
		return Err[T](err)
	}

	invalidated := c.Invalidate(m.Invalidates...)
	slog.DebugContext(ctx, "mutation succeeded", slog.String("mutation", m.Name), slog.Int("invalidated", len(invalidated)))
	return Ok(value)
}
