package tsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrorGroup runs named tasks concurrently. Unlike errgroup.Group a failing task does not
// cancel its siblings; every failure is collected and returned from Wait.
func ErrorGroupWithContext(ctx context.Context) (*ErrorGroup, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &ErrorGroup{cancel: cancel}, ctx
}

type ErrorGroup struct {
	mu     sync.Mutex
	errors []error
	eg     errgroup.Group
	cancel context.CancelFunc
}

func (g *ErrorGroup) Go(name string, fn func() error) {
	g.eg.Go(func() error {
		if err := fn(); err != nil {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.errors = append(g.errors, fmt.Errorf("%s: %w", name, err))
		}
		return nil
	})
}

func (g *ErrorGroup) Wait() error {
	_ = g.eg.Wait()
	if g.cancel != nil {
		g.cancel()
	}
	return errors.Join(g.errors...)
}
