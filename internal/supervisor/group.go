// Package supervisor runs a service process's background loops under a
// single errgroup.Group: the first loop to return an error cancels the
// shared context so every other loop unwinds together when one fails.
package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group supervises a set of long-running loops that should all stop
// together.
type Group struct {
	eg *errgroup.Group
}

// New returns a Group and a context that loops should select on; canceling
// it (directly, or by one loop returning an error) unwinds the rest.
func New(ctx context.Context) (*Group, context.Context) {
	eg, groupCtx := errgroup.WithContext(ctx)
	return &Group{eg: eg}, groupCtx
}

// Go starts fn under the group. fn should return promptly once the group
// context returned by New is canceled.
func (g *Group) Go(fn func() error) {
	g.eg.Go(fn)
}

// Wait blocks until every goroutine started with Go has returned, yielding
// the first non-nil error, if any.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
