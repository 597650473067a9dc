// Package lock provides the mutual exclusion that serializes badge numbering.
package lock

import (
	"context"
	"errors"
)

var ErrNotHeld = errors.New("lock not held")

// Locker is held from the first badge adjustment of a unit of work until its
// write has finished or failed.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Local is an in-process Locker.
type Local struct {
	ch chan struct{}
}

func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

func (l *Local) Lock(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Local) TryLock() bool {
	select {
	case l.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *Local) Unlock(ctx context.Context) error {
	select {
	case <-l.ch:
		return nil
	default:
		return ErrNotHeld
	}
}
