package db

import (
	"context"
	"sync"
)

// journal is the in-memory unit of work: undo steps run on rollback, release
// steps (lock unlocks) run when the unit ends either way.
type journal struct {
	mu       sync.Mutex
	undo     []func()
	releases []func()
}

type journalKey struct{}

func journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	return j, ok
}

// OnRollback registers an undo step for the in-memory unit of work in ctx.
// It reports false when ctx carries none.
func OnRollback(ctx context.Context, undo func()) bool {
	j, ok := journalFrom(ctx)
	if !ok {
		return false
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
	return true
}

// OnFinish registers a step that runs after commit or rollback.
func OnFinish(ctx context.Context, release func()) bool {
	j, ok := journalFrom(ctx)
	if !ok {
		return false
	}
	j.mu.Lock()
	j.releases = append(j.releases, release)
	j.mu.Unlock()
	return true
}

// MemoryTransactor gives in-memory stores the same all-or-nothing contract as
// SQLTransactor.
type MemoryTransactor struct{}

func NewMemoryTransactor() *MemoryTransactor {
	return &MemoryTransactor{}
}

func (MemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return ErrNestedTx
	}

	j := &journal{}
	committed := false

	defer func() {
		p := recover()
		if !committed {
			for i := len(j.undo) - 1; i >= 0; i-- {
				j.undo[i]()
			}
		}
		for i := len(j.releases) - 1; i >= 0; i-- {
			j.releases[i]()
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		return err
	}
	committed = true
	return nil
}

// UnitOf returns an opaque identity for the unit of work in ctx, or nil.
func UnitOf(ctx context.Context) any {
	if j, ok := journalFrom(ctx); ok {
		return j
	}
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return nil
}
