package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/numeric"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MemoryStore is an in-process Store for use with db.MemoryTransactor. A key
// touched by Adjust stays locked until the owning unit of work finishes, and
// its new quantity is only visible to Read, Get and List after commit.
type MemoryStore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	records map[Key]*Record
	// dirty holds uncommitted records, written only by the unit owning the key.
	dirty  map[Key]*Record
	owners map[Key]any
	nextID uint
}

func NewMemoryStore(seed ...Record) *MemoryStore {
	m := &MemoryStore{
		records: make(map[Key]*Record),
		dirty:   make(map[Key]*Record),
		owners:  make(map[Key]any),
	}
	m.cond = sync.NewCond(&m.mu)
	for _, rec := range seed {
		m.nextID++
		rec.ID = m.nextID
		stored := rec
		m.records[rec.Key()] = &stored
	}
	return m
}

// lock blocks until the key is free or already owned by the unit in ctx.
// When the unit ends, whatever is left in dirty for the key is committed;
// a rollback has already discarded it.
func (m *MemoryStore) lock(ctx context.Context, key Key) {
	owner := db.UnitOf(ctx)

	m.mu.Lock()
	for {
		cur, held := m.owners[key]
		if !held {
			m.owners[key] = owner
			break
		}
		if cur == owner {
			m.mu.Unlock()
			return
		}
		m.cond.Wait()
	}
	m.mu.Unlock()

	db.OnFinish(ctx, func() {
		m.mu.Lock()
		if rec, ok := m.dirty[key]; ok {
			m.records[key] = rec
			delete(m.dirty, key)
		}
		delete(m.owners, key)
		m.mu.Unlock()
		m.cond.Broadcast()
	})
}

func (m *MemoryStore) Adjust(
	ctx context.Context,
	key Key,
	delta decimal.Decimal,
	policy MissingPolicy,
) (decimal.Decimal, error) {

	if db.UnitOf(ctx) == nil {
		return decimal.Zero, ErrNoTx
	}
	if err := numeric.Quantity.Check(delta); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrInvalidQuantity, key, err)
	}
	m.lock(ctx, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.dirty[key]
	if !ok {
		if committed, found := m.records[key]; found {
			cp := *committed
			rec, ok = &cp, true
		}
	}

	if !ok {
		switch {
		case delta.IsZero():
			return decimal.Zero, nil
		case delta.IsNegative() && policy == MissingSkip:
			logger.FromCtx(ctx).Warn("no inventory record to deduct from, skipping",
				zap.String("key", key.String()))
			return decimal.Zero, nil
		case delta.IsNegative():
			return decimal.Zero, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
		}

		m.nextID++
		now := time.Now()
		m.dirty[key] = &Record{
			ID:            m.nextID,
			Material:      key.Material,
			Specification: key.Specification,
			Quantity:      delta,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		m.discardOnRollback(ctx, key)
		return delta, nil
	}

	next := rec.Quantity.Add(delta)
	if next.IsNegative() {
		return rec.Quantity, fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientStock, key, rec.Quantity, delta.Neg())
	}
	if err := numeric.Quantity.Check(next); err != nil {
		return rec.Quantity, fmt.Errorf("%w: %s: %s", ErrInvalidQuantity, key, err)
	}

	rec.Quantity = next
	rec.UpdatedAt = time.Now()
	m.dirty[key] = rec
	m.discardOnRollback(ctx, key)

	return next, nil
}

func (m *MemoryStore) discardOnRollback(ctx context.Context, key Key) {
	db.OnRollback(ctx, func() {
		m.mu.Lock()
		delete(m.dirty, key)
		m.mu.Unlock()
	})
}

func (m *MemoryStore) Read(ctx context.Context, key Key) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return decimal.Zero, ErrRecordNotFound
	}
	return rec.Quantity, nil
}

func (m *MemoryStore) Get(ctx context.Context, key Key) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) List(ctx context.Context, filter Filter) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*Record{}
	for _, rec := range m.records {
		if filter.Material != "" && rec.Material != filter.Material {
			continue
		}
		if filter.Specification != "" && rec.Specification != filter.Specification {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, nil
}

func (m *MemoryStore) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rec.Key()
	_, committed := m.records[key]
	_, pending := m.dirty[key]
	if committed || pending {
		return fmt.Errorf("%w: %s", ErrRecordExists, key)
	}

	m.nextID++
	now := time.Now()
	rec.ID = m.nextID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	stored := *rec
	m.records[key] = &stored

	db.OnRollback(ctx, func() {
		m.mu.Lock()
		delete(m.records, key)
		m.mu.Unlock()
	})
	return nil
}
