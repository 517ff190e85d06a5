package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"warehouse-be/internal/customer"
	"warehouse-be/internal/db"
	"warehouse-be/internal/document"
	"warehouse-be/internal/events"
	"warehouse-be/internal/user"
)

func mustDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// memRepo is an in-memory Repository for db.MemoryTransactor. Writes are
// undone on rollback and GetForUpdate holds the order until the unit ends.
type memRepo struct {
	mu         sync.Mutex
	cond       *sync.Cond
	orders     map[uint]*Order
	seq        map[string]int
	owners     map[any]any
	nextOrder  uint
	nextItem   uint
	failInsert error
}

func newMemRepo() *memRepo {
	r := &memRepo{
		orders: make(map[uint]*Order),
		seq:    make(map[string]int),
		owners: make(map[any]any),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = make([]*Item, len(o.Items))
	for i, it := range o.Items {
		cp := *it
		c.Items[i] = &cp
	}
	return &c
}

func (r *memRepo) lock(ctx context.Context, k any) {
	owner := db.UnitOf(ctx)
	r.mu.Lock()
	for {
		cur, held := r.owners[k]
		if !held {
			r.owners[k] = owner
			break
		}
		if cur == owner {
			r.mu.Unlock()
			return
		}
		r.cond.Wait()
	}
	r.mu.Unlock()

	db.OnFinish(ctx, func() {
		r.mu.Lock()
		delete(r.owners, k)
		r.mu.Unlock()
		r.cond.Broadcast()
	})
}

// snapshot must be called with r.mu held.
func (r *memRepo) snapshot(ctx context.Context, id uint) {
	prev, existed := r.orders[id]
	if existed {
		prev = cloneOrder(prev)
	}
	db.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.orders[id] = prev
		} else {
			delete(r.orders, id)
		}
	})
}

func (r *memRepo) NextDailySequence(ctx context.Context, day time.Time) (int, error) {
	k := day.Format("2006-01-02")
	r.lock(ctx, "seq:"+k)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.seq[k]
	next := 0
	if existed {
		next = prev + 1
	}
	r.seq[k] = next
	db.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.seq[k] = prev
		} else {
			delete(r.seq, k)
		}
	})
	return next, nil
}

func (r *memRepo) Insert(ctx context.Context, o *Order) error {
	if r.failInsert != nil {
		return r.failInsert
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	o.ID = r.nextOrder
	o.UpdatedAt = o.CreatedAt
	r.snapshot(ctx, o.ID)

	stored := cloneOrder(o)
	stored.Items = nil
	r.orders[o.ID] = stored
	return nil
}

func (r *memRepo) InsertItems(ctx context.Context, orderID uint, items []*Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	r.snapshot(ctx, orderID)
	for _, it := range items {
		r.nextItem++
		it.ID = r.nextItem
		it.OrderID = orderID
		cp := *it
		o.Items = append(o.Items, &cp)
	}
	return nil
}

func (r *memRepo) UpdateItem(ctx context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[it.OrderID]
	if !ok {
		return ErrUnknownItem
	}
	for i, cur := range o.Items {
		if cur.ID == it.ID {
			r.snapshot(ctx, it.OrderID)
			cp := *it
			o.Items[i] = &cp
			return nil
		}
	}
	return ErrUnknownItem
}

func (r *memRepo) DeleteItems(ctx context.Context, orderID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	r.snapshot(ctx, orderID)

	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := o.Items[:0]
	for _, it := range o.Items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	o.Items = kept
	return nil
}

func (r *memRepo) UpdateHeader(ctx context.Context, upd *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[upd.ID]
	if !ok {
		return ErrOrderNotFound
	}
	r.snapshot(ctx, upd.ID)
	o.CustomerID = upd.CustomerID
	o.Remark = upd.Remark
	o.TotalPrice = upd.TotalPrice
	o.UpdatedAt = upd.UpdatedAt
	return nil
}

func (r *memRepo) UpdateFlags(ctx context.Context, id uint, in FlagsInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if in.IsPaid != nil {
		o.IsPaid = *in.IsPaid
	}
	if in.IsCompleted != nil {
		o.IsCompleted = *in.IsCompleted
	}
	if in.Remark != nil {
		o.Remark = *in.Remark
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	r.snapshot(ctx, id)
	delete(r.orders, id)
	return nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, id uint) (*Order, error) {
	r.lock(ctx, id)
	return r.GetByID(ctx, id)
}

func (r *memRepo) GetByID(_ context.Context, id uint) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	c := cloneOrder(o)
	c.CustomerName = customerName(o.CustomerID)
	return c, nil
}

func (r *memRepo) List(_ context.Context, f Filter) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Order
	for _, o := range r.orders {
		if f.Type != nil && o.Type != *f.Type {
			continue
		}
		if f.IsPaid != nil && o.IsPaid != *f.IsPaid {
			continue
		}
		if f.IsCompleted != nil && o.IsCompleted != *f.IsCompleted {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubCustomers struct{}

func customerName(id uint) string {
	if id == 8 {
		return "CV Logam Jaya"
	}
	return "PT Baja Makmur"
}

func (stubCustomers) FindByID(_ context.Context, id uint) (*customer.Customer, error) {
	if id == 404 {
		return nil, customer.ErrCustomerNotFound
	}
	if id == 500 {
		return nil, errors.New("conn reset")
	}
	return &customer.Customer{ID: id, Name: customerName(id)}, nil
}

type stubUsers struct{}

func (stubUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	if id == 404 {
		return nil, user.ErrUserNotFound
	}
	return &user.User{ID: id, Username: "clerk"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type stubRenderer struct {
	got *document.OrderView
	err error
}

func (r *stubRenderer) Render(_ context.Context, view document.OrderView) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.got = &view
	return []byte("%PDF"), nil
}
