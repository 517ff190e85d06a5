package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-be/internal/apperror"
	"warehouse-be/internal/auth"
	"warehouse-be/internal/customer"
	"warehouse-be/internal/db"
	"warehouse-be/internal/document"
	"warehouse-be/internal/events"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/user"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, in CreateInput) (*CreateResult, error)
	Get(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, error)
	Edit(ctx context.Context, caller auth.Caller, id uint, in EditInput) (*Order, error)
	Delete(ctx context.Context, caller auth.Caller, id uint) error
	UpdateFlags(ctx context.Context, id uint, in FlagsInput) error
	Document(ctx context.Context, id uint) ([]byte, error)
}

// Deps are the collaborators of the order service. Publisher, Renderer,
// Metrics and Now may be left nil.
type Deps struct {
	Repo      Repository
	Ledger    inventory.Ledger
	Tx        db.Transactor
	Customers customer.Repository
	Users     user.Repository
	Publisher events.Publisher
	Renderer  document.Renderer
	Metrics   *metrics.Registry
	Missing   inventory.MissingPolicy
	Now       func() time.Time
}

type service struct {
	repo      Repository
	ledger    inventory.Ledger
	tx        db.Transactor
	customers customer.Repository
	users     user.Repository
	publisher events.Publisher
	renderer  document.Renderer
	metrics   *metrics.Registry
	missing   inventory.MissingPolicy
	now       func() time.Time
}

func NewService(d Deps) Service {
	s := &service{
		repo:      d.Repo,
		ledger:    d.Ledger,
		tx:        d.Tx,
		customers: d.Customers,
		users:     d.Users,
		publisher: d.Publisher,
		renderer:  d.Renderer,
		metrics:   d.Metrics,
		missing:   d.Missing,
		now:       d.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FormatOrderNumber renders YYYYMMDD followed by the two-digit daily sequence.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%02d", day.Format("20060102"), seq)
}

func (s *service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("order_type", string(in.Type)),
		zap.Uint("customer_id", in.CustomerID),
		zap.Uint("user_id", in.UserID),
	)
	timer := metrics.StartTimer()

	if !in.Type.Valid() {
		return nil, ErrInvalidOrderType
	}
	if in.CustomerID == 0 {
		return nil, ErrCustomerRequired
	}
	if in.UserID == 0 {
		return nil, ErrUserRequired
	}
	items, err := buildItems(in.Items, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.findCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	o := &Order{
		Type:       in.Type,
		CustomerID: in.CustomerID,
		UserID:     in.UserID,
		Remark:     in.Remark,
		Items:      items,
		TotalPrice: Total(items),
	}

	deltas := Deltas{}
	if o.Type.AffectsStock() {
		deltas = ConsumptionDeltas(items)
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Stock first: the day's sequence row serializes every create, so it
		// is locked as late as possible.
		if err := s.applyDeltas(ctx, deltas); err != nil {
			return err
		}

		seq, err := s.repo.NextDailySequence(ctx, now)
		if err != nil {
			return err
		}
		o.OrderNumber = FormatOrderNumber(now, seq)
		o.CreatedAt = now

		if err := s.repo.Insert(ctx, o); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, o.ID, items)
	})
	if err != nil {
		s.metrics.Counter("order_mutations_failed").Inc()
		log.Warn("create order failed", zap.Error(err))
		return nil, wrapInternal("create order", err)
	}

	s.metrics.Counter("orders_created").Inc()
	log.Info("order created",
		zap.Uint("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("total_price", o.TotalPrice.String()),
		zap.Int("stock_keys", len(deltas)),
		zap.Duration("duration", timer.Duration()),
	)

	s.publish(ctx, toEvent(events.OrderCreated, o, deltas))
	return &CreateResult{OrderID: o.ID, OrderNumber: o.OrderNumber}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapInternal("get order", err)
	}
	return o, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Order, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrInvalidOrderType
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, wrapInternal("list orders", err)
	}
	return orders, nil
}

// Edit replaces an order's customer, remark and item list. For SALES orders
// the inventory moves by exactly the difference between the stored items and
// the new ones, inside the same transaction as the item writes.
func (s *service) Edit(ctx context.Context, caller auth.Caller, id uint, in EditInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "EditOrder"),
		zap.Uint("order_id", id),
		zap.Uint("by_user", caller.UserID),
	)
	timer := metrics.StartTimer()

	if !caller.CanManageOrders() {
		log.Warn("edit order rejected", zap.String("role", string(caller.Role)))
		return nil, ErrForbidden
	}
	if in.CustomerID == 0 {
		return nil, ErrCustomerRequired
	}
	proposed, err := buildItems(in.Items, true)
	if err != nil {
		return nil, err
	}
	cust, err := s.findCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	var (
		edited *Order
		deltas Deltas
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		diff, err := Diff(current.Type, current.Items, proposed)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteItems(ctx, id, diff.DeleteIDs()); err != nil {
			return err
		}
		for _, it := range diff.ToUpdate {
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		if err := s.repo.InsertItems(ctx, id, diff.ToCreate); err != nil {
			return err
		}

		current.CustomerID = in.CustomerID
		current.CustomerName = cust.Name
		current.Remark = in.Remark
		current.Items = proposed
		current.TotalPrice = Total(proposed)
		current.UpdatedAt = s.now()
		if err := s.repo.UpdateHeader(ctx, current); err != nil {
			return err
		}

		if err := s.applyDeltas(ctx, diff.Deltas); err != nil {
			return err
		}

		log.Debug("order items reconciled",
			zap.Int("created", len(diff.ToCreate)),
			zap.Int("updated", len(diff.ToUpdate)),
			zap.Int("deleted", len(diff.ToDelete)),
		)
		edited, deltas = current, diff.Deltas
		return nil
	})
	if err != nil {
		s.metrics.Counter("order_mutations_failed").Inc()
		log.Warn("edit order failed", zap.Error(err))
		return nil, wrapInternal("edit order", err)
	}

	s.metrics.Counter("orders_edited").Inc()
	log.Info("order edited",
		zap.String("order_number", edited.OrderNumber),
		zap.String("total_price", edited.TotalPrice.String()),
		zap.Int("stock_keys", len(deltas)),
		zap.Duration("duration", timer.Duration()),
	)

	s.publish(ctx, toEvent(events.OrderEdited, edited, deltas))
	return edited, nil
}

// Delete removes an order and, for SALES orders, returns every item's
// quantity to stock in the same transaction.
func (s *service) Delete(ctx context.Context, caller auth.Caller, id uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteOrder"),
		zap.Uint("order_id", id),
		zap.Uint("by_user", caller.UserID),
	)

	if !caller.CanManageOrders() {
		log.Warn("delete order rejected", zap.String("role", string(caller.Role)))
		return ErrForbidden
	}

	var (
		deleted *Order
		deltas  Deltas
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		d := Deltas{}
		if current.Type.AffectsStock() {
			d = RestorationDeltas(current.Items)
		}
		if err := s.applyDeltas(ctx, d); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted, deltas = current, d
		return nil
	})
	if err != nil {
		s.metrics.Counter("order_mutations_failed").Inc()
		log.Warn("delete order failed", zap.Error(err))
		return wrapInternal("delete order", err)
	}

	s.metrics.Counter("orders_deleted").Inc()
	log.Info("order deleted",
		zap.String("order_number", deleted.OrderNumber),
		zap.Int("stock_keys", len(deltas)),
	)

	s.publish(ctx, toEvent(events.OrderDeleted, deleted, deltas))
	return nil
}

// UpdateFlags never touches items or inventory.
func (s *service) UpdateFlags(ctx context.Context, id uint, in FlagsInput) error {
	if err := s.repo.UpdateFlags(ctx, id, in); err != nil {
		return wrapInternal("update order flags", err)
	}

	fields := []zap.Field{zap.String("layer", "service"), zap.Uint("order_id", id)}
	if in.IsPaid != nil {
		fields = append(fields, zap.Bool("is_paid", *in.IsPaid))
	}
	if in.IsCompleted != nil {
		fields = append(fields, zap.Bool("is_completed", *in.IsCompleted))
	}
	logger.FromCtx(ctx).Info("order flags updated", fields...)
	return nil
}

// Document renders the stored order. Rendering happens outside any
// transaction.
func (s *service) Document(ctx context.Context, id uint) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererUnavailable
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.Render(ctx, ToDocumentView(o))
	if err != nil {
		return nil, apperror.Internal("render order document", err)
	}
	return pdf, nil
}

// applyDeltas adjusts each key once, in lock order.
func (s *service) applyDeltas(ctx context.Context, deltas Deltas) error {
	for _, key := range deltas.Keys() {
		if _, err := s.ledger.Adjust(ctx, key, deltas[key], s.missing); err != nil {
			return err
		}
		s.metrics.Counter("stock_adjustments").Inc()
	}
	return nil
}

func (s *service) findCustomer(ctx context.Context, id uint) (*customer.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if errors.Is(err, customer.ErrCustomerNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCustomer, id)
	}
	if err != nil {
		return nil, apperror.Internal("find customer", err)
	}
	return c, nil
}

func (s *service) checkUser(ctx context.Context, id uint) error {
	_, err := s.users.FindByID(ctx, id)
	if errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("%w: id %d", ErrUnknownUser, id)
	}
	if err != nil {
		return apperror.Internal("find user", err)
	}
	return nil
}

func (s *service) publish(ctx context.Context, evt events.OrderEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.FromCtx(ctx).Warn("order event not published",
			zap.String("event_type", string(evt.Type)),
			zap.Uint("order_id", evt.OrderID),
			zap.Error(err),
		)
	}
}

// wrapInternal leaves classified errors alone and marks everything else as
// an internal failure.
func wrapInternal(op string, err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Internal(op, err)
}
