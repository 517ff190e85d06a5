package inventory

import (
	"context"
	"fmt"
	"strings"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/numeric"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Get(ctx context.Context, key Key) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Create(ctx context.Context, caller auth.Caller, rec *Record) error
	// Adjust applies a manual stock movement (goods received, stock-take
	// correction) through the same ledger orders use.
	Adjust(ctx context.Context, caller auth.Caller, key Key, delta decimal.Decimal) (decimal.Decimal, error)
}

type service struct {
	store Store
	tx    db.Transactor
}

func NewService(store Store, tx db.Transactor) Service {
	return &service{store: store, tx: tx}
}

func normalizeKey(key Key) (Key, error) {
	key.Material = strings.TrimSpace(key.Material)
	key.Specification = strings.TrimSpace(key.Specification)
	if key.Material == "" || key.Specification == "" {
		return Key{}, ErrInvalidKey
	}
	return key, nil
}

func (s *service) Get(ctx context.Context, key Key) (*Record, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, key)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Record, error) {
	return s.store.List(ctx, filter)
}

func (s *service) Create(ctx context.Context, caller auth.Caller, rec *Record) error {
	if !caller.CanManageOrders() {
		return ErrForbidden
	}

	key, err := normalizeKey(rec.Key())
	if err != nil {
		return err
	}
	rec.Material, rec.Specification = key.Material, key.Specification

	if rec.Quantity.IsNegative() {
		return ErrNegativeQuantity
	}
	if err := numeric.Quantity.Check(rec.Quantity); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, err)
	}
	if rec.Density.Valid {
		if rec.Density.Decimal.IsNegative() {
			return fmt.Errorf("%w: must not be negative", ErrInvalidDensity)
		}
		if err := numeric.Density.Check(rec.Density.Decimal); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDensity, err)
		}
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("inventory record created",
		zap.String("layer", "service"),
		zap.String("key", key.String()),
		zap.String("quantity", rec.Quantity.String()),
		zap.Uint("by_user", caller.UserID),
	)
	return nil
}

func (s *service) Adjust(
	ctx context.Context,
	caller auth.Caller,
	key Key,
	delta decimal.Decimal,
) (decimal.Decimal, error) {

	if !caller.CanManageOrders() {
		return decimal.Zero, ErrForbidden
	}

	key, err := normalizeKey(key)
	if err != nil {
		return decimal.Zero, err
	}
	if delta.IsZero() {
		return decimal.Zero, ErrZeroDelta
	}
	if err := numeric.Quantity.Check(delta); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidQuantity, err)
	}

	var quantity decimal.Decimal
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		quantity, err = s.store.Adjust(ctx, key, delta, MissingFail)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	logger.FromCtx(ctx).Info("manual stock adjustment",
		zap.String("layer", "service"),
		zap.String("key", key.String()),
		zap.String("delta", delta.String()),
		zap.String("quantity", quantity.String()),
		zap.Uint("by_user", caller.UserID),
	)
	return quantity, nil
}
